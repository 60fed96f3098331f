package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/corvid/internal/card"
	"github.com/arcanaland/corvid/internal/deck"
)

var showCmd = &cobra.Command{
	Use:   "show [card name]",
	Short: "Display the text and keywords of a card",
	Long: `Show prints one entry of the card database. Card names are matched exactly,
the same way the API matches them.

Examples:
  corvid show The Tower
  corvid show "Three of Swords"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		d, err := deck.Load(cfg.Data.Cards)
		if err != nil {
			return cardsError(cfg.Data.Cards, err)
		}

		c, err := d.Get(strings.Join(args, " "))
		if err != nil {
			return err
		}

		displayCard(c, terminalWidth())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
}

// terminalWidth returns the stdout width, or 80 when stdout is not a terminal
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// displayCard prints a card with its text wrapped to width
func displayCard(c card.Card, width int) {
	textWidth := width - 4
	if textWidth < 20 {
		textWidth = 20
	}

	fmt.Println()
	fmt.Println("  " + color.CyanString("Card: ") + color.HiWhiteString("%s", c.Name))

	if len(c.Keywords) > 0 {
		fmt.Println("  " + color.CyanString("Keywords: ") + color.HiWhiteString("%s", strings.Join(c.Keywords, " · ")))
	}

	if c.Text != "" {
		fmt.Println()
		for _, line := range wrapText(c.Text, textWidth) {
			fmt.Println("  " + line)
		}
	}
	fmt.Println()
}

// wrapText wraps text to fit within the specified width
func wrapText(text string, width int) []string {
	var result []string

	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result = append(result, "")
			continue
		}

		currentLine := ""
		for _, word := range words {
			if len(currentLine) == 0 {
				// First word on the line, always add it
				currentLine = word
			} else if len([]rune(currentLine))+1+len([]rune(word)) <= width {
				currentLine += " " + word
			} else {
				result = append(result, currentLine)
				currentLine = word
			}
		}
		result = append(result, currentLine)
	}

	return result
}
