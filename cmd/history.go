package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcanaland/corvid/internal/archive"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived reading sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		store := archive.New(cfg.Data.Sessions, zap.NewNop())
		listing, err := store.List()
		if err != nil {
			return err
		}

		printHistory(os.Stdout, store.Dir(), listing)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(historyCmd)
}

func printHistory(w io.Writer, dir string, listing archive.Listing) {
	if len(listing.Sessions) == 0 && len(listing.Skipped) == 0 {
		fmt.Fprintf(w, "No archived sessions in %s\n", dir)
		return
	}

	for _, s := range listing.Sessions {
		readings := "readings"
		if s.ReadingCount == 1 {
			readings = "reading"
		}
		fmt.Fprintf(w, "  %s  %s  %d %s\n",
			color.HiWhiteString(s.Filename),
			color.CyanString(s.Timestamp),
			s.ReadingCount, readings)
	}

	for _, name := range listing.Skipped {
		fmt.Fprintf(w, "  %s  %s\n", color.YellowString(name), color.RedString("unreadable"))
	}
}
