package validator

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/arcanaland/corvid/internal/deck"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// DatabaseValidator checks a card database file before it is served
type DatabaseValidator struct {
	Path    string
	Results ValidationResults
}

func NewDatabaseValidator(path string) *DatabaseValidator {
	return &DatabaseValidator{
		Path:    path,
		Results: ValidationResults{},
	}
}

// Validate returns an error only when the file cannot be read or parsed at all
func (v *DatabaseValidator) Validate() (ValidationResults, error) {
	data, err := os.ReadFile(v.Path)
	if err != nil {
		return v.Results, fmt.Errorf("error reading %s: %w", v.Path, err)
	}

	cards, err := deck.Parse(data)
	if err != nil {
		return v.Results, fmt.Errorf("error parsing %s: %w", v.Path, err)
	}

	if len(cards) == 0 {
		v.Results.Errors = append(v.Results.Errors, deck.ErrEmpty.Error())
		return v.Results, nil
	}

	names := make([]string, 0, len(cards))
	for name := range cards {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := cards[name]

		if strings.TrimSpace(name) == "" {
			v.Results.Errors = append(v.Results.Errors, "card name cannot be blank")
			continue
		}
		if utf8.RuneCountInString(name) > 100 {
			v.Results.Errors = append(v.Results.Errors,
				fmt.Sprintf("card name is longer than 100 characters: %.40s...", name))
		}
		if name != strings.TrimSpace(name) {
			v.Results.Errors = append(v.Results.Errors,
				fmt.Sprintf("card name has surrounding whitespace and can never be requested: %q", name))
		}

		if strings.TrimSpace(c.Text) == "" {
			v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf("%s: text is missing", name))
		}
		if len(c.Keywords) == 0 {
			v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf("%s: keywords are missing", name))
		}
		for i, kw := range c.Keywords {
			if strings.TrimSpace(kw) == "" {
				v.Results.Warnings = append(v.Results.Warnings,
					fmt.Sprintf("%s: keyword %d is blank", name, i+1))
			}
		}
	}

	return v.Results, nil
}
