package spread

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arcanaland/corvid/internal/card"
)

// Separator splits the labels of a three card format. It is an en-dash, not a hyphen.
const Separator = "–"

// CountingCrowType tags every Counting Crow result
const CountingCrowType = "Counting Crow (7 Cards)"

// FeatherLabels are the Counting Crow positions, in order
var FeatherLabels = []string{
	"One for sorrow",
	"Two for joy",
	"Three for a girl",
	"Four for a boy",
	"Five for silver",
	"Six for gold",
	"Seven for a secret never to be told",
}

var (
	ErrCardCount = errors.New("wrong number of cards for spread")
	ErrFormat    = errors.New("format must contain exactly 3 labels separated by –")
)

// Lookup finds a card by name
type Lookup interface {
	Get(name string) (card.Card, error)
}

// Reading is one labelled card of a spread
type Reading struct {
	Label    string   `json:"label"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

// Result is a complete spread
type Result struct {
	Reading    []Reading `json:"reading"`
	SpreadType string    `json:"spread_type"`
}

// Format looks up a card and labels it for a position
func Format(l Lookup, cardName, label string) (Reading, error) {
	c, err := l.Get(cardName)
	if err != nil {
		return Reading{}, err
	}

	keywords := c.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return Reading{
		Label:    fmt.Sprintf("%s %s %s", label, Separator, cardName),
		Text:     c.Text,
		Keywords: keywords,
	}, nil
}

// CountingCrow lays out seven cards against the feather labels
func CountingCrow(l Lookup, cards []string) (Result, error) {
	readings, err := zip(l, cards, FeatherLabels)
	if err != nil {
		return Result{}, err
	}
	return Result{Reading: readings, SpreadType: CountingCrowType}, nil
}

// ThreeCard lays out three cards against the labels of a format like "Past – Present – Future"
func ThreeCard(l Lookup, cards []string, format string) (Result, error) {
	labels, err := ParseFormat(format)
	if err != nil {
		return Result{}, err
	}

	readings, err := zip(l, cards, labels)
	if err != nil {
		return Result{}, err
	}
	return Result{Reading: readings, SpreadType: fmt.Sprintf("Three Card (%s)", format)}, nil
}

// ParseFormat splits a three card format into its trimmed labels
func ParseFormat(format string) ([]string, error) {
	parts := strings.Split(format, Separator)
	if len(parts) != 3 {
		return nil, ErrFormat
	}

	labels := make([]string, len(parts))
	for i, p := range parts {
		labels[i] = strings.TrimSpace(p)
		if labels[i] == "" {
			return nil, ErrFormat
		}
	}
	return labels, nil
}

// zip stops at the first lookup failure, so a result is either complete or absent
func zip(l Lookup, cards, labels []string) ([]Reading, error) {
	if len(cards) != len(labels) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCardCount, len(cards), len(labels))
	}

	readings := make([]Reading, 0, len(cards))
	for i, name := range cards {
		r, err := Format(l, name, labels[i])
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, nil
}
