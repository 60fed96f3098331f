package deck

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/arcanaland/corvid/internal/card"
)

var (
	// ErrCardNotFound is matched by every NotFoundError
	ErrCardNotFound = errors.New("card not found")
	ErrEmpty        = errors.New("card database contains no cards")
)

// NotFoundError reports a card name that is absent from the deck
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Card '%s' not found in database", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrCardNotFound
}

// Deck is the card lookup table. It is built once by Load and never modified.
type Deck struct {
	Path string

	cards map[string]card.Card
}

// Load reads a card database from a YAML file
func Load(path string) (*Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading card database: %w", err)
	}

	cards, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("error loading %s: %w", path, ErrEmpty)
	}

	return &Deck{Path: path, cards: cards}, nil
}

// Parse decodes a YAML document mapping card names to entries. An empty
// document yields an empty map; Load rejects it.
func Parse(data []byte) (map[string]card.Card, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	// An empty or comment-only document has no content node
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return map[string]card.Card{}, nil
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("card database must be a mapping of card names")
	}

	var raw map[string]card.Card
	if err := root.Content[0].Decode(&raw); err != nil {
		return nil, err
	}

	cards := make(map[string]card.Card, len(raw))
	for name, c := range raw {
		c.Name = name
		cards[name] = c
	}
	return cards, nil
}

// New builds a deck from already decoded cards. The map is copied.
func New(cards map[string]card.Card) *Deck {
	d := &Deck{cards: make(map[string]card.Card, len(cards))}
	for name, c := range cards {
		c = c.Clone()
		c.Name = name
		d.cards[name] = c
	}
	return d
}

// Get looks up a card by its exact name
func (d *Deck) Get(name string) (card.Card, error) {
	c, ok := d.cards[name]
	if !ok {
		return card.Card{}, &NotFoundError{Name: name}
	}
	return c.Clone(), nil
}

// Len returns the number of cards in the deck
func (d *Deck) Len() int {
	return len(d.cards)
}

// Names returns every card name in sorted order
func (d *Deck) Names() []string {
	names := make([]string, 0, len(d.cards))
	for name := range d.cards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
