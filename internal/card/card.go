package card

import "slices"

// Card represents one entry of the card database
type Card struct {
	Name     string   `yaml:"-"`        // Lookup key (e.g., The Tower, Three of Swords)
	Text     string   `yaml:"text"`     // Descriptive text shown in a reading
	Keywords []string `yaml:"keywords"` // Ordered keyword list
}

// Clone returns a copy of the card that shares no memory with c
func (c Card) Clone() Card {
	c.Keywords = slices.Clone(c.Keywords)
	return c
}
