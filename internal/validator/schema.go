package validator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// MaxSessionEntries and MaxEntrySize bound what a single archive call may store
const (
	MaxSessionEntries = 50
	MaxEntrySize      = 50000
)

// CountingCrowRequest is the body of POST /counting-crow
type CountingCrowRequest struct {
	Cards []string `json:"cards" binding:"required,len=7,dive,cardname"`
}

// ThreeCardRequest is the body of POST /three-card
type ThreeCardRequest struct {
	Cards  []string `json:"cards" binding:"required,len=3,dive,cardname"`
	Format string   `json:"format" binding:"min=1,max=200,spreadformat"`
}

// InterpretRequest is the body of POST /ai-interpret
type InterpretRequest struct {
	Text string `json:"text" binding:"notblank,max=10000"`
}

// TranslateRequest is the body of POST /translate. Text may be empty.
type TranslateRequest struct {
	Text string `json:"text" binding:"max=10000"`
}

// ArchiveRequest is the body of POST /archive-session
type ArchiveRequest struct {
	Session []json.RawMessage `json:"session" binding:"required,min=1,max=50,dive,jsonobject,jsonsize=50000"`
}

// Normalize trims the card names once they are known to be valid
func (r *CountingCrowRequest) Normalize() {
	trimAll(r.Cards)
}

// Normalize trims the card names and the format
func (r *ThreeCardRequest) Normalize() {
	trimAll(r.Cards)
	r.Format = strings.TrimSpace(r.Format)
}

// Normalize trims the text
func (r *InterpretRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

// Entries decodes every session item into its fields
func (r *ArchiveRequest) Entries() ([]map[string]json.RawMessage, error) {
	entries := make([]map[string]json.RawMessage, 0, len(r.Session))
	for i, raw := range r.Session {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("session[%d]: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func trimAll(values []string) {
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
}

// New returns a validator that reads binding tags, the same way gin does
func New() *playground.Validate {
	v := playground.New()
	v.SetTagName("binding")
	if err := Register(v); err != nil {
		// Only reachable if a rule name is malformed
		panic(err)
	}
	return v
}

// Register installs the request rules on v. gin's engine is passed here at startup.
func Register(v *playground.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	rules := map[string]playground.Func{
		"notblank":     notBlank,
		"spreadformat": spreadFormat,
		"jsonobject":   jsonObject,
		"jsonsize":     jsonSize,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("error registering %s: %w", tag, err)
		}
	}

	v.RegisterAlias("cardname", "notblank,max=100")
	return nil
}
