package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/arcanaland/corvid/internal/spread"
)

func notBlank(fl playground.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func spreadFormat(fl playground.FieldLevel) bool {
	_, err := spread.ParseFormat(fl.Field().String())
	return err == nil
}

func jsonObject(fl playground.FieldLevel) bool {
	raw, ok := rawBytes(fl.Field())
	if !ok {
		return false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	return obj != nil
}

func jsonSize(fl playground.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	raw, ok := rawBytes(fl.Field())
	if !ok {
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return false
	}
	return encodedLen(value) <= limit
}

// encodedLen is the length of value serialized with ", " and ": " separators
// and every non-ASCII character written as a \u escape, the encoding the
// archive size limit is measured in.
func encodedLen(value any) int {
	switch v := value.(type) {
	case nil:
		return len("null")
	case bool:
		if v {
			return len("true")
		}
		return len("false")
	case json.Number:
		return len(v.String())
	case string:
		return quotedLen(v)
	case []any:
		n := 2
		for i, item := range v {
			if i > 0 {
				n += len(", ")
			}
			n += encodedLen(item)
		}
		return n
	case map[string]any:
		n := 2
		i := 0
		for key, item := range v {
			if i > 0 {
				n += len(", ")
			}
			n += quotedLen(key) + len(": ") + encodedLen(item)
			i++
		}
		return n
	}
	return 0
}

func quotedLen(s string) int {
	n := 2
	for _, r := range s {
		switch {
		case r == '"', r == '\\', r == '\n', r == '\r', r == '\t', r == '\b', r == '\f':
			n += 2
		case r < 0x20 || r == 0x7f:
			n += 6
		case r < 0x80:
			n++
		case r < 0x10000:
			n += 6
		default:
			// surrogate pair
			n += 12
		}
	}
	return n
}

func rawBytes(field reflect.Value) ([]byte, bool) {
	if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
		return nil, false
	}
	return field.Bytes(), true
}

// FieldError describes one rejected field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the list of field errors for one request
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Translate turns a binding or validation failure into field errors
func Translate(err error) Errors {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(Errors, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Errors{{Field: typeErr.Field, Message: fmt.Sprintf("must be of type %s", typeErr.Type)}}
	}

	return Errors{{Field: "body", Message: err.Error()}}
}

func message(fe playground.FieldError) string {
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array

	switch fe.ActualTag() {
	case "required":
		return "field required"
	case "notblank":
		return "cannot be empty"
	case "len":
		if collection {
			return fmt.Sprintf("must contain exactly %s items", fe.Param())
		}
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		if collection {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if collection {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "spreadformat":
		return "must contain exactly 3 labels separated by " + spread.Separator
	case "jsonobject":
		return "each session item must be an object"
	case "jsonsize":
		return fmt.Sprintf("session reading data too large (limit %s)", fe.Param())
	}
	return fmt.Sprintf("failed the %s rule", fe.ActualTag())
}
