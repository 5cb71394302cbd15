package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrInvalidPayload is matched by every *PayloadError.
var ErrInvalidPayload = errors.New("invalid payload")

// Kind is the semantic type of a field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	}
	return "unknown"
}

// Field describes one writable column of a record.
type Field struct {
	Name        string // JSON name used by callers
	Column      string // physical column
	Kind        Kind
	Required    bool // optional fields are nullable
	MaxLen      int  // strings only, 0 = unbounded
	NonNegative bool // integers only
}

// PayloadError lists every problem found in a payload.
type PayloadError struct {
	Missing    []string          `json:"missing,omitempty"`
	Unexpected []string          `json:"unexpected,omitempty"`
	Invalid    map[string]string `json:"invalid,omitempty"`
}

func (e *PayloadError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected fields: "+strings.Join(e.Unexpected, ", "))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %s", name, e.Invalid[name]))
		}
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

func (e *PayloadError) Is(target error) bool { return target == ErrInvalidPayload }

func (e *PayloadError) empty() bool {
	return len(e.Missing) == 0 && len(e.Unexpected) == 0 && len(e.Invalid) == 0
}

func (e *PayloadError) invalid(name, reason string) {
	if e.Invalid == nil {
		e.Invalid = make(map[string]string)
	}
	e.Invalid[name] = reason
}

// FieldSet is the field mask of one record shape.
type FieldSet []Field

// Lookup returns the field with the given JSON name.
func (fs FieldSet) Lookup(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the JSON names in declaration order.
func (fs FieldSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Validate checks a create payload: every required field present, nothing
// outside the set, every value of the right kind. It returns the values keyed
// by column with normalised Go types (string, int64, bool or nil).
func (fs FieldSet) Validate(payload map[string]any) (map[string]any, error) {
	perr := &PayloadError{}
	values := make(map[string]any, len(fs))
	for _, f := range fs {
		raw, ok := payload[f.Name]
		if !ok {
			if f.Required {
				perr.Missing = append(perr.Missing, f.Name)
			}
			continue
		}
		v, reason := f.normalize(raw)
		if reason != "" {
			perr.invalid(f.Name, reason)
			continue
		}
		values[f.Column] = v
	}
	for name := range payload {
		if _, ok := fs.Lookup(name); !ok {
			perr.Unexpected = append(perr.Unexpected, name)
		}
	}
	sort.Strings(perr.Unexpected)
	if !perr.empty() {
		return nil, perr
	}
	return values, nil
}

// Mask filters a partial update down to the known fields. Unknown names are
// dropped without error; a known field carrying a value of the wrong kind is
// rejected.
func (fs FieldSet) Mask(partial map[string]any) (map[string]any, error) {
	perr := &PayloadError{}
	values := make(map[string]any, len(partial))
	for name, raw := range partial {
		f, ok := fs.Lookup(name)
		if !ok {
			continue
		}
		v, reason := f.normalize(raw)
		if reason != "" {
			perr.invalid(f.Name, reason)
			continue
		}
		values[f.Column] = v
	}
	if !perr.empty() {
		return nil, perr
	}
	return values, nil
}

func (f Field) normalize(raw any) (any, string) {
	if raw == nil {
		if f.Required {
			return nil, "must not be null"
		}
		return nil, ""
	}
	switch f.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, "expected " + f.Kind.String()
		}
		if f.MaxLen > 0 && utf8.RuneCountInString(s) > f.MaxLen {
			return nil, fmt.Sprintf("longer than %d characters", f.MaxLen)
		}
		return s, ""
	case KindInt:
		n, ok := toInt64(raw)
		if !ok {
			return nil, "expected " + f.Kind.String()
		}
		if f.NonNegative && n < 0 {
			return nil, "must not be negative"
		}
		return n, ""
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, "expected " + f.Kind.String()
		}
		return b, ""
	}
	return nil, "unsupported field kind"
}

func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
