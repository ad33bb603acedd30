// Package ident provides the identifier type shared across TableCRM
// entities. The API is inconsistent about identifier typing: some list
// endpoints return numeric ids, others return string ids for the same
// kind of entity. ID keeps either form without loss; coercion of a
// numeric string into a number happens only through Normalize, at the
// payload boundary.
package ident

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissing is returned by Normalize when the input carries no
// identifier at all.
var ErrMissing = errors.New("ident: missing identifier")

// Kind discriminates the two identifier representations.
type Kind int

const (
	// KindUnset is the zero value; no identifier present.
	KindUnset Kind = iota

	// KindInt is a numeric identifier.
	KindInt

	// KindOpaque is a string identifier that is not a plain integer.
	KindOpaque
)

// ID is a tagged union of an integer identifier and an opaque string
// identifier. The zero value is unset.
type ID struct {
	kind Kind
	num  int64
	str  string
}

// Int returns a numeric ID.
func Int(n int64) ID {
	return ID{kind: KindInt, num: n}
}

// Opaque returns a string ID, kept verbatim.
func Opaque(s string) ID {
	return ID{kind: KindOpaque, str: s}
}

// Kind reports which representation the ID holds.
func (id ID) Kind() Kind { return id.kind }

// IsSet reports whether the ID holds any identifier.
func (id ID) IsSet() bool { return id.kind != KindUnset }

// Int returns the numeric value and whether the ID is numeric.
func (id ID) Int() (int64, bool) {
	return id.num, id.kind == KindInt
}

// String renders the identifier for display and logging.
func (id ID) String() string {
	switch id.kind {
	case KindInt:
		return strconv.FormatInt(id.num, 10)
	case KindOpaque:
		return id.str
	default:
		return ""
	}
}

// Equal reports whether two IDs identify the same entity. Unset IDs
// are never equal to anything, including each other.
func (id ID) Equal(other ID) bool {
	if id.kind == KindUnset || other.kind == KindUnset {
		return false
	}
	return id.kind == other.kind && id.num == other.num && id.str == other.str
}

// Normalize converts a heterogeneous identifier value into an ID
// suitable for a submission payload. A string that parses as a base-10
// integer and round-trips exactly becomes numeric; any other non-empty
// string stays opaque. Absent values fail with ErrMissing rather than
// being dropped silently.
func Normalize(v any) (ID, error) {
	switch val := v.(type) {
	case nil:
		return ID{}, ErrMissing
	case ID:
		if !val.IsSet() {
			return ID{}, ErrMissing
		}
		if val.kind == KindOpaque {
			return Normalize(val.str)
		}
		return val, nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return ID{}, ErrMissing
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
			return Int(n), nil
		}
		return Opaque(s), nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		if val == math.Trunc(val) && math.Abs(val) < math.MaxInt64 {
			return Int(int64(val)), nil
		}
		return Opaque(strconv.FormatFloat(val, 'f', -1, 64)), nil
	case json.Number:
		return Normalize(string(val))
	default:
		return ID{}, fmt.Errorf("ident: unsupported identifier type %T", v)
	}
}

// MarshalJSON emits a JSON number for numeric IDs and a JSON string
// for opaque ones. Marshaling an unset ID is an error so that a
// missing identifier can never slip into a payload as null.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case KindInt:
		return []byte(strconv.FormatInt(id.num, 10)), nil
	case KindOpaque:
		return json.Marshal(id.str)
	default:
		return nil, ErrMissing
	}
}

// UnmarshalJSON accepts either a number or a string and preserves the
// form as received. Numeric strings are not coerced here; that is
// Normalize's job at the payload boundary.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*id = ID{}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("ident: %w", err)
		}
		if s == "" {
			*id = ID{}
			return nil
		}
		*id = Opaque(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ident: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = Int(i)
		return nil
	}
	*id = Opaque(n.String())
	return nil
}
