package types

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Key is the value of a ledger's key column. Text that parses as a finite
// number is a numeric key and compares by value, so "1547" and "1547.0" are
// the same key. Anything else is a text key and compares byte for byte.
type Key struct {
	text    string
	num     float64
	numeric bool
}

// ParseKey parses a key field. Surrounding whitespace is ignored.
// Returns ErrInvalidKey for an empty field.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		return Key{text: s, num: v, numeric: true}, nil
	}
	return Key{text: s}, nil
}

// String returns the key as it was written.
func (k Key) String() string { return k.text }

// Numeric reports whether the key compares by value.
func (k Key) Numeric() bool { return k.numeric }

// Float returns the numeric value of the key. It is zero for text keys.
func (k Key) Float() float64 { return k.num }

// Equal reports whether k and o identify the same record.
func (k Key) Equal(o Key) bool {
	if k.numeric != o.numeric {
		return false
	}
	if k.numeric {
		return k.num == o.num
	}
	return k.text == o.text
}

// Compare orders keys: numeric keys ascending by value, then text keys
// lexicographically.
func (k Key) Compare(o Key) int {
	switch {
	case k.numeric && o.numeric:
		return cmp.Compare(k.num, o.num)
	case k.numeric:
		return -1
	case o.numeric:
		return 1
	default:
		return strings.Compare(k.text, o.text)
	}
}
