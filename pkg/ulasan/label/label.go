// Package label defines the closed set of sentiment classes.
package label

import (
	"fmt"
	"strings"

	"github.com/cognicore/ulasan/pkg/ulasan/internalerr"
)

// Label is one of Positive, Neutral, Negative. The zero value is not a valid
// label so that an unset field is detectable.
type Label int

const (
	Positive Label = iota + 1
	Neutral
	Negative
)

// All lists the labels in tie-break precedence order.
var All = [3]Label{Positive, Neutral, Negative}

// Count is the number of classes.
const Count = len(All)

// String returns the canonical upper-case name.
func (l Label) String() string {
	switch l {
	case Positive:
		return "POSITIVE"
	case Neutral:
		return "NEUTRAL"
	case Negative:
		return "NEGATIVE"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Short returns the three-letter code used by the review dataset.
func (l Label) Short() string {
	switch l {
	case Positive:
		return "POS"
	case Neutral:
		return "NET"
	case Negative:
		return "NEG"
	default:
		return "???"
	}
}

// Valid reports whether l is one of the three classes.
func (l Label) Valid() bool {
	return l >= Positive && l <= Negative
}

// Index returns the position of l in All (0..2), or -1.
func (l Label) Index() int {
	if !l.Valid() {
		return -1
	}
	return int(l) - 1
}

// FromIndex is the inverse of Index.
func FromIndex(i int) (Label, bool) {
	if i < 0 || i >= Count {
		return 0, false
	}
	return All[i], true
}

// Parse converts a raw label value. Both the long names and the dataset's
// POS/NET/NEG codes are accepted, case-insensitively.
func Parse(s string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSITIVE", "POS":
		return Positive, nil
	case "NEUTRAL", "NET":
		return Neutral, nil
	case "NEGATIVE", "NEG":
		return Negative, nil
	}
	return 0, fmt.Errorf("%w: label value %q outside {POSITIVE,NEUTRAL,NEGATIVE}", internalerr.ErrDataFormat, s)
}

// MarshalText encodes the canonical name.
func (l Label) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: cannot encode %s", internalerr.ErrInvalidInput, l)
	}
	return []byte(l.String()), nil
}

// UnmarshalText accepts anything Parse accepts.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
