// Package numbering models delivery-note document numbers as structured
// values instead of ad hoc string parsing scattered through the code.
//
// A number is an integer base plus a variant: plain ("300"), duplicate
// reprint ("300/bis") or free-text generic document ("302/generica"). The
// suffix string exists only at the external-interface boundary; internally
// everything works on Number values.
package numbering

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Variant classifies a document number.
type Variant int

const (
	// VariantNone is a plain numbered document.
	VariantNone Variant = iota
	// VariantBis is a duplicate reprint sharing the original's base number.
	VariantBis
	// VariantGenerica is a free-text document drawing from the shared pool.
	VariantGenerica
)

const (
	suffixBis      = "/bis"
	suffixGenerica = "/generica"

	// Floor is the historical numbering floor: newly assigned plain numbers
	// never drop below Floor+1 regardless of what the archive contains.
	Floor = 255
)

var ErrInvalidNumber = errors.New("invalid document number")

// Number is a parsed document number.
type Number struct {
	Base    int
	Variant Variant
}

// Parse decodes a printed document number. The integer prefix becomes the
// base; a trailing /bis or /generica selects the variant. Numbers without an
// integer prefix are rejected.
func Parse(s string) (Number, error) {
	variant := VariantNone
	rest := s
	switch {
	case strings.HasSuffix(rest, suffixBis):
		variant = VariantBis
		rest = strings.TrimSuffix(rest, suffixBis)
	case strings.HasSuffix(rest, suffixGenerica):
		variant = VariantGenerica
		rest = strings.TrimSuffix(rest, suffixGenerica)
	}

	base, ok := integerPrefix(rest)
	if !ok {
		return Number{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return Number{Base: base, Variant: variant}, nil
}

// String renders the number with its suffix, the only place the suffix
// strings are produced.
func (n Number) String() string {
	switch n.Variant {
	case VariantBis:
		return strconv.Itoa(n.Base) + suffixBis
	case VariantGenerica:
		return strconv.Itoa(n.Base) + suffixGenerica
	default:
		return strconv.Itoa(n.Base)
	}
}

// Bis derives the duplicate-reprint number for an original document number.
// The base is reused; the record holding it is always a new one.
func (n Number) Bis() Number {
	return Number{Base: n.Base, Variant: VariantBis}
}

// NextBase computes the next free base number given every number currently
// in the archive: max of all integer prefixes and the floor, plus one.
// Suffixes are stripped first; entries without an integer prefix are ignored.
func NextBase(existing []string) int {
	max := Floor
	for _, s := range existing {
		n, err := Parse(s)
		if err != nil {
			continue
		}
		if n.Base > max {
			max = n.Base
		}
	}
	return max + 1
}

// integerPrefix returns the leading decimal integer of s, if any.
func integerPrefix(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
