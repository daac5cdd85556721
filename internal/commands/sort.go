package commands

import (
	"github.com/maruel/natural"
)

// SortOrder selects how sibling names and collected paths are ordered.
type SortOrder string

const (
	// SortLexical orders by byte value, which for UTF-8 equals code point order.
	SortLexical SortOrder = "lexical"
	// SortNatural orders embedded numbers by value, so "file2" precedes "file10".
	SortNatural SortOrder = "natural"
)

// ParseSortOrder maps a configuration value onto a SortOrder.
func ParseSortOrder(natural bool) SortOrder {
	if natural {
		return SortNatural
	}
	return SortLexical
}

// Less returns the comparison used for this order.
func (order SortOrder) Less() func(first string, second string) bool {
	if order == SortNatural {
		return natural.Less
	}
	return func(first string, second string) bool {
		return first < second
	}
}

