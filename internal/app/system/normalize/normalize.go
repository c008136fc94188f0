// Package normalize canonicalizes user-supplied identifiers before they are
// stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameCI returns the case-insensitive search form of a display name.
func NameCI(s string) string {
	return text.Fold(Name(s))
}

// Role lowercases and trims a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Code upper-cases and trims a discount code.
func Code(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Subject trims a subject label and lowercases it so filters match
// regardless of how a teacher typed it.
func Subject(s string) string {
	return strings.ToLower(Name(s))
}

// Subjects normalizes each subject and drops blanks and duplicates,
// keeping first-seen order.
func Subjects(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = Subject(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
