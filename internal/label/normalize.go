package label

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison form of a label: surrounding whitespace
// trimmed, Unicode upper case with full case mapping, NFC composed.
// Two labels are the same label exactly when their normalized forms are equal.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// cases.Caser keeps state between calls and is not safe for concurrent use.
	upper := cases.Upper(language.Und)
	return norm.NFC.String(upper.String(s))
}
