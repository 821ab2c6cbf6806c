package model

import (
	"errors"
	"strings"
)

// ErrUnknownKind is returned when a string does not name a known taxonomy.
var ErrUnknownKind = errors.New("unknown taxonomy kind: must be builder or community")

// Kind identifies one of the two curated taxonomies.
type Kind string

const (
	// KindBuilder is the Builders taxonomy.
	KindBuilder Kind = "builder"
	// KindCommunity is the Communities taxonomy.
	KindCommunity Kind = "community"
)

// Kinds returns every known kind in the order save hooks run them.
func Kinds() []Kind {
	return []Kind{KindCommunity, KindBuilder}
}

// ParseKind converts user input such as "Builders" or " community " to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "builder":
		return KindBuilder, nil
	case "community", "communitie":
		return KindCommunity, nil
	default:
		return "", ErrUnknownKind
	}
}

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindBuilder || k == KindCommunity
}
