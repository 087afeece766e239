package ens

import (
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// UTS-46 non-transitional lookup mapping with the STD3 ASCII rules
// relaxed, which is what ENS names have been normalized with since
// ENSIP-1. Underscores and emoji are legal labels.
var profile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// Normalize returns the canonical form of name. It is idempotent:
// Normalize(Normalize(x)) == Normalize(x) for every x it accepts.
func Normalize(name string) (string, error) {
	if name == "" {
		return "", &InvalidNameError{Name: name, Reason: "empty name"}
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", &InvalidNameError{Name: name, Reason: "contains whitespace or control characters"}
		}
	}

	mapped, err := profile.ToUnicode(norm.NFC.String(name))
	if err != nil {
		return "", &InvalidNameError{Name: name, Reason: err.Error()}
	}
	mapped = norm.NFC.String(mapped)

	for _, label := range strings.Split(mapped, ".") {
		if label == "" {
			return "", &InvalidNameError{Name: name, Reason: "empty label"}
		}
	}
	return mapped, nil
}
