// Package prefs holds the preference records a wallet keeps in its ENS
// text records and the in-memory shapes built around them.
package prefs

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKey = errors.New("unknown preference key")

// Key is the text record key of one preference. The set is closed.
type Key string

const (
	KeyPreferredDEX Key = "defi.preferred_dex"
	KeySlippage     Key = "defi.slippage"
	KeyRisk         Key = "defi.risk"
)

var keys = [...]Key{KeyPreferredDEX, KeySlippage, KeyRisk}

// Keys returns every preference key in display order.
func Keys() []Key {
	return append([]Key(nil), keys[:]...)
}

func (k Key) Valid() bool {
	for _, known := range keys {
		if k == known {
			return true
		}
	}
	return false
}

// Short is the key without its "defi." namespace.
func (k Key) Short() string {
	return strings.TrimPrefix(string(k), "defi.")
}

func (k Key) Label() string {
	switch k {
	case KeyPreferredDEX:
		return "Preferred DEX"
	case KeySlippage:
		return "Slippage (%)"
	case KeyRisk:
		return "Risk level"
	}
	return string(k)
}

func (k Key) String() string {
	return string(k)
}

// ParseKey accepts both the full record key and its short form.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range keys {
		if s == string(k) || s == k.Short() {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, s)
}
