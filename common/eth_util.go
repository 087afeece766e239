package common

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid address")

// IsAddress reports whether s is a 0x-prefixed, 40 hex digit address.
// Mixed case is accepted without checksum enforcement.
func IsAddress(s string) bool {
	if len(s) != 2+2*common.AddressLength {
		return false
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	return common.IsHexAddress(s)
}

// ParseAddress validates s before turning it into an address. Unlike
// common.HexToAddress it never silently pads or truncates.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !IsAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// LowerHex is the canonical lower-case string form used for cache keys
// and reverse records.
func LowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func HexToAddress(hex string) common.Address {
	return common.HexToAddress(hex)
}

func HexToHash(hex string) common.Hash {
	return common.HexToHash(hex)
}
