package prefs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Value is the outcome of a successful record read. The resolver returns
// "" both for records that were never written and for records written as
// "", so Set is false in both cases.
type Value struct {
	Text string
	Set  bool
}

func ValueOf(text string) Value {
	return Value{Text: text, Set: text != ""}
}

var RiskLevels = []string{"low", "medium", "high"}

var ErrInvalidValue = errors.New("invalid preference value")

// ValidateValue checks what a user typed for key. An empty value is always
// accepted and clears the record.
func ValidateValue(key Key, value string) error {
	if value == "" {
		return nil
	}
	switch key {
	case KeyPreferredDEX:
		if strings.TrimSpace(value) != value {
			return fmt.Errorf("%w: dex name has surrounding spaces", ErrInvalidValue)
		}
		return nil
	case KeySlippage:
		pct, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: slippage %q is not a number", ErrInvalidValue, value)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: slippage %s is outside 0-100", ErrInvalidValue, value)
		}
		return nil
	case KeyRisk:
		for _, level := range RiskLevels {
			if value == level {
				return nil
			}
		}
		return fmt.Errorf("%w: risk must be one of %s", ErrInvalidValue, strings.Join(RiskLevels, ", "))
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, string(key))
}
