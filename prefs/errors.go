package prefs

import "fmt"

type UnknownKeyError struct {
	Key Key
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownKey, string(e.Key))
}

func (e *UnknownKeyError) Unwrap() error {
	return ErrUnknownKey
}
