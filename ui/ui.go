// Package ui is the terminal surface of the ensprefs CLI.
package ui

import (
	"encoding/json"
)

// Severity picks how a piece of inline text is emphasised.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarn
	SeverityError
	SeverityCritical
)

// StyledText is text plus the emphasis it should get on a terminal. It
// marshals as the bare text.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

// UI is everything commands need to talk to the user. TerminalUI is the
// real one; RecordingUI captures output and serves scripted answers in
// tests.
type UI interface {
	// Style colours t for embedding in a larger line. Without colours the
	// text is returned as is.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	// Error only prints; callers decide whether to stop.
	Error(format string, args ...any)
	// Critical is for what the user must read before signing, or proof of
	// what was just broadcast.
	Critical(format string, args ...any)

	// Section prints "===== title =====".
	Section(title string)
	// KeyValue prints label/value rows with the values aligned.
	KeyValue(rows [][2]string)
	// Table prints a bordered table. A nil headers skips the header row.
	Table(headers []string, rows [][]string)

	// Spinner shows msg until the returned func is called.
	Spinner(msg string) func()

	// Ask reads one line, repeating until validate accepts it. A nil
	// validate accepts anything.
	Ask(validate func(string) error) string
	Confirm(prompt string, defaultYes bool) bool
	// Choose returns the 0-based index of the picked option.
	Choose(prompt string, options []string) int
}
