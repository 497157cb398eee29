package field

import (
	"fmt"
	"strings"
)

// Timing controls when a committed value is propagated to the caller.
type Timing int

const (
	// TimingImmediate parses every keystroke and propagates successful
	// commits right away.
	TimingImmediate Timing = iota
	// TimingOnChange only records keystrokes; parsing happens on blur.
	TimingOnChange
	// TimingDebounced parses every keystroke but propagates after a quiet
	// period.
	TimingDebounced
)

func (t Timing) String() string {
	switch t {
	case TimingImmediate:
		return "immediate"
	case TimingOnChange:
		return "onchange"
	case TimingDebounced:
		return "debounced"
	default:
		return fmt.Sprintf("timing(%d)", int(t))
	}
}

// ParseTiming reads a timing name as used in configuration files. The empty
// string maps to TimingImmediate.
func ParseTiming(value string) (Timing, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "immediate":
		return TimingImmediate, nil
	case "onchange", "on_change", "on-change", "change", "blur":
		return TimingOnChange, nil
	case "debounced", "debounce":
		return TimingDebounced, nil
	default:
		return TimingImmediate, fmt.Errorf("field: unknown timing %q", value)
	}
}

// State is the externally observable phase of a field.
type State int

const (
	// StateDisplay shows the formatted committed value.
	StateDisplay State = iota
	// StateEditing shows the keystrokes being typed.
	StateEditing
	// StateEditingWithError shows the retained text that failed to commit.
	StateEditingWithError
)

func (s State) String() string {
	switch s {
	case StateDisplay:
		return "display"
	case StateEditing:
		return "editing"
	case StateEditingWithError:
		return "editing_with_error"
	default:
		return "unknown"
	}
}
