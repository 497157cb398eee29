package field

import (
	"strings"

	"github.com/goliatone/go-inputfield/pkg/validation"
	"go.uber.org/zap"
)

// Focus enters editing. A valid field is seeded with the unformatted
// committed value; a field in error keeps the text that failed.
func (f *Field[T]) Focus() {
	f.mu.Lock()
	if !f.acceptsInputLocked() || f.editing {
		f.mu.Unlock()
		return
	}
	f.editing = true
	if f.errKind == validation.ErrorNone {
		f.raw = f.conv.Format(f.value)
	}
	f.logger.Debug("field focused", zap.String("raw", f.raw), zap.Stringer("state", f.stateLocked()))
	f.mu.Unlock()
}

// Input records a keystroke. Depending on the timing policy the text is
// parsed and committed right away, committed with deferred propagation, or
// only stored until blur. Failures while typing never raise an error state.
func (f *Field[T]) Input(text string) {
	f.mu.Lock()
	if !f.acceptsInputLocked() {
		f.mu.Unlock()
		return
	}
	f.editing = true
	f.raw = text

	if f.timing == TimingOnChange {
		f.mu.Unlock()
		return
	}

	// Every keystroke restarts the quiet period, rejected ones included.
	if f.timing == TimingDebounced {
		f.armDebounceLocked()
	}

	outcome := f.pipeline.Run(text)
	if !outcome.OK() {
		f.logger.Debug("keystroke rejected",
			zap.String("raw", text),
			zap.Stringer("kind", outcome.ErrorKind()),
			zap.Error(outcome.Err),
		)
		f.mu.Unlock()
		return
	}

	changed := !f.conv.Same(f.value, outcome.Value)
	f.value = outcome.Value
	f.clearErrorLocked()

	if f.timing != TimingDebounced && changed {
		f.propagateLocked(strings.TrimSpace(text) == "")
	}
	f.mu.Unlock()
	f.drain()
}

func (f *Field[T]) armDebounceLocked() {
	f.seq++
	token := f.seq
	f.pending = token
	f.debounce.Debounce(func() { f.fireDebounced(token) })
}

// Blur commits the typed text regardless of timing. Success propagates even
// when the value did not change; failure retains the text, records the error
// kind and raises OnParseError.
func (f *Field[T]) Blur() {
	f.mu.Lock()
	if !f.acceptsInputLocked() || !f.editing {
		f.mu.Unlock()
		return
	}
	f.cancelPendingLocked()
	f.editing = false

	outcome := f.pipeline.Run(f.raw)
	if outcome.OK() {
		f.value = outcome.Value
		f.clearErrorLocked()
		f.raw = f.displayLocked()
		f.propagateLocked(strings.TrimSpace(outcome.Raw) == "")
		f.logger.Debug("field committed", zap.String("text", f.raw))
		f.mu.Unlock()
		f.drain()
		return
	}

	previous := f.errKind
	f.errKind = outcome.ErrorKind()
	f.lastErr = outcome.Err
	event := ParseErrorEvent{
		Raw:     outcome.Raw,
		TypeTag: f.tag,
		Kind:    outcome.ErrorKind(),
		Err:     outcome.Err,
	}
	f.logger.Debug("commit rejected",
		zap.String("raw", outcome.Raw),
		zap.Stringer("kind", event.Kind),
		zap.Error(outcome.Err),
	)
	if handler := f.onParseError; handler != nil {
		f.enqueueLocked(func() { handler(event) })
	}
	if previous != f.errKind {
		f.enqueueValidationStateLocked()
	}
	f.mu.Unlock()
	f.drain()
}

// SetValue replaces the committed value from outside. While the field is not
// being edited the shown text is reseeded and any error is cleared; during
// editing the typed text is left untouched and blur decides the final value.
// The bound form context is notified; OnValueChanged is not raised.
func (f *Field[T]) SetValue(value T) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.value = value
	f.propagated = value
	f.hasValue = true
	if !f.editing {
		f.cancelPendingLocked()
		f.clearErrorLocked()
		f.raw = f.displayLocked()
	}
	f.notifyContextLocked(strings.TrimSpace(f.conv.Format(value)) == "")
	f.logger.Debug("value set externally", zap.Bool("editing", f.editing))
	f.mu.Unlock()
	f.drain()
}

func (f *Field[T]) fireDebounced(token uint64) {
	f.mu.Lock()
	if f.closed || f.pending != token {
		f.mu.Unlock()
		return
	}
	f.pending = 0
	if !f.conv.Same(f.propagated, f.value) {
		f.propagateLocked(strings.TrimSpace(f.conv.Format(f.value)) == "")
	}
	f.mu.Unlock()
	f.drain()
}

// cancelPendingLocked invalidates the armed debounce. The token is cleared
// under f.mu so a timer callback already past the debouncer's own guard
// still observes the cancellation.
func (f *Field[T]) cancelPendingLocked() {
	if f.pending == 0 {
		return
	}
	f.pending = 0
	f.debounce.Cancel()
}

func (f *Field[T]) clearErrorLocked() {
	if f.errKind == validation.ErrorNone {
		return
	}
	f.errKind = validation.ErrorNone
	f.lastErr = nil
	if handler := f.onErrorCleared; handler != nil {
		f.enqueueLocked(handler)
	}
	f.enqueueValidationStateLocked()
}

func (f *Field[T]) propagateLocked(empty bool) {
	value := f.value
	f.propagated = value
	f.hasValue = true
	if handler := f.onValueChanged; handler != nil {
		f.enqueueLocked(func() { handler(value) })
	}
	f.notifyContextLocked(empty)
}
