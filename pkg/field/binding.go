package field

import (
	"strings"

	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/validation"
	"go.uber.org/zap"
)

type binding struct {
	ctx *form.Context
	id  form.FieldID
	sub *form.Subscription
}

// Bind attaches the field to ctx under the identifier derived from expr.
// An existing binding is released first so the field never listens to two
// contexts. Binding to a nil context only releases.
func (f *Field[T]) Bind(ctx *form.Context, expr string) error {
	var id form.FieldID
	if ctx != nil {
		parsed, err := form.ParseFieldID(expr)
		if err != nil {
			return err
		}
		id = parsed
	}

	f.mu.Lock()
	previous := f.binding
	f.binding = binding{}
	f.mu.Unlock()
	previous.sub.Unsubscribe()

	if ctx == nil {
		return nil
	}

	if err := ctx.Register(id, form.FieldInfo{
		TypeTag:  f.tag.String(),
		Required: f.Required(),
		Label:    f.label,
	}); err != nil {
		return err
	}
	sub := ctx.Subscribe(func(event form.Event) {
		if event.Kind != form.EventValidationStateChanged {
			return
		}
		if event.Field != "" && event.Field != id {
			return
		}
		f.mu.Lock()
		if f.closed || f.binding.ctx != ctx {
			f.mu.Unlock()
			return
		}
		f.enqueueValidationStateLocked()
		f.mu.Unlock()
		f.drain()
	})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	f.binding = binding{ctx: ctx, id: id, sub: sub}
	f.logger.Debug("field bound", zap.String("field", id.String()))
	if f.hasValue {
		seed := form.FieldChange{
			ID:    id,
			Value: f.value,
			Empty: strings.TrimSpace(f.conv.Format(f.value)) == "",
		}
		f.enqueueLocked(func() { ctx.Seed(seed) })
	}
	f.mu.Unlock()
	f.drain()
	return nil
}

// FieldID returns the identifier the field is bound under, or "".
func (f *Field[T]) FieldID() form.FieldID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binding.id
}

// Context returns the bound form context, or nil.
func (f *Field[T]) Context() *form.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binding.ctx
}

// Invalid reports whether the field should be shown as invalid: it has a
// local error or the bound context holds messages for it.
func (f *Field[T]) Invalid() bool {
	f.mu.Lock()
	local := f.errKind != validation.ErrorNone
	ctx, id := f.binding.ctx, f.binding.id
	f.mu.Unlock()

	if local {
		return true
	}
	return ctx != nil && ctx.HasMessages(id)
}

// Messages returns the bound context's messages for the field.
func (f *Field[T]) Messages() []string {
	f.mu.Lock()
	ctx, id := f.binding.ctx, f.binding.id
	f.mu.Unlock()
	if ctx == nil {
		return nil
	}
	return ctx.Messages(id)
}

// Close cancels any pending debounce and releases the context binding.
// Events after Close are ignored.
func (f *Field[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.pending = 0
	previous := f.binding
	f.binding = binding{}
	f.mu.Unlock()

	f.debounce.Cancel()
	previous.sub.Unsubscribe()
	f.logger.Debug("field closed")
}

func (f *Field[T]) notifyContextLocked(empty bool) {
	ctx, id := f.binding.ctx, f.binding.id
	if ctx == nil {
		return
	}
	change := form.FieldChange{ID: id, Value: f.value, Empty: empty}
	f.enqueueLocked(func() { ctx.NotifyFieldChanged(change) })
}

func (f *Field[T]) enqueueValidationStateLocked() {
	handler := f.onValidationState
	if handler == nil {
		return
	}
	f.enqueueLocked(func() { handler(f.Invalid()) })
}

// enqueueLocked appends a delivery job. Jobs run from drain, outside f.mu.
func (f *Field[T]) enqueueLocked(job func()) {
	f.queue = append(f.queue, job)
}

// drain runs queued jobs on the calling goroutine unless another call is
// already draining, in which case that call picks them up. Handlers may call
// back into the field.
func (f *Field[T]) drain() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true
	for len(f.queue) > 0 {
		job := f.queue[0]
		f.queue[0] = nil
		f.queue = f.queue[1:]
		f.mu.Unlock()
		job()
		f.mu.Lock()
	}
	f.draining = false
	f.queue = nil
	f.mu.Unlock()
}
