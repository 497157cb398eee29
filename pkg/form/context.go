// Package form provides the shared validation context fields bind to. A
// Context aggregates committed values and validation messages across the
// fields of one logical form; the host wires the same instance into every
// field explicitly.
package form

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// FieldInfo describes a registered field.
type FieldInfo struct {
	TypeTag  string
	Required bool
	Label    string
}

// FieldChange is the snapshot a field publishes when it commits a value.
type FieldChange struct {
	ID    FieldID
	Value any
	// Empty is true when the committed text was blank.
	Empty bool
}

// EventKind discriminates context notifications.
type EventKind int

const (
	// EventFieldChanged is raised after a field committed a new value.
	EventFieldChanged EventKind = iota
	// EventValidationStateChanged is raised whenever messages may have
	// changed.
	EventValidationStateChanged
)

// Event is delivered to subscribers.
type Event struct {
	Kind  EventKind
	Field FieldID
}

// Validator returns messages for one field's committed value. Validators run
// while the context is locked and must not call back into it.
type Validator func(id FieldID, value any) []string

// FormValidator returns form-level messages computed over all values.
type FormValidator func(values map[string]any) []string

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMessagePolicy overrides the sanitiser applied to externally supplied
// messages. Defaults to bluemonday's strict policy.
func WithMessagePolicy(policy *bluemonday.Policy) Option {
	return func(c *Context) {
		if policy != nil {
			c.policy = policy
		}
	}
}

// WithRequiredMessage customises the message recorded for empty required
// fields. The format receives the field label (or id).
func WithRequiredMessage(format string) Option {
	return func(c *Context) {
		if format != "" {
			c.requiredFormat = format
		}
	}
}

// Context is the ambient validation context shared by the fields of a form.
// It is safe for concurrent use; subscribers are invoked without internal
// locks held.
type Context struct {
	mu sync.RWMutex

	fields     map[FieldID]FieldInfo
	order      []FieldID
	values     values
	snapshots  map[FieldID]FieldChange
	modified   map[FieldID]bool
	validated  map[FieldID][]string
	external   map[FieldID][]string
	formValid  []string
	formExtern []string

	validators     map[FieldID][]Validator
	formValidators []FormValidator

	subs    map[uint64]func(Event)
	nextSub uint64

	policy         *bluemonday.Policy
	requiredFormat string
	logger         *zap.Logger
}

// NewContext creates an empty context.
func NewContext(options ...Option) *Context {
	c := &Context{
		fields:         make(map[FieldID]FieldInfo),
		values:         make(values),
		snapshots:      make(map[FieldID]FieldChange),
		modified:       make(map[FieldID]bool),
		validated:      make(map[FieldID][]string),
		external:       make(map[FieldID][]string),
		validators:     make(map[FieldID][]Validator),
		subs:           make(map[uint64]func(Event)),
		policy:         bluemonday.StrictPolicy(),
		requiredFormat: "%s is required",
		logger:         zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Register records a field identifier. Registering an id twice updates its
// info; the context never holds a reference to the field itself.
func (c *Context) Register(id FieldID, info FieldInfo) error {
	if id == "" {
		return errors.New("form: field id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.fields[id]; !exists {
		c.order = append(c.order, id)
	}
	c.fields[id] = info
	c.logger.Debug("field registered", zap.String("field", id.String()), zap.String("type", info.TypeTag))
	return nil
}

// Fields lists registered identifiers in registration order.
func (c *Context) Fields() []FieldID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]FieldID(nil), c.order...)
}

// Info returns the registration info for id.
func (c *Context) Info(id FieldID) (FieldInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.fields[id]
	return info, ok
}

// AddValidator attaches a validator to a field.
func (c *Context) AddValidator(id FieldID, validator Validator) {
	if validator == nil || id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.validators[id] = append(c.validators[id], validator)
}

// AddFormValidator attaches a validator evaluated by Validate.
func (c *Context) AddFormValidator(validator FormValidator) {
	if validator == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formValidators = append(c.formValidators, validator)
}

// NotifyFieldChanged records a committed value, clears externally supplied
// messages for the field, re-runs its validators and notifies subscribers.
func (c *Context) NotifyFieldChanged(change FieldChange) {
	if change.ID == "" {
		return
	}
	c.mu.Lock()
	if err := c.values.set(change.ID, change.Value); err != nil {
		c.logger.Warn("field value not stored", zap.String("field", change.ID.String()), zap.Error(err))
	}
	c.snapshots[change.ID] = change
	c.modified[change.ID] = true
	delete(c.external, change.ID)
	c.revalidateLocked(change.ID)
	c.mu.Unlock()

	c.logger.Debug("field changed", zap.String("field", change.ID.String()))
	c.publish(Event{Kind: EventFieldChanged, Field: change.ID})
	c.publish(Event{Kind: EventValidationStateChanged, Field: change.ID})
}

// Seed records a field's initial value without marking it modified or
// running validators. A value already committed through NotifyFieldChanged
// is kept.
func (c *Context) Seed(change FieldChange) {
	if change.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.modified[change.ID] {
		return
	}
	if err := c.values.set(change.ID, change.Value); err != nil {
		c.logger.Warn("field value not seeded", zap.String("field", change.ID.String()), zap.Error(err))
		return
	}
	c.snapshots[change.ID] = change
	c.logger.Debug("field seeded", zap.String("field", change.ID.String()))
}

// Validate re-runs every field and form validator, including required
// checks, and reports whether the form has no messages.
func (c *Context) Validate() bool {
	c.mu.Lock()
	for _, id := range c.order {
		c.revalidateLocked(id)
	}
	snapshot := c.values.clone()
	formValidators := append([]FormValidator(nil), c.formValidators...)
	c.mu.Unlock()

	var formMessages []string
	for _, validator := range formValidators {
		formMessages = append(formMessages, validator(snapshot)...)
	}

	c.mu.Lock()
	c.formValid = normalizeMessages(formMessages)
	valid := !c.hasAnyMessagesLocked()
	c.mu.Unlock()

	c.logger.Debug("form validated", zap.Bool("valid", valid))
	c.publish(Event{Kind: EventValidationStateChanged})
	return valid
}

// Messages returns validator and external messages for a field.
func (c *Context) Messages(id FieldID) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messagesLocked(id)
}

// HasMessages reports whether the field has any messages.
func (c *Context) HasMessages(id FieldID) bool {
	return len(c.Messages(id)) > 0
}

// FormMessages returns form-level messages.
func (c *Context) FormMessages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return normalizeMessages(append(append([]string(nil), c.formValid...), c.formExtern...))
}

// AllMessages returns every field message keyed by id.
func (c *Context) AllMessages() map[FieldID][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[FieldID][]string)
	ids := make(map[FieldID]struct{}, len(c.validated)+len(c.external))
	for id := range c.validated {
		ids[id] = struct{}{}
	}
	for id := range c.external {
		ids[id] = struct{}{}
	}
	for id := range ids {
		if msgs := c.messagesLocked(id); len(msgs) > 0 {
			out[id] = msgs
		}
	}
	return out
}

// AddMessages attaches external messages (for example server-side
// validation) to a field. They are sanitised and cleared the next time the
// field changes.
func (c *Context) AddMessages(id FieldID, messages ...string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	c.external[id] = normalizeMessages(append(c.external[id], c.sanitize(messages)...))
	c.mu.Unlock()
	c.publish(Event{Kind: EventValidationStateChanged, Field: id})
}

// ClearMessages drops every message recorded for a field.
func (c *Context) ClearMessages(id FieldID) {
	c.mu.Lock()
	delete(c.external, id)
	delete(c.validated, id)
	c.mu.Unlock()
	c.publish(Event{Kind: EventValidationStateChanged, Field: id})
}

// ApplyErrorPayload maps a server error payload onto registered fields.
// Unmatched keys become form-level messages. Previous external messages are
// replaced.
func (c *Context) ApplyErrorPayload(payload map[string][]string) PayloadMapping {
	mapping := MapErrorPayload(c.Fields(), payload)

	c.mu.Lock()
	c.external = make(map[FieldID][]string, len(mapping.Fields))
	for id, messages := range mapping.Fields {
		c.external[id] = normalizeMessages(c.sanitize(messages))
	}
	c.formExtern = normalizeMessages(c.sanitize(mapping.Form))
	c.mu.Unlock()

	c.logger.Debug("error payload applied", zap.Int("fields", len(mapping.Fields)), zap.Int("form", len(mapping.Form)))
	c.publish(Event{Kind: EventValidationStateChanged})
	return mapping
}

// IsModified reports whether the field committed a value since creation.
func (c *Context) IsModified(id FieldID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modified[id]
}

// MarkAsUnmodified resets modification tracking for every field.
func (c *Context) MarkAsUnmodified() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modified = make(map[FieldID]bool)
}

// Value returns the last committed value of a field.
func (c *Context) Value(id FieldID) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values.get(id)
}

// Values returns a deep copy of the committed value tree.
func (c *Context) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values.clone()
}

// Subscribe registers fn for context events.
func (c *Context) Subscribe(fn func(Event)) *Subscription {
	if fn == nil {
		return &Subscription{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	return &Subscription{ctx: c, id: id}
}

// Subscribers reports the number of live subscriptions.
func (c *Context) Subscribers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

func (c *Context) unsubscribe(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *Context) publish(event Event) {
	c.mu.RLock()
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.subs[id])
	}
	c.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (c *Context) revalidateLocked(id FieldID) {
	var messages []string
	snapshot, seen := c.snapshots[id]
	if info, ok := c.fields[id]; ok && info.Required && (!seen || snapshot.Empty) {
		label := info.Label
		if label == "" {
			label = id.String()
		}
		messages = append(messages, fmt.Sprintf(c.requiredFormat, label))
	}
	if seen && !snapshot.Empty {
		for _, validator := range c.validators[id] {
			messages = append(messages, validator(id, snapshot.Value)...)
		}
	}
	if normalized := normalizeMessages(messages); len(normalized) > 0 {
		c.validated[id] = normalized
	} else {
		delete(c.validated, id)
	}
}

func (c *Context) messagesLocked(id FieldID) []string {
	combined := append(append([]string(nil), c.validated[id]...), c.external[id]...)
	return normalizeMessages(combined)
}

func (c *Context) hasAnyMessagesLocked() bool {
	for id := range c.validated {
		if len(c.validated[id]) > 0 {
			return true
		}
	}
	for id := range c.external {
		if len(c.external[id]) > 0 {
			return true
		}
	}
	return len(c.formValid) > 0 || len(c.formExtern) > 0
}

func (c *Context) sanitize(messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		// Markup is stripped; entities are decoded back to plain text.
		out = append(out, html.UnescapeString(c.policy.Sanitize(message)))
	}
	return out
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ctx  *Context
	id   uint64
	once sync.Once
}

// Unsubscribe stops event delivery. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.ctx == nil {
		return
	}
	s.once.Do(func() {
		s.ctx.unsubscribe(s.id)
	})
}
