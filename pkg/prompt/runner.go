// Package prompt drives input fields from an interactive terminal session.
// Every answer goes through the field's Focus, Input and Blur events so the
// field decides what is committed.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/form"
	"go.uber.org/zap"
)

// Runner asks for every field of a form in order.
type Runner struct {
	driver      PromptDriver
	format      OutputFormat
	theme       Theme
	maxAttempts int
	logger      *zap.Logger
}

// New constructs a Runner. Without WithPromptDriver it prompts through
// survey on the process terminal.
func New(options ...Option) *Runner {
	r := &Runner{
		format:      OutputFormatJSON,
		maxAttempts: 3,
		theme:       Theme{ErrorPrefix: "! "},
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Run prompts for every editable control, validates the form context and
// serializes the committed values in the configured format.
func (r *Runner) Run(ctx context.Context, formCtx *form.Context, controls []field.Control) ([]byte, error) {
	if formCtx == nil {
		return nil, errors.New("prompt: form context is required")
	}
	for _, control := range controls {
		if control.Disabled() || control.ReadOnly() {
			continue
		}
		if err := r.ask(ctx, control); err != nil {
			return nil, err
		}
	}

	if !formCtx.Validate() {
		if err := r.reportMessages(ctx, formCtx); err != nil {
			return nil, err
		}
		submit, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "The form has errors. Submit anyway?"})
		if err != nil {
			return nil, err
		}
		if !submit {
			return nil, ErrInvalid
		}
	}
	return Encode(r.format, formCtx, controls)
}

func (r *Runner) ask(ctx context.Context, control field.Control) error {
	label := displayLabel(control)
	cfg := InputConfig{
		Message: r.theme.PromptPrefix + label,
		Help:    helpText(control),
	}
	if control.Required() {
		cfg.Validator = func(answer string) error {
			if strings.TrimSpace(answer) == "" {
				return fmt.Errorf("%s is required", label)
			}
			return nil
		}
	}

	control.Focus()
	for attempt := 1; ; attempt++ {
		cfg.Default = control.EditText()
		answer, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return err
		}
		control.Input(answer)
		control.Blur()
		if !control.HasError() {
			r.logger.Debug("field answered",
				zap.String("field", control.FieldID().String()),
				zap.Int("attempt", attempt),
			)
			return nil
		}

		if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %v", r.theme.ErrorPrefix, label, control.LastError())); err != nil {
			return err
		}
		if r.maxAttempts > 0 && attempt >= r.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, label)
		}
		control.Focus()
	}
}

func (r *Runner) reportMessages(ctx context.Context, formCtx *form.Context) error {
	all := formCtx.AllMessages()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, message := range all[form.FieldID(id)] {
			if err := r.driver.Info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, id, message)); err != nil {
				return err
			}
		}
	}
	for _, message := range formCtx.FormMessages() {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the committed values of a form. JSON emits the nested
// value tree held by the context; the other formats emit canonical field
// text for every field the context has seen.
func Encode(format OutputFormat, formCtx *form.Context, controls []field.Control) ([]byte, error) {
	switch format {
	case OutputFormatJSON, "":
		data, err := json.MarshalIndent(formCtx.Values(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("prompt: encode json: %w", err)
		}
		return append(data, '\n'), nil

	case OutputFormatFormURLEncoded:
		values := url.Values{}
		for _, control := range controls {
			if _, ok := formCtx.Value(control.FieldID()); ok {
				values.Set(control.FieldID().String(), control.EditText())
			}
		}
		return []byte(values.Encode() + "\n"), nil

	case OutputFormatPrettyText:
		var buf bytes.Buffer
		tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		for _, control := range controls {
			status := ""
			if messages := append(formCtx.Messages(control.FieldID()), errorText(control)...); len(messages) > 0 {
				status = strings.Join(messages, "; ")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", displayLabel(control), control.Text(), status)
		}
		if err := tw.Flush(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("prompt: unsupported output format %q", format)
	}
}

func errorText(control field.Control) []string {
	if err := control.LastError(); err != nil && control.HasError() {
		return []string{err.Error()}
	}
	return nil
}

func displayLabel(control field.Control) string {
	if label := control.Label(); label != "" {
		return label
	}
	return control.FieldID().String()
}

func helpText(control field.Control) string {
	parts := []string{"type " + control.TypeTag().String()}
	if control.Required() {
		parts = append(parts, "required")
	}
	return strings.Join(parts, ", ")
}
