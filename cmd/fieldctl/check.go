package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errFormInvalid = errors.New("form is invalid")

type fieldReport struct {
	Name     string   `json:"name"`
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	State    string   `json:"state"`
	Error    string   `json:"error,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

type checkReport struct {
	Form         string         `json:"form"`
	Valid        bool           `json:"valid"`
	Fields       []fieldReport  `json:"fields"`
	FormMessages []string       `json:"formMessages,omitempty"`
	Values       map[string]any `json:"values"`
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		src          formSource
		assignments  []string
		serverErrors string
		format       string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Commit scripted input and report field state",
		Long: `Type each --set value into its field, blur it and report the resulting
state, committed values and validation messages. Server side error payloads
can be merged with --errors. Exits non-zero when the form is invalid.

Examples:
  fieldctl check --spec signup.yaml --set email=ada@example.com --set age=42
  fieldctl check --spec signup.yaml --set age=12 --errors errors.json --format pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "pretty" {
				return fmt.Errorf("unsupported format %q", format)
			}
			loaded, err := a.loadForm(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer loaded.Close()

			for _, assignment := range assignments {
				name, value, ok := strings.Cut(assignment, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, expected name=value", assignment)
				}
				control, found := loaded.control(name)
				if !found {
					return fmt.Errorf("form %s has no field %q", loaded.spec.Name, name)
				}
				control.Focus()
				control.Input(value)
				control.Blur()
				a.logger.Debug("input committed",
					zap.String("field", name),
					zap.Stringer("state", control.State()),
				)
			}

			report := checkReport{Form: loaded.spec.Name}
			report.Valid = loaded.ctx.Validate()
			if serverErrors != "" {
				payload, err := readErrorPayload(serverErrors)
				if err != nil {
					return err
				}
				loaded.ctx.ApplyErrorPayload(payload)
				report.Valid = report.Valid && !hasAnyMessages(loaded)
			}

			for idx, control := range loaded.controls {
				fr := fieldReport{
					Name:     loaded.spec.Fields[idx].Name,
					ID:       control.FieldID().String(),
					Type:     control.TypeTag().String(),
					Text:     control.Text(),
					State:    control.State().String(),
					Messages: control.Messages(),
				}
				if control.HasError() {
					report.Valid = false
					fr.Kind = control.ErrorKind().String()
					if err := control.LastError(); err != nil {
						fr.Error = err.Error()
					}
				}
				report.Fields = append(report.Fields, fr)
			}
			report.FormMessages = loaded.ctx.FormMessages()
			report.Values = loaded.ctx.Values()

			if err := writeReport(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if !report.Valid {
				return errFormInvalid
			}
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringArrayVar(&assignments, "set", nil, "field input as name=value, repeatable")
	cmd.Flags().StringVar(&serverErrors, "errors", "", "JSON file with a server error payload to merge")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, pretty)")
	return cmd
}

func hasAnyMessages(loaded *loadedForm) bool {
	return len(loaded.ctx.AllMessages()) > 0 || len(loaded.ctx.FormMessages()) > 0
}

func readErrorPayload(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read error payload: %w", err)
	}
	var payload map[string][]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode error payload %s: %w", path, err)
	}
	return payload, nil
}

func writeReport(out io.Writer, format string, report checkReport) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, fr := range report.Fields {
		notes := append([]string(nil), fr.Messages...)
		if fr.Error != "" {
			notes = append([]string{fr.Error}, notes...)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", fr.Name, fr.State, fr.Text, strings.Join(notes, "; "))
	}
	for _, message := range report.FormMessages {
		fmt.Fprintf(tw, "(form)\t\t\t%s\n", message)
	}
	status := "valid"
	if !report.Valid {
		status = "invalid"
	}
	fmt.Fprintf(tw, "\nform %s is %s\n", report.Form, status)
	return tw.Flush()
}
