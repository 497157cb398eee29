package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-inputfield/pkg/prompt"
	"github.com/spf13/cobra"
)

func newPromptCmd(a *app) *cobra.Command {
	var (
		src         formSource
		format      string
		output      string
		maxAttempts int
	)
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill a form interactively",
		Long: `Ask for every editable field of a form in the terminal. Each answer is
committed through the field, so rejected input is reported and asked again.

Examples:
  fieldctl prompt --spec signup.yaml
  fieldctl prompt --source api.yaml --operation createPerson --format pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outputFormat, ok := prompt.ParseOutputFormat(format)
			if !ok {
				return fmt.Errorf("unsupported format %q", format)
			}
			loaded, err := a.loadForm(cmd.Context(), src)
			if err != nil {
				return err
			}
			defer loaded.Close()

			driver := a.driver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.OutOrStdout())
			}
			runner := prompt.New(
				prompt.WithPromptDriver(driver),
				prompt.WithOutputFormat(outputFormat),
				prompt.WithMaxAttempts(maxAttempts),
				prompt.WithLogger(a.logger),
			)
			data, err := runner.Run(cmd.Context(), loaded.ctx, loaded.controls)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Values written to %s\n", output)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	src.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, form, pretty)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().IntVar(&maxAttempts, "max-attempts", 3, "attempts per field before giving up, 0 for unlimited")
	return cmd
}
