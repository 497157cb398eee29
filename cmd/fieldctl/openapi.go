package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/openapi"
	"github.com/spf13/cobra"
)

func newOpenAPICmd(a *app) *cobra.Command {
	var (
		src        formSource
		schemaFile string
		name       string
	)
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Derive a form definition from an OpenAPI operation",
		Long: `Print the form definition derived from an operation's request body.
Without --operation the operations of the document are listed. --schema
derives the form from a standalone object schema instead.

Examples:
  fieldctl openapi --source api.yaml
  fieldctl openapi --source api.yaml --operation createPerson > person.yaml
  fieldctl openapi --schema contact.schema.yaml --name contact`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if schemaFile != "" {
				spec, err := openapi.FormFromSchemaFile(schemaFile, name)
				if err != nil {
					return err
				}
				return writeSpec(cmd, spec)
			}
			if src.source == "" {
				return fmt.Errorf("--source or --schema is required")
			}
			loader := a.openapiLoader(src)

			if src.operation == "" {
				doc, err := loader.Load(cmd.Context(), src.source)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, op := range openapi.Operations(doc) {
					body := "-"
					if op.Schema != nil {
						body = "body"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.ID, op.Method, op.Path, body)
				}
				return tw.Flush()
			}

			op, err := loader.Operation(cmd.Context(), src.source, src.operation)
			if err != nil {
				return err
			}
			spec, err := openapi.FormFromOperation(op)
			if err != nil {
				return err
			}
			return writeSpec(cmd, spec)
		},
	}
	cmd.Flags().StringVar(&src.source, "source", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&src.operation, "operation", "", "operation id")
	cmd.Flags().DurationVar(&src.timeout, "timeout", defaultTimeout, "timeout for remote documents")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "standalone object schema file (json or yaml)")
	cmd.Flags().StringVar(&name, "name", "", "form name for --schema, defaults to the schema title")
	cmd.MarkFlagsMutuallyExclusive("source", "schema")
	return cmd
}

func writeSpec(cmd *cobra.Command, spec fieldspec.FormSpec) error {
	data, err := fieldspec.Encode(spec)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
