package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/openapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errLintFailed = errors.New("lint failed")

func newLintCmd(a *app) *cobra.Command {
	var (
		dir    string
		source string
		watch  bool
	)
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check form definitions and OpenAPI derived forms",
		Long: `Load every definition under --dir and check that it builds: names,
bindings, timings, patterns, rules, locales and type tags. With --source every
operation that has a request body is derived and checked the same way.
--watch keeps running and re-checks --dir whenever a definition changes.

Examples:
  fieldctl lint --dir forms
  fieldctl lint --source api.yaml
  fieldctl lint --dir forms --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" && source == "" {
				return errors.New("one of --dir or --source is required")
			}
			builder := fieldspec.NewBuilder(fieldspec.WithLogger(a.logger))
			out := cmd.OutOrStdout()
			failed := false

			if source != "" {
				ok, err := lintOpenAPI(cmd.Context(), a, builder, source, out)
				if err != nil {
					return err
				}
				failed = failed || !ok
			}
			if dir == "" {
				return lintResult(failed)
			}

			if !watch {
				store, err := fieldspec.LoadFS(os.DirFS(dir))
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", dir, err)
					return errLintFailed
				}
				failed = !lintStore(builder, store, out) || failed
				return lintResult(failed)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			w, err := fieldspec.NewWatcher(dir, func(store *fieldspec.Store, err error) {
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", dir, err)
					return
				}
				lintStore(builder, store, out)
			}, fieldspec.WithWatchLogger(a.logger))
			if err != nil {
				return err
			}
			lintStore(builder, w.Store(), out)
			a.logger.Info("watching definitions", zap.String("dir", dir))
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory of form definitions")
	cmd.Flags().StringVar(&source, "source", "", "OpenAPI document path or URL")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-check --dir on every change")
	return cmd
}

func lintResult(failed bool) error {
	if failed {
		return errLintFailed
	}
	return nil
}

func lintStore(builder *fieldspec.Builder, store *fieldspec.Store, out io.Writer) bool {
	ok := true
	for _, name := range store.Names() {
		spec, _ := store.Form(name)
		ok = report(out, name, builder.Validate(spec)) && ok
	}
	return ok
}

func lintOpenAPI(ctx context.Context, a *app, builder *fieldspec.Builder, source string, out io.Writer) (bool, error) {
	doc, err := a.openapiLoader(formSource{timeout: defaultTimeout}).Load(ctx, source)
	if err != nil {
		return false, err
	}
	ok := true
	for _, op := range openapi.Operations(doc) {
		if op.Schema == nil {
			continue
		}
		spec, err := openapi.FormFromOperation(op)
		if err == nil {
			err = builder.Validate(spec)
		}
		ok = report(out, op.ID, err) && ok
	}
	return ok, nil
}

func report(out io.Writer, name string, err error) bool {
	if err != nil {
		fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
		return false
	}
	fmt.Fprintf(out, "ok   %s\n", name)
	return true
}
