package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goliatone/go-inputfield/pkg/field"
	"github.com/goliatone/go-inputfield/pkg/fieldspec"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/openapi"
	"github.com/goliatone/go-inputfield/pkg/prompt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultTimeout = 10 * time.Second

// app carries state shared by every command. Tests replace the driver.
type app struct {
	cfgFile  string
	logLevel string
	logger   *zap.Logger
	driver   prompt.PromptDriver
}

// formSource selects where a form definition comes from: a field spec file
// or an OpenAPI operation.
type formSource struct {
	spec      string
	source    string
	operation string
	timeout   time.Duration
}

func (s *formSource) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.spec, "spec", "", "form definition file (yaml or json)")
	cmd.Flags().StringVar(&s.source, "source", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&s.operation, "operation", "", "OpenAPI operation id")
	cmd.Flags().DurationVar(&s.timeout, "timeout", defaultTimeout, "timeout for remote OpenAPI documents")
	cmd.MarkFlagsMutuallyExclusive("spec", "source")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldctl",
		Short:         "Drive typed input fields from form definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyConfig(cmd, a.cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(a.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .fieldctl.yaml, can also use FIELDCTL_CONFIG_FILE)")
	root.PersistentFlags().StringVarP(&a.logLevel, "log-level", "l", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newPromptCmd(a), newCheckCmd(a), newOpenAPICmd(a), newLintCmd(a))
	return root
}

func newLogger(level string, out io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(out), lvl)
	return zap.New(core), nil
}

// loadedForm is a built form ready to be driven.
type loadedForm struct {
	spec     fieldspec.FormSpec
	ctx      *form.Context
	controls []field.Control
}

func (f *loadedForm) Close() {
	for _, c := range f.controls {
		c.Close()
	}
}

func (f *loadedForm) control(name string) (field.Control, bool) {
	for idx, fs := range f.spec.Fields {
		if fs.Name == name {
			return f.controls[idx], true
		}
	}
	return nil, false
}

func (a *app) loadForm(ctx context.Context, src formSource) (*loadedForm, error) {
	formCtx := form.NewContext(form.WithLogger(a.logger))

	var spec fieldspec.FormSpec
	switch {
	case src.spec != "":
		loaded, err := fieldspec.Load(src.spec)
		if err != nil {
			return nil, err
		}
		spec = loaded
	case src.source != "":
		if src.operation == "" {
			return nil, errors.New("--operation is required with --source")
		}
		op, err := a.openapiLoader(src).Operation(ctx, src.source, src.operation)
		if err != nil {
			return nil, err
		}
		derived, err := openapi.FormFromOperation(op)
		if err != nil {
			return nil, err
		}
		n := openapi.ValidatorsFor(formCtx, op.Schema)
		a.logger.Debug("schema validators registered", zap.String("operation", op.ID), zap.Int("count", n))
		spec = derived
	default:
		return nil, errors.New("one of --spec or --source is required")
	}

	controls, err := fieldspec.NewBuilder(fieldspec.WithLogger(a.logger)).Build(formCtx, spec)
	if err != nil {
		return nil, err
	}
	return &loadedForm{spec: spec, ctx: formCtx, controls: controls}, nil
}

func (a *app) openapiLoader(src formSource) *openapi.Loader {
	return openapi.NewLoader(
		openapi.WithLogger(a.logger),
		openapi.WithHTTPFallback(src.timeout),
	)
}
