package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// applyConfig fills every flag the user did not set from, in order of
// precedence, FIELDCTL_* environment variables and the config file.
//
// The config file is the --config flag, then FIELDCTL_CONFIG_FILE, then
// .fieldctl.yaml in the working directory. A missing default file is not an
// error.
func applyConfig(cmd *cobra.Command, cfgFile string) error {
	v := viper.New()
	explicit := true
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv("FIELDCTL_CONFIG_FILE") != "":
		v.SetConfigFile(os.Getenv("FIELDCTL_CONFIG_FILE"))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".fieldctl")
	}

	v.SetEnvPrefix("FIELDCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" || !v.IsSet(f.Name) {
			return
		}
		value := v.Get(f.Name)
		if list, ok := value.([]any); ok {
			for _, item := range list {
				if err := cmd.Flags().Set(f.Name, fmt.Sprint(item)); err != nil {
					errs = append(errs, fmt.Errorf("config %s: %w", f.Name, err))
				}
			}
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprint(value)); err != nil {
			errs = append(errs, fmt.Errorf("config %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}
