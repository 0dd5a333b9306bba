package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/splice/internal/logging"
)

// configBindings maps flag names onto configuration keys.
var configBindings = map[string]string{
	"root":       "fragments.root",
	"template":   "fragments.root_template",
	"output":     "output.path",
	"max-depth":  "build.max_depth",
	"debounce":   "watch.debounce",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// SetViperBindings binds every flag present in fs to its configuration key.
// Flags that were not set on the command line fall back to the configuration
// file, the environment and then the defaults.
func SetViperBindings(fs *pflag.FlagSet, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		flag := fs.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", flagName, err)
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(fs *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := fs.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateLogLevel rejects unknown log level names.
func ValidateLogLevel(level string) error {
	_, err := logging.ParseLevel(level)
	return err
}

// ValidateLogFormat accepts "text" and "json".
func ValidateLogFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format %q (supported: text, json)", format)
	}
}
