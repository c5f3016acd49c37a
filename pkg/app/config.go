package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

const (
	configFlagName = "config"

	// EnvPrefix is prepended to every environment override, e.g.
	// CANPUB_MQTT_BROKER for --mqtt.broker.
	EnvPrefix = "CANPUB"
)

// loadDotEnv loads .env from the working directory. A missing file is fine.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// newViper returns a viper instance reading cfgFile (optional) and the
// environment.
func newViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		return v, nil
	}

	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
	}
	return v, nil
}

// applyConfig copies values from v onto every flag the user did not set on the
// command line. Flags keep precedence over the environment, which keeps
// precedence over the config file.
func applyConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == configFlagName || !v.IsSet(f.Name) {
			return
		}

		if err := setFlag(f, v.Get(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
		}
	})

	return utilerrors.NewAggregate(errs)
}

func setFlag(f *pflag.Flag, val any) error {
	items, isList := val.([]any)
	if !isList {
		if s, ok := val.(string); ok {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				return sv.Replace(strings.Split(s, ","))
			}
		}
		return f.Value.Set(fmt.Sprint(val))
	}

	strs := make([]string, len(items))
	for i, item := range items {
		strs[i] = fmt.Sprint(item)
	}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.Replace(strs)
	}
	return f.Value.Set(strings.Join(strs, ","))
}
