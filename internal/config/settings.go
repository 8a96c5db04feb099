package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/felixgeelhaar/wiggum/internal/errors"
)

// EnvPrefix is prepended to every process setting read from the environment,
// e.g. WIGGUM_RUNNER_PARALLEL.
const EnvPrefix = "WIGGUM_RUNNER"

const (
	DefaultParallel            = 1
	DefaultInferImportMaxFiles = 400
)

// Settings are process-level knobs that come from the environment and may be
// overridden by command-line flags.
type Settings struct {
	Parallel            int
	InferImportMaxFiles int
	NonInteractive      bool
	LogLevel            string
	LogFormat           string
}

// LoadSettings reads WIGGUM_RUNNER_* variables.
func LoadSettings() (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("parallel", strconv.Itoa(DefaultParallel))
	v.SetDefault("infer_import_max_files", strconv.Itoa(DefaultInferImportMaxFiles))
	v.SetDefault("non_interactive", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	parallel, err := positiveInt(v, "parallel")
	if err != nil {
		return Settings{}, err
	}
	maxFiles, err := positiveInt(v, "infer_import_max_files")
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Parallel:            parallel,
		InferImportMaxFiles: maxFiles,
		NonInteractive:      v.GetBool("non_interactive"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
	}, nil
}

func positiveInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := ParsePositiveInt(raw)
	if err != nil {
		envName := EnvPrefix + "_" + strings.ToUpper(key)
		return 0, errors.Wrap(errors.ErrCodeConfigSetting, fmt.Sprintf("invalid %s", envName), err).
			WithSuggestion(fmt.Sprintf("Set %s to a positive integer", envName))
	}
	return n, nil
}

// ParsePositiveInt parses s as an integer greater than zero.
func ParsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}
