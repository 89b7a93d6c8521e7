package configutil

import (
	"github.com/caarlos0/env/v6"
)

// ApplyEnv overrides the fields of cfg tagged with `env:"..."` by the
// environment variables that are set. Unset variables leave the file values
// in place.
func ApplyEnv[T any](cfg *T) error {
	return env.Parse(cfg)
}

// ApplyEnvFrom is ApplyEnv reading from a fixed environment instead of the
// process one.
func ApplyEnvFrom[T any](cfg *T, environment map[string]string) error {
	return env.Parse(cfg, env.Options{Environment: environment})
}
