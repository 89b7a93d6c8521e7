package commands

import (
	"cageots-konnector/internal/scrapers/cageots"
	"cageots-konnector/lib/configutil"
	configlibsql "cageots-konnector/lib/configutil/libsql"
	"fmt"
	"os"
)

type Config struct {
	Login    string `json:"login" env:"CAGEOTS_LOGIN"`
	Password string `json:"password" env:"CAGEOTS_PASSWORD"`
	// Parameters are opaque vendor specific settings handed to the run.
	Parameters map[string]string `json:"parameters"`

	Variant           string  `json:"variant" env:"CAGEOTS_VARIANT" validate:"omitempty,oneof=current legacy"`
	BaseUrl           string  `json:"base_url" env:"CAGEOTS_BASE_URL" validate:"omitempty,url"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gte=0"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`

	FilesDir string              `json:"files_dir" env:"CAGEOTS_FILES_DIR" validate:"required"`
	Database configlibsql.Struct `json:"database"`
}

func defaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		FilesDir:          "invoices",
		Database: configlibsql.Struct{
			File: "cageots.db",
		},
	}
}

// loadConfig reads path (and its .local override) if it exists, overlays the
// environment, then fills in defaults for what is still unset.
func loadConfig(path string, environment map[string]string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if environment == nil {
		err = configutil.ApplyEnv(&cfg)
	} else {
		err = configutil.ApplyEnvFrom(&cfg, environment)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	defaults := defaultConfig()
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if cfg.FilesDir == "" {
		cfg.FilesDir = defaults.FilesDir
	}
	if cfg.Database.File == "" && cfg.Database.Url == "" {
		cfg.Database.File = defaults.Database.File
	}

	err = configutil.Validate(cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) variant() cageots.Variant {
	variant, ok := cageots.VariantByName(c.Variant)
	if !ok {
		return cageots.VariantCurrent
	}
	return variant
}
