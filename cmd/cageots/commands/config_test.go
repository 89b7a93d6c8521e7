package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		login: "alice@example.com",
		password: "from-file",
		variant: "legacy",
		parameters: {region: "dijon"},
		database: {file: ":memory:"},
	}`), 0600)
	require.NoError(t, err)

	cfg, err := loadConfig(path, map[string]string{
		"CAGEOTS_PASSWORD": "from-env",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", cfg.Login)
	require.Equal(t, "from-env", cfg.Password)
	require.Equal(t, map[string]string{"region": "dijon"}, cfg.Parameters)
	require.Equal(t, "legacy", cfg.variant().Name)
	require.Equal(t, ":memory:", cfg.Database.File)
	require.Equal(t, 2.0, cfg.RequestsPerSecond)
	require.Equal(t, "invoices", cfg.FilesDir)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.json5"), map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "current", cfg.variant().Name)
	require.Equal(t, "cageots.db", cfg.Database.File)

	cfg, err = loadConfig(filepath.Join(t.TempDir(), "missing.json5"), map[string]string{
		"CAGEOTS_DB_URL": "libsql://bills.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "", cfg.Database.File)
	require.Equal(t, "libsql://bills.example.com", cfg.Database.Url)
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json5"), map[string]string{
		"CAGEOTS_VARIANT": "ancient",
	})
	require.ErrorContains(t, err, "Variant")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json5"), map[string]string{
		"CAGEOTS_BASE_URL": "not a url",
	})
	require.ErrorContains(t, err, "BaseUrl")
}
