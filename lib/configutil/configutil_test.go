package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name" env:"TEST_NAME" validate:"required"`
	Port    int               `json:"port" env:"TEST_PORT" validate:"gte=1,lte=65535"`
	Mode    string            `json:"mode" validate:"omitempty,oneof=fast slow"`
	Headers map[string]string `json:"headers"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments and trailing commas are fine
		name: "cageots",
		port: 8080,
		headers: {a: "1"},
	}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Name:    "cageots",
		Port:    8080,
		Headers: map[string]string{"a": "1"},
	}, cfg)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{port: 9090, mode: "slow"}`)

	cfg, err = ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "cageots", cfg.Name)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "slow", cfg.Mode)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{name: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestApplyEnvFrom(t *testing.T) {
	cfg := testConfig{Name: "from-file", Port: 1}

	err := ApplyEnvFrom(&cfg, map[string]string{"TEST_PORT": "4000"})
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.Name)
	require.Equal(t, 4000, cfg.Port)

	err = ApplyEnvFrom(&cfg, map[string]string{"TEST_PORT": "not-a-number"})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(testConfig{Name: "ok", Port: 80}))

	err := Validate(testConfig{Port: 0, Mode: "medium"})
	require.ErrorContains(t, err, "invalid config")
	require.ErrorContains(t, err, "testConfig.Name: failed 'required'")
	require.ErrorContains(t, err, "testConfig.Port: failed 'gte'")
	require.ErrorContains(t, err, "testConfig.Mode: failed 'oneof'")
}
