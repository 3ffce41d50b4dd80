package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return Load(viper.New(), fs)
}

func noDotenv() string {
	return "--" + KeyEnvFile + "="
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, noDotenv())
	require.NoError(t, err)

	assert.Empty(t, cfg.Filename)
	assert.Empty(t, cfg.Webhook)
	assert.Empty(t, cfg.Pause)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.NoTUI)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := load(t, noDotenv(),
		"--filename", "rows.csv",
		"--webhook", "https://example.com/hook",
		"--pause", "1.5",
		"--timeout", "5s",
		"--log-level", "debug",
		"--no-tui",
	)
	require.NoError(t, err)

	assert.Equal(t, "rows.csv", cfg.Filename)
	assert.Equal(t, "https://example.com/hook", cfg.Webhook)
	assert.Equal(t, "1.5", cfg.Pause)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NoTUI)
}

func TestLoad_EnvironmentAndPrecedence(t *testing.T) {
	t.Setenv("FILEUPLOADER_WEBHOOK", "https://env.example.com/hook")
	t.Setenv("FILEUPLOADER_PAUSE", "2")
	t.Setenv("FILEUPLOADER_LOG_FORMAT", "json")

	cfg, err := load(t, noDotenv(), "--pause", "0")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/hook", cfg.Webhook)
	assert.Equal(t, "0", cfg.Pause)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Dotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "uploader.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FILEUPLOADER_FILENAME=from-dotenv.csv\n"), 0o600))
	t.Setenv("FILEUPLOADER_FILENAME", "")
	os.Unsetenv("FILEUPLOADER_FILENAME")

	cfg, err := load(t, "--env-file", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.csv", cfg.Filename)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	_, err := load(t, "--env-file", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Negative timeout", []string{"--timeout", "-1s"}},
		{"Unknown log format", []string{"--log-format", "xml"}},
		{"Unknown log level", []string{"--log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, append([]string{noDotenv()}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}
