package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/transcript-recon/internal/common"
)

func newViper() *viper.Viper {
	v := viper.New()
	Defaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "pdftotext", cfg.Extractor.Command)
	assert.Equal(t, []string{"-layout", "{input}", "-"}, cfg.Extractor.Args)
	assert.Equal(t, 2, cfg.Extractor.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, 0.8, cfg.Analysis.NameThreshold)
	assert.Equal(t, 4, cfg.Analysis.MaxConcurrency)
	assert.Equal(t, 365, cfg.Analysis.LookaheadDays)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodyBytes)
	assert.NotContains(t, cfg.Database.Path, "~")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: json
database:
  path: ` + filepath.Join(dir, "sessions.db") + `
analysis:
  materiality_threshold: 25
  max_concurrency: 2
tax:
  charitable_agi_cap: 0.5
extractor:
  command: mutool
  args: ["draw", "-F", "txt", "{input}"]
  max_attempts: 4
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	v := newViper()
	require.NoError(t, Read(v, file))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(dir, "sessions.db"), cfg.Database.Path)
	assert.Equal(t, "mutool", cfg.Extractor.Command)
	assert.Equal(t, []string{"draw", "-F", "txt", "{input}"}, cfg.Extractor.Args)

	opts := cfg.AnalysisOptions()
	assert.Equal(t, 25.0, opts.Materiality)
	assert.Equal(t, 2, opts.MaxConcurrency)
	assert.Equal(t, 0.5, opts.Tax.CharitableAGICap)

	retry := cfg.Extractor.Retry()
	assert.Equal(t, 4, retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, retry.InitialDelay)
}

func TestReadMissingExplicitFile(t *testing.T) {
	err := Read(newViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("RECON_SERVER_ADDR", "0.0.0.0:9999")
	t.Setenv("RECON_LOGGING_LEVEL", "warn")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		message string
	}{
		{"bad log level", "logging.level", "loud", "logging.level must be one of"},
		{"bad log format", "logging.format", "xml", "logging.format must be one of"},
		{"empty database path", "database.path", "", "database.path is required"},
		{"zero attempts", "extractor.max_attempts", 0, "extractor.max_attempts must be >= 1"},
		{"similarity above one", "analysis.name_similarity_threshold", 1.5, "analysis.name_similarity_threshold must be <= 1"},
		{"negative materiality", "analysis.materiality_threshold", -1.0, "analysis.materiality_threshold must be >= 0"},
		{"charitable cap above one", "tax.charitable_agi_cap", 2.0, "tax.charitable_agi_cap must be <= 1"},
		{"empty server addr", "server.addr", "", "server.addr is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RECON_TEST_DIR", "/srv/recon")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{":memory:", ":memory:"},
		{"~", home},
		{"~/data/recon.db", filepath.Join(home, "data", "recon.db")},
		{"$RECON_TEST_DIR/recon.db", "/srv/recon/recon.db"},
		{"/abs/path.db", "/abs/path.db"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}
