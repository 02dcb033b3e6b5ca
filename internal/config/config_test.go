package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperror "github.com/bravo68web/repolens/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repolens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "./repolens.db", cfg.Database.DSN())
	assert.Equal(t, 4, cfg.Scan.MaxDepth)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 30, cfg.Scan.CommitWindowDays)
	assert.Equal(t, DefaultIgnorePatterns, cfg.Scan.Ignore)
	assert.Equal(t, time.Minute, cfg.Scan.RepoTimeout())
	assert.Nil(t, cfg.Scan.IdentityHint())
	assert.False(t, cfg.AI.IsConfigured())
	assert.False(t, cfg.Logging.LoggerOutputIsFile())
	assert.False(t, cfg.OTel.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTel.Endpoint)
	assert.Equal(t, 5, cfg.OTel.BatchTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgres
  host: db.internal
  dbname: projects
scan:
  root: /src
  identity: alice
  ignore: [node_modules, "**/tmp"]
ai:
  enabled: true
logging:
  output_path: /var/log/repolens.log
otel:
  enabled: true
  endpoint: collector:4318
  use_http: true
`)
	t.Setenv("REPOLENS_SCAN_MAX_DEPTH", "6")
	t.Setenv("REPOLENS_DB_PASSWORD", "s3cret")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Database.IsPostgres())
	assert.Equal(t, "host=db.internal port=5432 user=repolens password=s3cret dbname=projects sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "/src", cfg.Scan.Root)
	assert.Equal(t, 6, cfg.Scan.MaxDepth)
	assert.Equal(t, []string{"node_modules", "**/tmp"}, cfg.Scan.Ignore)
	require.NotNil(t, cfg.Scan.IdentityHint())
	assert.Equal(t, "alice", *cfg.Scan.IdentityHint())
	assert.True(t, cfg.AI.IsConfigured())
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.True(t, cfg.Logging.LoggerOutputIsFile())
	assert.True(t, cfg.OTel.Enabled)
	assert.True(t, cfg.OTel.UseHTTP)
	assert.Equal(t, "collector:4318", cfg.OTel.Endpoint)
	assert.Equal(t, "repolens", cfg.OTel.ServiceName)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, apperror.ErrConfigError)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "database:\n  driver: mysql\n", "invalid database driver: mysql"},
		{"negative cutoff", "scan:\n  cutoff_days: -1\n", "scan cutoff_days must not be negative, got -1"},
		{"zero depth", "scan:\n  max_depth: 0\n", "scan max_depth must be at least 1, got 0"},
		{"zero workers", "scan:\n  workers: 0\n", "scan workers must be at least 1, got 0"},
		{"otel without endpoint", "otel:\n  enabled: true\n  endpoint: \"\"\n", "otel endpoint is required when otel is enabled"},
		{"postgres without host", "database:\n  driver: postgres\n  host: \"\"\n", "database host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrConfigError)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
