package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content map[string]interface{}) string {
	t.Helper()
	data, err := yaml.Marshal(content)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func minimalConfig() map[string]interface{} {
	return map[string]interface{}{
		"database": map[string]interface{}{
			"postgres": map[string]interface{}{
				"host":     "localhost",
				"database": "officecal",
				"user":     "officecal",
			},
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig()))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Environment)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.True(t, cfg.Database.Postgres.RunMigrations)
	assert.False(t, cfg.Database.Redis.Enabled)
	assert.Equal(t, 100, cfg.Calendar.DefaultRemoteLimit)
	assert.Equal(t, 300, cfg.Calendar.CacheTTL)
	assert.Equal(t, "/metrics", cfg.Metrics.Prometheus.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FileValues(t *testing.T) {
	content := minimalConfig()
	content["server"] = map[string]interface{}{"port": 9090, "environment": "production"}
	content["calendar"] = map[string]interface{}{"default_remote_limit": 50, "seed_demo_data": true}

	cfg, err := Load(writeConfigFile(t, content))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "production", cfg.Server.Environment)
	assert.Equal(t, 50, cfg.Calendar.DefaultRemoteLimit)
	assert.True(t, cfg.Calendar.SeedDemoData)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfigFile(t, minimalConfig()))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Database.Postgres.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"missing postgres host", func(m map[string]interface{}) {
			pg := m["database"].(map[string]interface{})["postgres"].(map[string]interface{})
			delete(pg, "host")
		}},
		{"missing postgres database", func(m map[string]interface{}) {
			pg := m["database"].(map[string]interface{})["postgres"].(map[string]interface{})
			delete(pg, "database")
		}},
		{"redis enabled without host", func(m map[string]interface{}) {
			m["database"].(map[string]interface{})["redis"] = map[string]interface{}{"enabled": true}
		}},
		{"negative remote limit", func(m map[string]interface{}) {
			m["calendar"] = map[string]interface{}{"default_remote_limit": -1}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := minimalConfig()
			tt.mutate(content)
			_, err := Load(writeConfigFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
