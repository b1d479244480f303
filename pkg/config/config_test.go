package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; blank values fall back to defaults
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "STORE_DRIVER", "MONGO_URI", "MONGO_DATABASE", "MOVIES_DATABASE",
		"MONGO_TIMEOUT", "MONGO_TLS_INSECURE", "DATA_FILE", "SNAPSHOT_INTERVAL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "project_2_db", cfg.Mongo.Database)
	assert.Equal(t, "sample_mflix", cfg.Mongo.MoviesDatabase)
	assert.Equal(t, "docpipe.snapshot", cfg.DataFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.Mongo.Timeout)
	assert.Equal(t, time.Duration(0), cfg.SnapshotInterval)
	assert.False(t, cfg.Mongo.TLSInsecure)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("STORE_DRIVER", DriverMongo)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DATABASE", "app")
	t.Setenv("MOVIES_DATABASE", "films")
	t.Setenv("MONGO_TIMEOUT", "3s")
	t.Setenv("MONGO_TLS_INSECURE", "true")
	t.Setenv("DATA_FILE", "/tmp/x.snapshot")
	t.Setenv("SNAPSHOT_INTERVAL", "1m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "app",
		MoviesDatabase: "films",
		Timeout:        3 * time.Second,
		TLSInsecure:    true,
	}, cfg.Mongo)
	assert.Equal(t, "/tmp/x.snapshot", cfg.DataFile)
	assert.Equal(t, time.Minute, cfg.SnapshotInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad timeout", map[string]string{"MONGO_TIMEOUT": "soon"}},
		{"bad interval", map[string]string{"SNAPSHOT_INTERVAL": "often"}},
		{"bad tls flag", map[string]string{"MONGO_TLS_INSECURE": "maybe"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "postgres"}},
		{"mongo without uri", map[string]string{"STORE_DRIVER": DriverMongo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+): change directory and restore it on cleanup
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
