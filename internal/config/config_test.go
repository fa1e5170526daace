package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	t.Setenv("TEST_DB_PASSWORD", "hunter2")

	cfg, err := Load(filepath.Join("testdata", "valid_config.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadValid(t)

	assert.Equal(t, "review-backend", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "reviews_test", cfg.Database.Database)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "review-media-test", cfg.ObjectStore.Bucket)
	assert.Equal(t, "admin@example.com", cfg.SMTP.AdminEmail)
	assert.Equal(t, 100*time.Millisecond, cfg.Worker.PollInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	cfg := loadValid(t)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "no_such_file.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "malformed_config.yaml"))
	assert.Error(t, err)
}

func TestValidateAPI(t *testing.T) {
	cfg := loadValid(t)
	require.NoError(t, cfg.ValidateAPI())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad server port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database host"},
		{"bad db port", func(c *Config) { c.Database.Port = 70000 }, "database port"},
		{"missing db user", func(c *Config) { c.Database.User = "" }, "database user"},
		{"missing db name", func(c *Config) { c.Database.Database = "" }, "database name"},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }, "redis host"},
		{"bad redis port", func(c *Config) { c.Redis.Port = -1 }, "redis port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			err := cfg.ValidateAPI()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	cfg := loadValid(t)
	require.NoError(t, cfg.ValidateBatch())

	// Batch commands need only db + redis; a missing mail or object store
	// section must not stop them.
	cfg.SMTP.Host = ""
	cfg.ObjectStore.Bucket = ""
	require.NoError(t, cfg.ValidateBatch())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing db host", func(c *Config) { c.Database.Host = "" }, "database host"},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }, "redis host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			err := cfg.ValidateBatch()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateWorker(t *testing.T) {
	cfg := loadValid(t)
	require.NoError(t, cfg.ValidateWorker())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing bucket", func(c *Config) { c.ObjectStore.Bucket = "" }, "bucket"},
		{"missing custom domain", func(c *Config) { c.ObjectStore.CustomDomain = "" }, "custom domain"},
		{"missing smtp host", func(c *Config) { c.SMTP.Host = "" }, "smtp host"},
		{"bad smtp port", func(c *Config) { c.SMTP.Port = 0 }, "smtp port"},
		{"missing redis host", func(c *Config) { c.Redis.Host = "" }, "redis host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			err := cfg.ValidateWorker()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
