package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5, cfg.DBConnectRetries)
	assert.Equal(t, 5*time.Second, cfg.DBConnectBackoff)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.False(t, cfg.UploadsPublic)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_CONNECT_BACKOFF", "250ms")
	t.Setenv("SERVER_URL", "https://docs.example.com/")
	t.Setenv("UPLOADS_PUBLIC", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.DBConnectBackoff)
	assert.Equal(t, "https://docs.example.com", cfg.ServerURL)
	assert.True(t, cfg.UploadsPublic)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown db driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "unknown storage driver", env: map[string]string{"STORAGE_DRIVER": "ftp"}},
		{name: "s3 without bucket", env: map[string]string{"STORAGE_DRIVER": "s3"}},
		{name: "production with default secret", env: map[string]string{"ENVIRONMENT": "production"}},
		{name: "zero upload size", env: map[string]string{"MAX_UPLOAD_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
