package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "s3cret")
	path := writeConfig(t, `
database:
  host: localhost
  name: tours
auth:
  jwt_secret: ${TEST_JWT_SECRET}
kafka:
  brokers: ["localhost:9092"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.ResetCodeTTL)
	assert.Equal(t, "local", cfg.Realtime.Broker)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user= password= dbname=tours sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_Errors(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		expectedErr string
	}{
		{
			name:        "missing jwt secret",
			body:        "database:\n  name: tours\n",
			expectedErr: "auth.jwt_secret is required",
		},
		{
			name:        "missing database name",
			body:        "auth:\n  jwt_secret: x\n",
			expectedErr: "database.name is required",
		},
		{
			name:        "nats without url",
			body:        "auth:\n  jwt_secret: x\ndatabase:\n  name: tours\nrealtime:\n  broker: nats\n",
			expectedErr: "realtime.nats_url is required for the nats broker",
		},
		{
			name:        "unknown broker",
			body:        "auth:\n  jwt_secret: x\ndatabase:\n  name: tours\nrealtime:\n  broker: kafka\n",
			expectedErr: `unknown realtime broker "kafka"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			assert.EqualError(t, err, tc.expectedErr)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}
