package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, "Authentication", cfg.AuthCookieName)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, EventsDriverLog, cfg.EventsDriver)
	assert.Equal(t, 10, cfg.LoginMaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.LoginFailureWindow)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_EXPIRES_IN", "30m")
	t.Setenv("EVENTS_DRIVER", " Redis ")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOGIN_MAX_FAILURES", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, EventsDriverRedis, cfg.EventsDriver)
	assert.Equal(t, 3, cfg.LoginMaxFailures)
}

func TestLoadConfig_LoginLimiterDisabled(t *testing.T) {
	t.Setenv("LOGIN_MAX_FAILURES", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.LoginMaxFailures)
}

func TestLoadConfig_InvalidCombinations(t *testing.T) {
	cases := map[string]map[string]string{
		"redis without addr": {"EVENTS_DRIVER": "redis", "REDIS_ADDR": ""},
		"amqp without url":   {"EVENTS_DRIVER": "amqp", "AMQP_URL": ""},
		"unknown driver":     {"EVENTS_DRIVER": "kafka"},
		"bad duration":       {"JWT_EXPIRES_IN": "soon"},
		"negative duration":  {"JWT_EXPIRES_IN": "-1m"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
