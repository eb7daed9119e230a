// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func validConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			SecretKey:                "0123456789abcdef",
			Algorithm:                "HS256",
			AccessTokenExpireMinutes: 300,
			ResetTokenExpireMinutes:  60,
			BcryptCost:               10,
		},
		Mail: MailConfig{
			Server: "smtp.example.com",
			From:   "noreply@example.com",
		},
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"app.localhost", true},
		{"example.com", false},
		{"localhost.com", false}, // not a real localhost
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name:     "default port hidden",
			cfg:      &Config{Server: ServerConfig{Host: "example.com", Port: 80}},
			expected: "http://example.com/",
		},
		{
			name:     "custom port",
			cfg:      &Config{Server: ServerConfig{Host: "localhost", Port: 8000}},
			expected: "http://localhost:8000/",
		},
		{
			name:     "empty host",
			cfg:      &Config{Server: ServerConfig{Port: 9000}},
			expected: "http://localhost:9000/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://example.com/", normalizeBaseURL("https://example.com"))
	assert.Equal(t, "https://example.com/app/", normalizeBaseURL("https://example.com/app/"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		message string
	}{
		{"missing secret", func(c *Config) { c.Auth.SecretKey = "" }, "secret key is required"},
		{"bad algorithm", func(c *Config) { c.Auth.Algorithm = "RS256" }, "unsupported signing algorithm"},
		{"zero access ttl", func(c *Config) { c.Auth.AccessTokenExpireMinutes = 0 }, "access token expiry"},
		{"negative reset ttl", func(c *Config) { c.Auth.ResetTokenExpireMinutes = -1 }, "reset token expiry"},
		{"bcrypt cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, "bcrypt cost"},
		{"missing mail server", func(c *Config) { c.Mail.Server = "" }, "mail server is required"},
		{"missing mail from", func(c *Config) { c.Mail.From = "" }, "mail from address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestAuthConfig_TTLs(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 300*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, time.Hour, cfg.Auth.ResetCodeTTL())
}

func TestFlags(t *testing.T) {
	flags := Flags()

	assert.NotEmpty(t, flags)

	flagNames := make(map[string]bool)
	for _, f := range flags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"host", "port", "base-url", "log-level", "database-url",
		"secret-key", "algorithm", "access-token-expire-minutes",
		"reset-token-expire-minutes", "bcrypt-cost", "mail-server", "mail-from",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.NotNil(t, cfg)
			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8000, cfg.Server.Port)
			assert.Equal(t, "http://localhost:8000/", cfg.Server.BaseURL)
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, "HS256", cfg.Auth.Algorithm)
			assert.Equal(t, 300, cfg.Auth.AccessTokenExpireMinutes)
			assert.Equal(t, 60, cfg.Auth.ResetTokenExpireMinutes)
			assert.Equal(t, 1025, cfg.Mail.Port)

			// No secret key or mail server by default
			assert.Error(t, cfg.Validate())

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://example.com/", cfg.Server.BaseURL)
			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "./data/test.db", cfg.Database.URL)
			assert.Equal(t, "HS512", cfg.Auth.Algorithm)
			assert.Equal(t, 15, cfg.Auth.ResetTokenExpireMinutes)
			assert.NoError(t, cfg.Validate())

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://example.com",
		"--log-level", "debug",
		"--database-url", "./data/test.db",
		"--secret-key", "s3cr3t",
		"--algorithm", "hs512",
		"--reset-token-expire-minutes", "15",
		"--mail-server", "smtp.example.com",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
