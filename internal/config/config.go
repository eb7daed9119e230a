// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
)

var configFile = altsrc.StringSourcer("config.toml")

// SupportedAlgorithms lists the HMAC signing algorithms accepted for tokens.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string // always ends with a slash
	MaxBodySize int    // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	URL string // SQLite path or postgres:// URL
}

type AuthConfig struct { //nolint:govet // fieldalignment not critical for config structs
	SecretKey                string
	Algorithm                string
	AccessTokenExpireMinutes int
	ResetTokenExpireMinutes  int
	BcryptCost               int
}

// AccessTokenTTL returns the lifetime of issued bearer tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenExpireMinutes) * time.Minute
}

// ResetCodeTTL returns the lifetime of confirmation and reset codes.
func (a AuthConfig) ResetCodeTTL() time.Duration {
	return time.Duration(a.ResetTokenExpireMinutes) * time.Minute
}

type MailConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Server   string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	FromName string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			URL: cmd.String("database-url"),
		},
		Auth: AuthConfig{
			SecretKey:                cmd.String("secret-key"),
			Algorithm:                strings.ToUpper(cmd.String("algorithm")),
			AccessTokenExpireMinutes: int(cmd.Int("access-token-expire-minutes")),
			ResetTokenExpireMinutes:  int(cmd.Int("reset-token-expire-minutes")),
			BcryptCost:               int(cmd.Int("bcrypt-cost")),
		},
		Mail: MailConfig{
			Server:   cmd.String("mail-server"),
			Port:     int(cmd.Int("mail-port")),
			Username: cmd.String("mail-username"),
			Password: cmd.String("mail-password"),
			UseTLS:   cmd.Bool("mail-use-tls"),
			From:     cmd.String("mail-from"),
			FromName: cmd.String("mail-from-name"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = normalizeBaseURL(cfg.Server.BaseURL)

	return cfg
}

// Validate reports every configuration problem that must stop the boot.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.SecretKey == "" {
		errs = append(errs, errors.New("secret key is required (SECRET_KEY)"))
	}
	if !isSupportedAlgorithm(c.Auth.Algorithm) {
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q (supported: %s)",
			c.Auth.Algorithm, strings.Join(SupportedAlgorithms, ", ")))
	}
	if c.Auth.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("access token expiry must be positive (ACCESS_TOKEN_EXPIRE_MINUTES)"))
	}
	if c.Auth.ResetTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("reset token expiry must be positive (RESET_TOKEN_EXPIRE_MINUTES)"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Mail.Server == "" {
		errs = append(errs, errors.New("mail server is required (MAIL_SERVER)"))
	}
	if c.Mail.From == "" {
		errs = append(errs, errors.New("mail from address is required (MAIL_FROM)"))
	}

	return errors.Join(errs...)
}

func isSupportedAlgorithm(alg string) bool {
	for _, supported := range SupportedAlgorithms {
		if alg == supported {
			return true
		}
	}
	return false
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	if cfg.Server.Port == 80 {
		return fmt.Sprintf("http://%s/", host)
	}
	return fmt.Sprintf("http://%s:%d/", host, cfg.Server.Port)
}

// normalizeBaseURL makes sure links can be built by appending a path.
func normalizeBaseURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/") {
		return baseURL
	}
	return baseURL + "/"
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., app.localhost)
	return strings.HasSuffix(host, ".localhost")
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: cli.NewValueSourceChain(cli.EnvVar("HOST"), toml.TOML("server.host", configFile)),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8000,
			Usage:   "Port to listen on",
			Sources: cli.NewValueSourceChain(cli.EnvVar("PORT"), toml.TOML("server.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL used to build confirmation and reset links",
			Sources: cli.NewValueSourceChain(cli.EnvVar("APP_BASE_URL"), toml.TOML("server.base_url", configFile)),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAX_BODY_SIZE"), toml.TOML("server.max_body_size", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_LEVEL"), toml.TOML("log.level", configFile)),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("LOG_FORMAT"), toml.TOML("log.format", configFile)),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "./data/app.db",
			Usage:   "SQLite path or postgres:// URL",
			Sources: cli.NewValueSourceChain(cli.EnvVar("DATABASE_URL"), toml.TOML("database.url", configFile)),
		},
		// Auth flags
		&cli.StringFlag{
			Name:    "secret-key",
			Usage:   "Secret key for signing access tokens (openssl rand -hex 32)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("SECRET_KEY"), toml.TOML("auth.secret_key", configFile)),
		},
		&cli.StringFlag{
			Name:    "algorithm",
			Value:   "HS256",
			Usage:   "Token signing algorithm (HS256, HS384, HS512)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ALGORITHM"), toml.TOML("auth.algorithm", configFile)),
		},
		&cli.IntFlag{
			Name:    "access-token-expire-minutes",
			Value:   300,
			Usage:   "Lifetime of access tokens in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("ACCESS_TOKEN_EXPIRE_MINUTES"), toml.TOML("auth.access_token_expire_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "reset-token-expire-minutes",
			Value:   60,
			Usage:   "Lifetime of confirmation and reset codes in minutes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("RESET_TOKEN_EXPIRE_MINUTES"), toml.TOML("auth.reset_token_expire_minutes", configFile)),
		},
		&cli.IntFlag{
			Name:    "bcrypt-cost",
			Value:   bcrypt.DefaultCost,
			Usage:   "bcrypt cost factor for passwords and codes",
			Sources: cli.NewValueSourceChain(cli.EnvVar("BCRYPT_COST"), toml.TOML("auth.bcrypt_cost", configFile)),
		},
		// Mail flags
		&cli.StringFlag{
			Name:    "mail-server",
			Usage:   "SMTP server host",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_SERVER"), toml.TOML("mail.server", configFile)),
		},
		&cli.IntFlag{
			Name:    "mail-port",
			Value:   1025,
			Usage:   "SMTP server port",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_PORT"), toml.TOML("mail.port", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-username",
			Usage:   "SMTP username",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_USERNAME"), toml.TOML("mail.username", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-password",
			Usage:   "SMTP password",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_PASSWORD"), toml.TOML("mail.password", configFile)),
		},
		&cli.BoolFlag{
			Name:    "mail-use-tls",
			Usage:   "Require TLS for SMTP (implicit TLS on port 465)",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_USE_TLS"), toml.TOML("mail.use_tls", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Value:   "noreply@localhost",
			Usage:   "Sender address",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_FROM"), toml.TOML("mail.from", configFile)),
		},
		&cli.StringFlag{
			Name:    "mail-from-name",
			Value:   "Account Service",
			Usage:   "Sender display name",
			Sources: cli.NewValueSourceChain(cli.EnvVar("MAIL_FROM_NAME"), toml.TOML("mail.from_name", configFile)),
		},
	}
}
