// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/oliverandrich/go-account-service/internal/config"
	"codeberg.org/oliverandrich/go-account-service/internal/repository"
	"codeberg.org/oliverandrich/go-account-service/internal/services/account"
	"codeberg.org/oliverandrich/go-account-service/internal/services/auth"
	"codeberg.org/oliverandrich/go-account-service/internal/services/email"
	"codeberg.org/oliverandrich/go-account-service/internal/services/security"
)

// Services holds the wired application services.
type Services struct {
	Repo       *repository.Repository
	Auth       *auth.Service
	Dispatcher *email.Dispatcher
}

// NewServices builds the service graph from the configuration. Mails are
// delivered through mailer.
func NewServices(cfg *config.Config, mailer email.Mailer) (*Services, error) {
	hasher, err := security.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}

	tokens, err := security.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	repo := repository.New()
	accounts := account.NewService(repo, hasher, cfg.Auth.ResetCodeTTL())
	dispatcher := email.NewDispatcher(mailer, cfg.Auth.ResetCodeTTL())

	return &Services{
		Repo:       repo,
		Auth:       auth.NewService(repo, accounts, hasher, tokens, dispatcher, cfg.Server.BaseURL),
		Dispatcher: dispatcher,
	}, nil
}
