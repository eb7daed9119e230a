// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vinovest/sqlx"
)

var (
	ErrSessionClosed = errors.New("database session is closed")
	ErrTxActive      = errors.New("transaction already active")
	ErrNoTx          = errors.New("no active transaction")
)

// Session is a request-scoped database handle. It owns one pooled
// connection until Close is called. Statements run in autocommit mode
// unless Begin opened a transaction.
type Session struct {
	conn     *sqlx.Conn
	tx       *sqlx.Tx
	bindType int
}

// NewSession checks out a connection from the pool.
func NewSession(ctx context.Context, db *sqlx.DB) (*Session, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{conn: conn, bindType: sqlx.BindType(db.DriverName())}, nil
}

// Begin starts a transaction. Subsequent statements run inside it until
// Commit or Rollback.
func (s *Session) Begin(ctx context.Context) error {
	if s.conn == nil {
		return ErrSessionClosed
	}
	if s.tx != nil {
		return ErrTxActive
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

func (s *Session) Commit() error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Session) Rollback() error {
	if s.tx == nil {
		return ErrNoTx
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// InTx reports whether a transaction is open.
func (s *Session) InTx() bool {
	return s.tx != nil
}

// Close rolls back an open transaction and returns the connection to the
// pool. It is safe to call more than once.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}

	var errs []error
	if s.tx != nil {
		errs = append(errs, s.Rollback())
	}
	errs = append(errs, s.conn.Close())
	s.conn = nil

	return errors.Join(errs...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryContext(ctx, query, args...)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *Session) QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	if s.tx != nil {
		return s.tx.QueryxContext(ctx, query, args...)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.QueryxContext(ctx, query, args...)
}

func (s *Session) QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row {
	if s.tx != nil {
		return s.tx.QueryRowxContext(ctx, query, args...)
	}
	return s.conn.QueryRowxContext(ctx, query, args...)
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		return s.tx.ExecContext(ctx, query, args...)
	}
	if s.conn == nil {
		return nil, ErrSessionClosed
	}
	return s.conn.ExecContext(ctx, query, args...)
}

func (s *Session) Rebind(query string) string {
	return sqlx.Rebind(s.bindType, query)
}
