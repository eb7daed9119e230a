// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"github.com/google/uuid"
	"github.com/vinovest/sqlx"
)

// Store provides persistence operations for one entity type. Every call
// runs immediately on the Querier it is given; atomicity across calls is
// up to the caller's transaction.
type Store[E any] struct {
	schema  *Schema[E]
	now     func() time.Time
	newID   func() string
	columns string
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	now   func() time.Time
	newID func() string
}

// WithClock sets the time source passed to BeforeSave.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

// WithIDGenerator replaces the UUID generator for new entities.
func WithIDGenerator(newID func() string) StoreOption {
	return func(c *storeConfig) {
		c.newID = newID
	}
}

func NewStore[E any](schema *Schema[E], opts ...StoreOption) *Store[E] {
	cfg := storeConfig{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Store[E]{
		schema:  schema,
		now:     cfg.now,
		newID:   cfg.newID,
		columns: strings.Join(schema.ColumnNames(), ", "),
	}
}

func (s *Store[E]) Schema() *Schema[E] {
	return s.schema
}

// Create builds an entity from data and inserts it. Keys that are not
// columns of the entity are rejected.
func (s *Store[E]) Create(ctx context.Context, q Querier, data Values) (*E, error) {
	e := s.schema.newEntity()

	for _, key := range sortedKeys(data) {
		col, err := s.column(key)
		if err != nil {
			return nil, err
		}
		if err := col.set(e, data[key]); err != nil {
			return nil, s.invalidValue(key, err)
		}
	}

	if err := s.Insert(ctx, q, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Insert persists a new entity, assigning an id when it has none.
func (s *Store[E]) Insert(ctx context.Context, q Querier, e *E) error {
	if id := s.schema.ID(e); *id == "" {
		*id = s.newID()
	}
	s.beforeSave(e)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.schema.Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.schema.Table, s.columns, placeholders)

	args := make([]any, len(s.schema.Columns))
	for i, col := range s.schema.Columns {
		args[i] = col.get(e)
	}

	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", s.schema.Table, err)
	}
	return nil
}

// Save writes every column of an existing entity.
func (s *Store[E]) Save(ctx context.Context, q Querier, e *E) error {
	s.beforeSave(e)

	var (
		assignments []string
		args        []any
	)
	for _, col := range s.schema.Columns {
		if col.name == "id" {
			continue
		}
		assignments = append(assignments, col.name+" = ?")
		args = append(args, col.get(e))
	}
	id := *s.schema.ID(e)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", s.schema.Table, strings.Join(assignments, ", "))
	result, err := q.ExecContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", s.schema.Table, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return s.notFound(id)
	}
	return nil
}

// UpdateOption configures Update.
type UpdateOption func(*updateConfig)

type updateConfig struct {
	saveIfNoDiff bool
}

// WithoutSaveIfNoDiff skips the write when no field changes.
func WithoutSaveIfNoDiff() UpdateOption {
	return func(c *updateConfig) {
		c.saveIfNoDiff = false
	}
}

// Update applies data to e and returns the previous and new values of the
// fields that actually changed. Changed fields are set on e in place. Keys
// that are not columns, the id, or values of the wrong type leave e
// untouched, and so does a failed write.
func (s *Store[E]) Update(ctx context.Context, q Querier, e *E, data Values, opts ...UpdateOption) (*E, Values, Values, error) {
	cfg := updateConfig{saveIfNoDiff: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	original := *e
	scratch := *e
	keys := sortedKeys(data)
	for _, key := range keys {
		if key == "id" {
			return e, nil, nil, apperr.New(apperr.BadRequest, fmt.Sprintf("%s id may not be changed", s.schema.Name))
		}
		col, err := s.column(key)
		if err != nil {
			return e, nil, nil, err
		}
		if err := col.set(&scratch, data[key]); err != nil {
			return e, nil, nil, s.invalidValue(key, err)
		}
	}

	oldValues := Values{}
	newValues := Values{}
	for _, key := range keys {
		col, _ := s.column(key)
		before, after := col.get(e), col.get(&scratch)
		if col.equal(before, after) {
			continue
		}
		oldValues[key] = before
		newValues[key] = after
		if err := col.set(e, after); err != nil {
			*e = original
			return e, nil, nil, s.invalidValue(key, err)
		}
	}

	if len(newValues) == 0 && !cfg.saveIfNoDiff {
		return e, oldValues, newValues, nil
	}

	if err := s.Save(ctx, q, e); err != nil {
		*e = original
		return e, oldValues, newValues, err
	}
	return e, oldValues, newValues, nil
}

// Delete runs the schema's BeforeDelete hook and removes the row.
func (s *Store[E]) Delete(ctx context.Context, q Querier, e *E) error {
	if s.schema.BeforeDelete != nil {
		if err := s.schema.BeforeDelete(ctx, q, e); err != nil {
			return fmt.Errorf("failed to prepare %s for deletion: %w", s.schema.Table, err)
		}
	}

	id := *s.schema.ID(e)
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.schema.Table)
	result, err := q.ExecContext(ctx, q.Rebind(query), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.schema.Table, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return s.notFound(id)
	}
	return nil
}

// Find returns the entity with the given id, or nil if there is none.
func (s *Store[E]) Find(ctx context.Context, q Querier, id string) (*E, error) {
	return s.FindBy(ctx, q, "id", id)
}

// Get is Find that reports a missing entity as apperr.NotFound.
func (s *Store[E]) Get(ctx context.Context, q Querier, id string) (*E, error) {
	e, err := s.Find(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, s.notFound(id)
	}
	return e, nil
}

// FindBy returns the first entity whose column equals value, or nil.
func (s *Store[E]) FindBy(ctx context.Context, q Querier, column string, value any) (*E, error) {
	if _, err := s.column(column); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1", s.columns, s.schema.Table, column)
	e := s.schema.newEntity()
	if err := sqlx.GetContext(ctx, q, e, q.Rebind(query), value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query %s: %w", s.schema.Table, err)
	}
	return e, nil
}

// GetBy is FindBy that reports a missing entity as apperr.NotFound.
func (s *Store[E]) GetBy(ctx context.Context, q Querier, column string, value any) (*E, error) {
	e, err := s.FindBy(ctx, q, column, value)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("%s with %s %v not found", s.schema.Name, column, value))
	}
	return e, nil
}

// GetAll returns one page of entities matching opts and the total number
// of matches ignoring offset and limit.
func (s *Store[E]) GetAll(ctx context.Context, q Querier, opts ListOptions) (Page[E], error) {
	sortFields, err := ParseSort(s.schema, opts.Sort)
	if err != nil {
		return Page[E]{}, err
	}

	where, args, err := whereClause(opts)
	if err != nil {
		return Page[E]{}, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(opts.Offset, 0)

	query := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT ? OFFSET ?",
		s.columns, s.schema.Table, where, orderByClause(sortFields))
	pageArgs := append(slices.Clone(args), limit, offset)

	items := make([]E, 0)
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(query), pageArgs...); err != nil {
		return Page[E]{}, fmt.Errorf("failed to list %s: %w", s.schema.Table, err)
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.schema.Table, where)
	if err := sqlx.GetContext(ctx, q, &total, q.Rebind(countQuery), args...); err != nil {
		return Page[E]{}, fmt.Errorf("failed to count %s: %w", s.schema.Table, err)
	}

	return Page[E]{
		Items:      items,
		NumItems:   len(items),
		TotalItems: total,
	}, nil
}

func (s *Store[E]) beforeSave(e *E) {
	if s.schema.BeforeSave != nil {
		s.schema.BeforeSave(e, s.now())
	}
}

func (s *Store[E]) column(name string) (Column[E], error) {
	col, ok := s.schema.Column(name)
	if !ok {
		return col, apperr.New(apperr.BadRequest, fmt.Sprintf("%s has no attribute: %s", s.schema.Name, name))
	}
	return col, nil
}

func (s *Store[E]) invalidValue(key string, err error) error {
	return apperr.Wrap(apperr.BadRequest, err, fmt.Sprintf("Invalid value for %s.%s", s.schema.Name, key))
}

func (s *Store[E]) notFound(id string) error {
	return apperr.New(apperr.NotFound, fmt.Sprintf("%s with id %s not found", s.schema.Name, id))
}

func sortedKeys(data Values) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
