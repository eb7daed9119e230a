// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package record implements create, read, update, delete and paginated
// listing for any entity described by a Schema.
package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vinovest/sqlx"
)

// Querier is the subset of sqlx shared by *sqlx.DB, *sqlx.Tx, *sqlx.Conn
// and database.Session.
type Querier interface {
	sqlx.QueryerContext
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// Values maps column names to values.
type Values map[string]any

// Column describes one persisted field of E with typed accessors.
type Column[E any] struct {
	get   func(*E) any
	set   func(*E, any) error
	equal func(a, b any) bool
	name  string
}

func (c Column[E]) Name() string {
	return c.name
}

// Field describes a non-nullable column whose Go type is comparable with ==.
func Field[E any, V comparable](name string, ref func(*E) *V) Column[E] {
	return Column[E]{
		name: name,
		get: func(e *E) any {
			return *ref(e)
		},
		set: func(e *E, value any) error {
			v, ok := value.(V)
			if !ok {
				return fmt.Errorf("expected %T, got %T", *new(V), value)
			}
			*ref(e) = v
			return nil
		},
		equal: func(a, b any) bool {
			return a == b
		},
	}
}

// TimeField describes a non-nullable timestamp column.
func TimeField[E any](name string, ref func(*E) *time.Time) Column[E] {
	return Column[E]{
		name: name,
		get: func(e *E) any {
			return *ref(e)
		},
		set: func(e *E, value any) error {
			switch v := value.(type) {
			case time.Time:
				*ref(e) = v
			case *time.Time:
				if v == nil {
					return fmt.Errorf("%s may not be null", name)
				}
				*ref(e) = *v
			default:
				return fmt.Errorf("expected time.Time, got %T", value)
			}
			return nil
		},
		equal: equalTime,
	}
}

// NullTimeField describes a nullable timestamp column. Values are nil or
// time.Time.
func NullTimeField[E any](name string, ref func(*E) **time.Time) Column[E] {
	return Column[E]{
		name: name,
		get: func(e *E) any {
			if p := *ref(e); p != nil {
				return *p
			}
			return nil
		},
		set: func(e *E, value any) error {
			switch v := value.(type) {
			case nil:
				*ref(e) = nil
			case time.Time:
				*ref(e) = &v
			case *time.Time:
				if v == nil {
					*ref(e) = nil
					return nil
				}
				t := *v
				*ref(e) = &t
			default:
				return fmt.Errorf("expected time.Time or nil, got %T", value)
			}
			return nil
		},
		equal: equalTime,
	}
}

// NullStringField describes a nullable text column. Values are nil or string.
func NullStringField[E any](name string, ref func(*E) **string) Column[E] {
	return Column[E]{
		name: name,
		get: func(e *E) any {
			if p := *ref(e); p != nil {
				return *p
			}
			return nil
		},
		set: func(e *E, value any) error {
			switch v := value.(type) {
			case nil:
				*ref(e) = nil
			case string:
				*ref(e) = &v
			case *string:
				if v == nil {
					*ref(e) = nil
					return nil
				}
				s := *v
				*ref(e) = &s
			default:
				return fmt.Errorf("expected string or nil, got %T", value)
			}
			return nil
		},
		equal: func(a, b any) bool {
			return a == b
		},
	}
}

func equalTime(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok && bok {
		return ta.Equal(tb)
	}
	return a == nil && b == nil
}

// Schema describes how an entity maps to a table.
type Schema[E any] struct {
	// New allocates an empty entity. Defaults to new(E).
	New func() *E
	// ID points at the entity's string primary key stored in column "id".
	ID func(*E) *string
	// BeforeSave runs before every insert and update.
	BeforeSave func(e *E, now time.Time)
	// BeforeDelete runs on the same Querier before the row is deleted.
	BeforeDelete func(ctx context.Context, q Querier, e *E) error
	// Name is used in error messages, e.g. "User".
	Name    string
	Table   string
	Columns []Column[E]
}

// Column looks up a column by name.
func (s *Schema[E]) Column(name string) (Column[E], bool) {
	for _, col := range s.Columns {
		if col.name == name {
			return col, true
		}
	}
	return Column[E]{}, false
}

// ColumnNames returns the column names in declaration order.
func (s *Schema[E]) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		names[i] = col.name
	}
	return names
}

// Snapshot returns the current values of all columns of e.
func (s *Schema[E]) Snapshot(e *E) Values {
	values := make(Values, len(s.Columns))
	for _, col := range s.Columns {
		values[col.name] = col.get(e)
	}
	return values
}

func (s *Schema[E]) newEntity() *E {
	if s.New != nil {
		return s.New()
	}
	return new(E)
}
