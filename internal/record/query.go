// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package record

import (
	"fmt"
	"reflect"
	"strings"

	"codeberg.org/oliverandrich/go-account-service/internal/apperr"
	"github.com/vinovest/sqlx"
)

// DefaultLimit is the page size used when ListOptions.Limit is zero.
const DefaultLimit = 100

// Predicate is a SQL boolean expression with ? placeholders.
type Predicate struct {
	SQL  string
	Args []any
}

// Where builds a predicate from a SQL fragment.
func Where(sql string, args ...any) *Predicate {
	return &Predicate{SQL: sql, Args: args}
}

// In builds "column IN (...)". An empty list matches nothing.
func In[T any](column string, values []T) *Predicate {
	if len(values) == 0 {
		return Where("1 = 0")
	}
	return &Predicate{SQL: column + " IN (?)", Args: []any{values}}
}

// ListOptions controls GetAll. Nil entries in Filters are ignored.
type ListOptions struct {
	Sort    string
	IDs     []string
	Filters []*Predicate
	Offset  int
	Limit   int
}

// Page is one page of a listing together with the unpaginated total.
type Page[E any] struct {
	Items      []E   `json:"items"`
	NumItems   int   `json:"num_items"`
	TotalItems int64 `json:"total_items"`
}

// SortField is one parsed term of a sort expression.
type SortField struct {
	Column string
	Desc   bool
}

// ParseSort parses "field[:asc|desc],..." against the schema's columns.
// Direction defaults to ascending and is case-insensitive; empty terms
// are skipped.
func ParseSort[E any](schema *Schema[E], expr string) ([]SortField, error) {
	var fields []SortField

	for term := range strings.SplitSeq(expr, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}

		name, direction, hasDirection := strings.Cut(term, ":")
		name = strings.TrimSpace(name)
		if _, ok := schema.Column(name); !ok {
			return nil, apperr.New(apperr.BadRequest, fmt.Sprintf("Sort column '%s' is not supported.", name))
		}

		field := SortField{Column: name}
		if hasDirection {
			switch dir := strings.ToUpper(strings.TrimSpace(direction)); dir {
			case "ASC":
			case "DESC":
				field.Desc = true
			default:
				return nil, apperr.New(apperr.BadRequest, fmt.Sprintf("Invalid sort direction. '%s'", dir))
			}
		}
		fields = append(fields, field)
	}

	return fields, nil
}

func orderByClause(fields []SortField) string {
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		if f.Desc {
			terms[i] = f.Column + " DESC"
		} else {
			terms[i] = f.Column + " ASC"
		}
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

// whereClause AND-combines the id filter and every non-nil predicate.
// Slice arguments are expanded by sqlx.In.
func whereClause(opts ListOptions) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)

	if len(opts.IDs) > 0 {
		clauses = append(clauses, "id IN (?)")
		args = append(args, opts.IDs)
	}

	for _, p := range opts.Filters {
		if p == nil || p.SQL == "" {
			continue
		}
		clauses = append(clauses, "("+p.SQL+")")
		args = append(args, p.Args...)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}

	clause := " WHERE " + strings.Join(clauses, " AND ")
	if !hasSliceArg(args) {
		return clause, args, nil
	}

	expanded, expandedArgs, err := sqlx.In(clause, args...)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.BadRequest, err, "invalid filter")
	}
	return expanded, expandedArgs, nil
}

func hasSliceArg(args []any) bool {
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if _, isBytes := arg.([]byte); isBytes {
			continue
		}
		if reflect.TypeOf(arg).Kind() == reflect.Slice {
			return true
		}
	}
	return false
}
