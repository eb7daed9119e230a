// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/go-account-service/internal/models"
	"codeberg.org/oliverandrich/go-account-service/internal/record"
	"github.com/vinovest/sqlx"
)

// RoleSchema maps models.Role to the roles table.
func RoleSchema() *record.Schema[models.Role] {
	return &record.Schema[models.Role]{
		Name:  "Role",
		Table: "roles",
		ID:    func(r *models.Role) *string { return &r.ID },
		Columns: []record.Column[models.Role]{
			record.Field("id", func(r *models.Role) *string { return &r.ID }),
			record.Field("name", func(r *models.Role) *string { return &r.Name }),
			record.NullStringField("description", func(r *models.Role) **string { return &r.Description }),
		},
		BeforeDelete: func(ctx context.Context, q record.Querier, r *models.Role) error {
			_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM roles_users WHERE role_id = ?`), r.ID)
			return err
		},
	}
}

// AssignRole links a user to a role. Assigning twice is a no-op.
func (r *Repository) AssignRole(ctx context.Context, q record.Querier, userID, roleID string) error {
	query := q.Rebind(`INSERT INTO roles_users (user_id, role_id) VALUES (?, ?) ON CONFLICT (user_id, role_id) DO NOTHING`)
	if _, err := q.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

// UserRoles returns the roles linked to a user ordered by name.
func (r *Repository) UserRoles(ctx context.Context, q record.Querier, userID string) ([]models.Role, error) {
	roles := []models.Role{}
	query := q.Rebind(`SELECT r.id, r.name, r.description FROM roles r
		JOIN roles_users ru ON ru.role_id = r.id
		WHERE ru.user_id = ? ORDER BY r.name`)
	if err := sqlx.SelectContext(ctx, q, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	return roles, nil
}
