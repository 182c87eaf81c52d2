package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
)

// RoleRepository provides access to the AI role catalog.
type RoleRepository struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *pgxpool.Pool, logger logger.Logger) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// UpsertRole inserts a role or updates the existing role with the same name.
// Role names are unique.
func (r *RoleRepository) UpsertRole(ctx context.Context, role Role) (*Role, error) {
	var out Role
	err := r.db.QueryRow(ctx,
		`INSERT INTO ai_roles (name, short_description, long_description, system_prompt)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET
		     short_description = EXCLUDED.short_description,
		     long_description = EXCLUDED.long_description,
		     system_prompt = EXCLUDED.system_prompt,
		     updated_at = now()
		 RETURNING id, name, short_description, long_description, system_prompt, created_at, updated_at`,
		role.Name, role.ShortDescription, role.LongDescription, role.SystemPrompt,
	).Scan(&out.ID, &out.Name, &out.ShortDescription, &out.LongDescription, &out.SystemPrompt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to upsert role", logger.ErrorField(err), logger.StringField("name", role.Name))
		return nil, fmt.Errorf("upsert role: %w", err)
	}
	return &out, nil
}

// GetByID returns the role with the given ID.
func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*Role, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT id, name, short_description, long_description, system_prompt, created_at, updated_at
		 FROM ai_roles WHERE id = $1`, id))
}

// GetByName returns the role with the given unique name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*Role, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT id, name, short_description, long_description, system_prompt, created_at, updated_at
		 FROM ai_roles WHERE name = $1`, name))
}

// ListRoles returns all roles ordered by name.
func (r *RoleRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, short_description, long_description, system_prompt, created_at, updated_at
		 FROM ai_roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.ShortDescription, &role.LongDescription,
			&role.SystemPrompt, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

// CountRoles returns the number of roles in the catalog.
func (r *RoleRepository) CountRoles(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM ai_roles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return count, nil
}

func (r *RoleRepository) scanOne(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.ShortDescription, &role.LongDescription,
		&role.SystemPrompt, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}
