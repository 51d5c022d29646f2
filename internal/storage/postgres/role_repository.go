package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type roleRepository struct {
	db *sql.DB
}

// NewRoleRepository создаёт PostgreSQL-реализацию RoleRepository.
func NewRoleRepository(store *Store) domain.RoleRepository {
	return &roleRepository{db: store.DB()}
}

func (r *roleRepository) Create(role domain.Role) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO roles (id, name) VALUES ($1,$2)
	`, role.ID, role.Name)
	if err != nil {
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

func (r *roleRepository) Get(id string) (domain.Role, error) {
	return r.getBy(`SELECT id, name FROM roles WHERE id = $1`, id)
}

func (r *roleRepository) GetByName(name string) (domain.Role, error) {
	return r.getBy(`SELECT id, name FROM roles WHERE name = $1`, name)
}

func (r *roleRepository) List() ([]domain.Role, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM roles ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.Role, 0)
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role row: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role rows: %w", err)
	}

	return roles, nil
}

func (r *roleRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrRoleNotFound
	}

	return nil
}

func (r *roleRepository) getBy(query, arg string) (domain.Role, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var role domain.Role
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Role{}, domain.ErrRoleNotFound
		}
		return domain.Role{}, fmt.Errorf("select role: %w", err)
	}

	return role, nil
}

var _ domain.RoleRepository = (*roleRepository)(nil)
