package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository создаёт PostgreSQL-реализацию CategoryRepository.
func NewCategoryRepository(store *Store) domain.CategoryRepository {
	return &categoryRepository{db: store.DB()}
}

func (r *categoryRepository) Create(category domain.Category) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES ($1,$2)
	`, category.ID, category.Name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	return nil
}

func (r *categoryRepository) Get(id string) (domain.Category, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var category domain.Category
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name FROM categories WHERE id = $1
	`, id).Scan(&category.ID, &category.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		return domain.Category{}, fmt.Errorf("select category: %w", err)
	}

	return category, nil
}

func (r *categoryRepository) List() ([]domain.Category, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM categories ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Update(category domain.Category) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = $1 WHERE id = $2
	`, category.Name, category.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

func (r *categoryRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCategoryNotFound
	}

	return nil
}

var _ domain.CategoryRepository = (*categoryRepository)(nil)
