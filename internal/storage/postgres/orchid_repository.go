package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type orchidRepository struct {
	db *sql.DB
}

// NewOrchidRepository создаёт PostgreSQL-реализацию OrchidRepository.
func NewOrchidRepository(store *Store) domain.OrchidRepository {
	return &orchidRepository{db: store.DB()}
}

func (r *orchidRepository) Create(orchid domain.Orchid) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orchids (
			id, name, description, is_natural, url, price_minor, is_available, category_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		orchid.ID, orchid.Name, orchid.Description, orchid.IsNatural,
		orchid.URL, orchid.PriceMinor, orchid.IsAvailable, orchid.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("insert orchid: %w", err)
	}

	return nil
}

func (r *orchidRepository) Get(id string) (domain.Orchid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var orchid domain.Orchid
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, is_natural, url, price_minor, is_available, category_id
		FROM orchids
		WHERE id = $1
	`, id).Scan(
		&orchid.ID, &orchid.Name, &orchid.Description, &orchid.IsNatural,
		&orchid.URL, &orchid.PriceMinor, &orchid.IsAvailable, &orchid.CategoryID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Orchid{}, domain.ErrOrchidNotFound
		}
		return domain.Orchid{}, fmt.Errorf("select orchid: %w", err)
	}

	return orchid, nil
}

func (r *orchidRepository) List() ([]domain.Orchid, error) {
	return r.list(`
		SELECT id, name, description, is_natural, url, price_minor, is_available, category_id
		FROM orchids
		ORDER BY name ASC, id ASC
	`)
}

func (r *orchidRepository) ListByCategory(categoryID string) ([]domain.Orchid, error) {
	return r.list(`
		SELECT id, name, description, is_natural, url, price_minor, is_available, category_id
		FROM orchids
		WHERE category_id = $1
		ORDER BY name ASC, id ASC
	`, categoryID)
}

func (r *orchidRepository) Update(orchid domain.Orchid) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orchids
		SET name = $1,
		    description = $2,
		    is_natural = $3,
		    url = $4,
		    price_minor = $5,
		    is_available = $6,
		    category_id = $7
		WHERE id = $8
	`,
		orchid.Name, orchid.Description, orchid.IsNatural, orchid.URL,
		orchid.PriceMinor, orchid.IsAvailable, orchid.CategoryID, orchid.ID,
	)
	if err != nil {
		return fmt.Errorf("update orchid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrchidNotFound
	}

	return nil
}

func (r *orchidRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orchids WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete orchid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrchidNotFound
	}

	return nil
}

func (r *orchidRepository) list(query string, args ...interface{}) ([]domain.Orchid, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orchids: %w", err)
	}
	defer rows.Close()

	orchids := make([]domain.Orchid, 0)
	for rows.Next() {
		var orchid domain.Orchid
		if err := rows.Scan(
			&orchid.ID, &orchid.Name, &orchid.Description, &orchid.IsNatural,
			&orchid.URL, &orchid.PriceMinor, &orchid.IsAvailable, &orchid.CategoryID,
		); err != nil {
			return nil, fmt.Errorf("scan orchid row: %w", err)
		}
		orchids = append(orchids, orchid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orchid rows: %w", err)
	}

	return orchids, nil
}

var _ domain.OrchidRepository = (*orchidRepository)(nil)
