package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, owner_id, status, total_minor, order_date, version, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		order.ID, order.OwnerID, string(order.Status),
		order.TotalMinor, order.OrderDate, order.Version, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		order  domain.Order
		status string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, status, total_minor, order_date, version, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.OwnerID, &status,
		&order.TotalMinor, &order.OrderDate, &order.Version, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	return order, nil
}

func (r *orderRepository) ListAll() ([]domain.Order, error) {
	return r.list(`
		SELECT id, owner_id, status, total_minor, order_date, version, updated_at
		FROM orders
		ORDER BY order_date DESC, id DESC
	`)
}

func (r *orderRepository) ListByOwner(ownerID string) ([]domain.Order, error) {
	return r.list(`
		SELECT id, owner_id, status, total_minor, order_date, version, updated_at
		FROM orders
		WHERE owner_id = $1
		ORDER BY order_date DESC, id DESC
	`, ownerID)
}

func (r *orderRepository) Save(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET owner_id = $1,
		    status = $2,
		    total_minor = $3,
		    version = version + 1,
		    updated_at = $4
		WHERE id = $5
		  AND version = $6
	`,
		order.OwnerID,
		string(order.Status),
		order.TotalMinor,
		order.UpdatedAt,
		order.ID,
		order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.exists(ctx, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrOrderVersionConflict
	}

	return nil
}

func (r *orderRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

func (r *orderRepository) list(query string, args ...interface{}) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var (
			order  domain.Order
			status string
		)
		if err := rows.Scan(
			&order.ID, &order.OwnerID, &status,
			&order.TotalMinor, &order.OrderDate, &order.Version, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) exists(ctx context.Context, orderID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, orderID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
