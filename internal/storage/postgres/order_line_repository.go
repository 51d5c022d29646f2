package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type orderLineRepository struct {
	db *sql.DB
}

// NewOrderLineRepository создаёт PostgreSQL-реализацию OrderLineRepository.
func NewOrderLineRepository(store *Store) domain.OrderLineRepository {
	return &orderLineRepository{db: store.DB()}
}

func (r *orderLineRepository) Insert(lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (
				id, order_id, orchid_id, qty, price_minor, seq, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			line.ID, line.OrderID, line.OrchidID,
			line.Qty, line.PriceMinor, line.Seq, line.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert order lines: %w", err)
	}

	return nil
}

func (r *orderLineRepository) ListByOrder(orderID string) ([]domain.OrderLine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, orchid_id, qty, price_minor, seq, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY created_at ASC, seq ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.OrchidID,
			&line.Qty, &line.PriceMinor, &line.Seq, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

func (r *orderLineRepository) DeleteByOrder(orderID string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, fmt.Errorf("delete order lines: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(affected), nil
}

var _ domain.OrderLineRepository = (*orderLineRepository)(nil)
