package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository создаёт PostgreSQL-реализацию AccountRepository.
func NewAccountRepository(store *Store) domain.AccountRepository {
	return &accountRepository{db: store.DB()}
}

func (r *accountRepository) Create(account domain.Account) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, email, password_hash, role_id)
		VALUES ($1,$2,$3,$4,$5)
	`,
		account.ID, account.Name, account.Email, account.PasswordHash, account.RoleID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

func (r *accountRepository) Get(id string) (domain.Account, error) {
	return r.getBy(`
		SELECT id, name, email, password_hash, role_id
		FROM accounts
		WHERE id = $1
	`, id)
}

func (r *accountRepository) GetByEmail(email string) (domain.Account, error) {
	return r.getBy(`
		SELECT id, name, email, password_hash, role_id
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)
}

func (r *accountRepository) List() ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role_id
		FROM accounts
		ORDER BY email ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID, &account.Name, &account.Email,
			&account.PasswordHash, &account.RoleID,
		); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, nil
}

func (r *accountRepository) Update(account domain.Account) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = $1,
		    email = $2,
		    password_hash = $3,
		    role_id = $4
		WHERE id = $5
	`,
		account.Name, account.Email, account.PasswordHash, account.RoleID, account.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("update account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) getBy(query, arg string) (domain.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var account domain.Account
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Name, &account.Email,
		&account.PasswordHash, &account.RoleID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}

	return account, nil
}

var _ domain.AccountRepository = (*accountRepository)(nil)
