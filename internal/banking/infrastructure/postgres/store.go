package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cardbank/internal/banking/domain"
	vo "cardbank/internal/common/value_objects"
)

// Store implements domain.Store on the banking.accounts table.
// A save replaces every row inside one transaction.
type Store struct {
	pool *pgxpool.Pool
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a new Store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Load returns every account ordered by its saved position.
// Query failures are returned as-is; only undecodable rows yield domain.ErrStoreUnreadable.
func (s *Store) Load(ctx context.Context) ([]*domain.Account, error) {
	return loadAccounts(ctx, s.pool)
}

func loadAccounts(ctx context.Context, exec Executor) ([]*domain.Account, error) {
	rows, err := exec.Query(ctx, `
		SELECT card_number, user_name, user_surname, user_age,
			   phone_number, balance, password_hash
		FROM banking.accounts
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		cardNumber   string
		name         string
		surname      string
		age          int
		phoneNumber  string
		balance      decimal.Decimal
		passwordHash string
	)

	if err := row.Scan(&cardNumber, &name, &surname, &age, &phoneNumber, &balance, &passwordHash); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnreadable, err)
	}

	card, err := domain.ParseCardNumber(cardNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnreadable, err)
	}

	return domain.ReconstructAccount(card, name, surname, age, phoneNumber, vo.New(balance), passwordHash), nil
}

// Save replaces the table content with every account.
// Side effects: deletes and inserts rows inside a single transaction.
func (s *Store) Save(ctx context.Context, accounts []*domain.Account) error {
	return s.withTx(ctx, func(exec Executor) error {
		if _, err := exec.Exec(ctx, `DELETE FROM banking.accounts`); err != nil {
			return fmt.Errorf("clearing accounts: %w", err)
		}
		for i, a := range accounts {
			if err := insertAccount(ctx, exec, i, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAccount(ctx context.Context, exec Executor, position int, a *domain.Account) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO banking.accounts (
			card_number, position, user_name, user_surname, user_age,
			phone_number, balance, password_hash, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		a.CardNumber().String(),
		position,
		a.Name(),
		a.Surname(),
		a.Age(),
		a.PhoneNumber(),
		a.Balance().Amount,
		a.PasswordHash(),
	)
	if err != nil {
		return fmt.Errorf("inserting account %s: %w", a.CardNumber(), err)
	}
	return nil
}

// withTx runs fn in a transaction, committing on success and rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(exec Executor) error) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
			}
			return
		}
		if err = tx.Commit(ctx); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	err = fn(tx)
	return
}
