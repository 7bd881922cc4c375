package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"clearhouse/internal/model"
	"clearhouse/internal/service"
)

// Store implements every persistence capability the clearing core needs
// over a single Postgres database: transfer orders, the event outbox, the
// operator and agent registries, accounts and the balance ledger.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type txKey struct{}

// WithTx runs fn inside one database transaction. Nested calls join the
// transaction already in the context. Row locks taken by the queries
// below give every operation the validate-then-mutate atomicity the
// state machine relies on.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- transfers ---

func (s *Store) GetTransfer(ctx context.Context, operationID string) (*model.Transfer, error) {
	query := `SELECT operation_id, orderer, payer, payee, value, status, ordered_at, updated_at
		FROM transfers WHERE operation_id = $1`
	if txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}

	var t model.Transfer
	err := s.q(ctx).QueryRowContext(ctx, query, operationID).
		Scan(&t.OperationID, &t.Orderer, &t.From, &t.To, &t.Value, &t.Status, &t.OrderedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transfer: %w", err)
	}
	return &t, nil
}

func (s *Store) CreateTransfer(ctx context.Context, t model.Transfer) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO transfers (operation_id, orderer, payer, payee, value, status, ordered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.OperationID, t.Orderer, t.From, t.To, t.Value, t.Status, t.OrderedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return service.ErrOperationIDUsed
	}
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransferStatus(ctx context.Context, operationID string, status model.Status) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE transfers SET status = $1, updated_at = NOW() WHERE operation_id = $2`,
		status, operationID,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return nil
}

// --- ledger ---

func (s *Store) SpendableBalance(ctx context.Context, account string) (int64, error) {
	query := `SELECT balance FROM accounts WHERE address = $1`
	if txFromContext(ctx) != nil {
		query += ` FOR UPDATE`
	}

	var balance int64
	err := s.q(ctx).QueryRowContext(ctx, query, account).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// Move debits from and credits to in one shot. The conditional debit is
// the settlement-time defense against double-spend: the balance may have
// shrunk since order-time validation.
func (s *Store) Move(ctx context.Context, from, to string, value int64) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1 WHERE address = $2 AND balance >= $1`,
		value, from,
	)
	if err != nil {
		return fmt.Errorf("debit payer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit payer: %w", err)
	}
	if n == 0 {
		return service.ErrInsufficientBalance
	}

	return s.credit(ctx, to, value)
}

func (s *Store) Mint(ctx context.Context, to string, value int64) error {
	return s.credit(ctx, to, value)
}

func (s *Store) credit(ctx context.Context, to string, value int64) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO accounts (address, balance) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance`,
		to, value,
	)
	if err != nil {
		return fmt.Errorf("credit payee: %w", err)
	}
	return nil
}

// --- operator registry ---

func (s *Store) IsAuthorized(ctx context.Context, operator, account string) (bool, error) {
	var ok bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM operators WHERE operator = $1 AND account = $2)`,
		operator, account,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query operator: %w", err)
	}
	return ok, nil
}

func (s *Store) PutAuthorization(ctx context.Context, operator, account string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO operators (operator, account) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		operator, account,
	)
	if err != nil {
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

func (s *Store) DeleteAuthorization(ctx context.Context, operator, account string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM operators WHERE operator = $1 AND account = $2`,
		operator, account,
	)
	if err != nil {
		return fmt.Errorf("delete operator: %w", err)
	}
	return nil
}

// --- agent registry ---

func (s *Store) IsAgent(ctx context.Context, address string) (bool, error) {
	var ok bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM agents WHERE address = $1)`,
		address,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("query agent: %w", err)
	}
	return ok, nil
}

func (s *Store) PutAgent(ctx context.Context, address string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO agents (address) VALUES ($1) ON CONFLICT DO NOTHING`,
		address,
	)
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// --- accounts ---

func (s *Store) CreateAccount(ctx context.Context, a model.Account) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO accounts (address, login, password_hash) VALUES ($1, $2, $3)`,
		a.Address, a.Login, a.PasswordHash,
	)
	if isUniqueViolation(err) {
		return service.ErrLoginTaken
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Store) AccountByLogin(ctx context.Context, login string) (*model.Account, error) {
	var a model.Account
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT address, login, password_hash, created_at FROM accounts WHERE login = $1`,
		login,
	).Scan(&a.Address, &a.Login, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &a, nil
}

// --- event outbox ---

func (s *Store) AppendEvent(ctx context.Context, e model.Event) error {
	payload, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("marshal event fields: %w", err)
	}
	_, err = s.q(ctx).ExecContext(ctx,
		`INSERT INTO events (id, type, payload, created_at) VALUES ($1, $2, $3, $4)`,
		e.ID, e.Type, payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *Store) UndeliveredEvents(ctx context.Context, limit int) ([]model.Event, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, type, payload, created_at FROM events
		WHERE NOT delivered ORDER BY created_at ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Type, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal event fields: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return events, nil
}

func (s *Store) MarkEventDelivered(ctx context.Context, id string) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE events SET delivered = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark event delivered: %w", err)
	}
	return nil
}
