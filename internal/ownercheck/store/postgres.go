package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"namecheck/internal/ownercheck/models"
	"namecheck/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// PostgresStore persists sessions in the bank_sessions table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the bank_sessions table when it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate bank_sessions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, accountNumber string) (*models.SessionState, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM bank_sessions WHERE account_number = $1`,
		accountNumber,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", accountNumber, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var st models.SessionState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", accountNumber, sentinel.ErrInvalidState)
	}
	return &st, nil
}

func (s *PostgresStore) Save(ctx context.Context, accountNumber string, state *models.SessionState) error {
	if err := validateKey(accountNumber); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("session state is required")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bank_sessions (account_number, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (account_number)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		accountNumber, raw,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
