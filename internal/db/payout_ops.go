package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

const withdrawalColumns = `id, user_id, amount, status, payment_method, account_number, account_name, paid_by, paid_at, created_at`

func (s *Store) scanWithdrawal(row rowScanner) (models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var paidBy sql.NullInt64
	var paidAt sql.NullTime
	var encryptedAccount string
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.Status, &w.PaymentMethod, &encryptedAccount, &w.AccountName,
		&paidBy, &paidAt, &w.CreatedAt)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	w.PaidBy = int64Ptr(paidBy)
	w.PaidAt = timePtr(paidAt)
	w.AccountNumber = s.decryptAccount(w.UserID, encryptedAccount)
	return w, nil
}

// ListWithdrawals returns requests oldest first. An empty status returns all of them.
func (s *Store) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests ORDER BY created_at`
	var args []interface{}
	if status != "" {
		query = `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE status = $1 ORDER BY created_at`
		args = append(args, string(status))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []models.WithdrawalRequest
	for rows.Next() {
		w, err := s.scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (t *tx) GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	w, err := t.s.scanWithdrawal(t.q.QueryRowContext(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WithdrawalRequest{}, store.ErrNotFound
	}
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("get withdrawal %s: %w", id, err)
	}
	return w, nil
}

func (t *tx) SaveWithdrawal(ctx context.Context, w models.WithdrawalRequest) error {
	account, err := t.s.cipher.Encrypt(w.AccountNumber)
	if err != nil {
		return fmt.Errorf("encrypt account number of withdrawal %s: %w", w.ID, err)
	}
	_, err = t.q.ExecContext(ctx, `
        INSERT INTO withdrawal_requests (`+withdrawalColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status,
            paid_by = EXCLUDED.paid_by,
            paid_at = EXCLUDED.paid_at`,
		w.ID, w.UserID, w.Amount, string(w.Status), string(w.PaymentMethod), account, w.AccountName,
		nullInt64(w.PaidBy), nullTime(w.PaidAt), w.CreatedAt)
	if err != nil {
		log.Printf("SaveWithdrawal: %s: %v", w.ID, err)
		return fmt.Errorf("save withdrawal %s: %w", w.ID, err)
	}
	return nil
}
