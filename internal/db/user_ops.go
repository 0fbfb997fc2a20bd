package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

const userColumns = `id, chat_id, display_name, full_name, phone, category, payment_method,
        account_number, account_name, status, referred_by, referral_count, reward_balance,
        created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var referredBy sql.NullInt64
	var encryptedAccount string
	err := row.Scan(&u.ID, &u.ChatID, &u.DisplayName, &u.FullName, &u.Phone, &u.Category, &u.PaymentMethod,
		&encryptedAccount, &u.AccountName, &u.Status, &referredBy, &u.ReferralCount, &u.RewardBalance,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}
	u.ReferredBy = int64Ptr(referredBy)
	u.AccountNumber = s.decryptAccount(u.ID, encryptedAccount)
	return u, nil
}

// decryptAccount returns an empty number when the stored value cannot be decrypted.
func (s *Store) decryptAccount(userID int64, stored string) string {
	plain, err := s.cipher.Decrypt(stored)
	if err != nil {
		log.Printf("decryptAccount: user %d: %v. Returning an empty account number.", userID, err)
		return ""
	}
	return plain
}

func (s *Store) getUser(ctx context.Context, q querier, id int64, forUpdate bool) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	u, err := s.scanUser(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		log.Printf("getUser: user %d: %v", id, err)
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *Store) listUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	return s.getUser(ctx, s.db, id, false)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (s *Store) ListReferredUsers(ctx context.Context, referrerID int64) ([]models.User, error) {
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE referred_by = $1 ORDER BY created_at, id`, referrerID)
}

func (s *Store) TopReferrers(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		return s.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE referral_count > 0
            ORDER BY referral_count DESC, id`)
	}
	return s.listUsers(ctx, `SELECT `+userColumns+` FROM users WHERE referral_count > 0
        ORDER BY referral_count DESC, id LIMIT $1`, limit)
}

// Stats computes the health projection in one round trip.
func (s *Store) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM users WHERE status = $1),
            (SELECT COUNT(*) FROM payment_submissions WHERE status = $2),
            (SELECT COUNT(*) FROM withdrawal_requests WHERE status = $3),
            (SELECT COALESCE(SUM(referral_count), 0) FROM users)`,
		models.StatusVerified, models.SubmissionPending, models.WithdrawalRequested,
	).Scan(&st.Users, &st.Verified, &st.PendingSubmissions, &st.PendingWithdrawals, &st.Referrals)
	if err != nil {
		log.Printf("Stats: %v", err)
		return models.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func (t *tx) GetUser(ctx context.Context, id int64) (models.User, error) {
	return t.s.getUser(ctx, t.q, id, true)
}

// CreateUser inserts a first-contact row. If another transaction inserted the
// same id first, the insert waits for it and reports false.
func (t *tx) CreateUser(ctx context.Context, u models.User) (bool, error) {
	account, err := t.s.cipher.Encrypt(u.AccountNumber)
	if err != nil {
		return false, fmt.Errorf("encrypt account number of user %d: %w", u.ID, err)
	}
	res, err := t.q.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (id) DO NOTHING`,
		u.ID, u.ChatID, u.DisplayName, u.FullName, u.Phone, string(u.Category), string(u.PaymentMethod),
		account, u.AccountName, string(u.Status), nullInt64(u.ReferredBy), u.ReferralCount, u.RewardBalance,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		log.Printf("CreateUser: %d: %v", u.ID, err)
		return false, fmt.Errorf("create user %d: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create user %d: %w", u.ID, err)
	}
	return n == 1, nil
}

// SaveUser inserts or overwrites the user row. referred_by is never replaced once set.
func (t *tx) SaveUser(ctx context.Context, u models.User) error {
	account, err := t.s.cipher.Encrypt(u.AccountNumber)
	if err != nil {
		return fmt.Errorf("encrypt account number of user %d: %w", u.ID, err)
	}
	_, err = t.q.ExecContext(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (id) DO UPDATE SET
            chat_id = EXCLUDED.chat_id,
            display_name = EXCLUDED.display_name,
            full_name = EXCLUDED.full_name,
            phone = EXCLUDED.phone,
            category = EXCLUDED.category,
            payment_method = EXCLUDED.payment_method,
            account_number = EXCLUDED.account_number,
            account_name = EXCLUDED.account_name,
            status = EXCLUDED.status,
            referred_by = COALESCE(users.referred_by, EXCLUDED.referred_by),
            referral_count = EXCLUDED.referral_count,
            reward_balance = EXCLUDED.reward_balance,
            updated_at = EXCLUDED.updated_at`,
		u.ID, u.ChatID, u.DisplayName, u.FullName, u.Phone, string(u.Category), string(u.PaymentMethod),
		account, u.AccountName, string(u.Status), nullInt64(u.ReferredBy), u.ReferralCount, u.RewardBalance,
		u.CreatedAt, u.UpdatedAt)
	if err != nil {
		log.Printf("SaveUser: user %d: %v", u.ID, err)
		return fmt.Errorf("save user %d: %w", u.ID, err)
	}
	return nil
}
