package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

const submissionColumns = `id, user_id, proof_ref, proof_kind, status, reviewer_id, decided_at, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

func scanSubmission(row rowScanner) (models.PaymentSubmission, error) {
	var sub models.PaymentSubmission
	var reviewer sql.NullInt64
	var decidedAt sql.NullTime
	err := row.Scan(&sub.ID, &sub.UserID, &sub.ProofRef, &sub.ProofKind, &sub.Status, &reviewer, &decidedAt,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return models.PaymentSubmission{}, err
	}
	sub.ReviewerID = int64Ptr(reviewer)
	sub.DecidedAt = timePtr(decidedAt)
	return sub, nil
}

func (s *Store) listSubmissions(ctx context.Context, query string, args ...interface{}) ([]models.PaymentSubmission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var out []models.PaymentSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ListSubmissions returns submissions oldest first. An empty status returns all of them.
func (s *Store) ListSubmissions(ctx context.Context, status models.SubmissionStatus) ([]models.PaymentSubmission, error) {
	if status == "" {
		return s.listSubmissions(ctx, `SELECT `+submissionColumns+` FROM payment_submissions ORDER BY created_at`)
	}
	return s.listSubmissions(ctx, `SELECT `+submissionColumns+` FROM payment_submissions
        WHERE status = $1 ORDER BY created_at`, string(status))
}

// ListSubmissionsByUser returns the user's submissions newest first.
func (s *Store) ListSubmissionsByUser(ctx context.Context, userID int64) ([]models.PaymentSubmission, error) {
	return s.listSubmissions(ctx, `SELECT `+submissionColumns+` FROM payment_submissions
        WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (t *tx) GetSubmission(ctx context.Context, id uuid.UUID) (models.PaymentSubmission, error) {
	sub, err := scanSubmission(t.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM payment_submissions WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentSubmission{}, store.ErrNotFound
	}
	if err != nil {
		return models.PaymentSubmission{}, fmt.Errorf("get submission %s: %w", id, err)
	}
	return sub, nil
}

func (t *tx) GetPendingSubmission(ctx context.Context, userID int64) (models.PaymentSubmission, error) {
	sub, err := scanSubmission(t.q.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM payment_submissions WHERE user_id = $1 AND status = $2 FOR UPDATE`,
		userID, string(models.SubmissionPending)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.PaymentSubmission{}, store.ErrNotFound
	}
	if err != nil {
		return models.PaymentSubmission{}, fmt.Errorf("get pending submission of user %d: %w", userID, err)
	}
	return sub, nil
}

// SaveSubmission upserts sub. A second pending row for the same user is refused
// by the partial unique index and reported as an invalid transition.
func (t *tx) SaveSubmission(ctx context.Context, sub models.PaymentSubmission) error {
	_, err := t.q.ExecContext(ctx, `
        INSERT INTO payment_submissions (`+submissionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            proof_ref = EXCLUDED.proof_ref,
            proof_kind = EXCLUDED.proof_kind,
            status = EXCLUDED.status,
            reviewer_id = EXCLUDED.reviewer_id,
            decided_at = EXCLUDED.decided_at,
            updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.UserID, sub.ProofRef, sub.ProofKind, string(sub.Status), nullInt64(sub.ReviewerID),
		nullTime(sub.DecidedAt), sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("user %d already has a pending submission: %w", sub.UserID, models.ErrInvalidTransition)
		}
		log.Printf("SaveSubmission: %s: %v", sub.ID, err)
		return fmt.Errorf("save submission %s: %w", sub.ID, err)
	}
	return nil
}
