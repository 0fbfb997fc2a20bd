// Package ledger holds the conditional transitions on payment submissions and
// withdrawal requests. Every function runs inside a caller-provided store.Tx.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

// SubmitProof records an upload for userID. A pending submission is replaced in
// place (same id, new proof), so a user never has more than one pending.
func SubmitProof(ctx context.Context, tx store.Tx, userID int64, proofRef, proofKind string, now time.Time) (models.PaymentSubmission, bool, error) {
	current, err := tx.GetPendingSubmission(ctx, userID)
	switch {
	case err == nil:
		current.ProofRef = proofRef
		current.ProofKind = proofKind
		current.UpdatedAt = now
		if err := tx.SaveSubmission(ctx, current); err != nil {
			return models.PaymentSubmission{}, false, fmt.Errorf("supersede submission %s: %w", current.ID, err)
		}
		return current, true, nil
	case errors.Is(err, store.ErrNotFound):
	default:
		return models.PaymentSubmission{}, false, fmt.Errorf("load pending submission for user %d: %w", userID, err)
	}

	sub := models.PaymentSubmission{
		ID:        uuid.New(),
		UserID:    userID,
		ProofRef:  proofRef,
		ProofKind: proofKind,
		Status:    models.SubmissionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.SaveSubmission(ctx, sub); err != nil {
		return models.PaymentSubmission{}, false, fmt.Errorf("create submission: %w", err)
	}
	return sub, false, nil
}

// Decide applies an admin decision. Only a pending submission can be decided;
// anything else returns models.ErrAlreadyProcessed and writes nothing.
func Decide(ctx context.Context, tx store.Tx, id uuid.UUID, decision models.SubmissionStatus, reviewerID int64, now time.Time) (models.PaymentSubmission, error) {
	sub, err := tx.GetSubmission(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.PaymentSubmission{}, models.ErrUnknownSubmission
	}
	if err != nil {
		return models.PaymentSubmission{}, fmt.Errorf("load submission %s: %w", id, err)
	}

	next, err := sub.Status.Decide(decision)
	if err != nil {
		return sub, err
	}
	sub.Status = next
	sub.ReviewerID = &reviewerID
	sub.DecidedAt = &now
	sub.UpdatedAt = now
	if err := tx.SaveSubmission(ctx, sub); err != nil {
		return models.PaymentSubmission{}, fmt.Errorf("save submission %s: %w", id, err)
	}
	return sub, nil
}

// Reserve deducts amount from the user's balance and opens a withdrawal request.
// The user must already be loaded through tx.
func Reserve(ctx context.Context, tx store.Tx, user *models.User, amount decimal.Decimal, now time.Time) (models.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return models.WithdrawalRequest{}, models.ErrInvalidAmount
	}
	if amount.GreaterThan(user.RewardBalance) {
		return models.WithdrawalRequest{}, models.ErrInsufficientBalance
	}

	user.RewardBalance = user.RewardBalance.Sub(amount)
	user.UpdatedAt = now
	if err := tx.SaveUser(ctx, *user); err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("save user %d: %w", user.ID, err)
	}

	w := models.WithdrawalRequest{
		ID:            uuid.New(),
		UserID:        user.ID,
		Amount:        amount,
		Status:        models.WithdrawalRequested,
		PaymentMethod: user.PaymentMethod,
		AccountNumber: user.AccountNumber,
		AccountName:   user.AccountName,
		CreatedAt:     now,
	}
	if err := tx.SaveWithdrawal(ctx, w); err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("create withdrawal: %w", err)
	}
	return w, nil
}

// MarkPaid moves a requested withdrawal to paid. A second call returns models.ErrAlreadyProcessed.
func MarkPaid(ctx context.Context, tx store.Tx, id uuid.UUID, adminID int64, now time.Time) (models.WithdrawalRequest, error) {
	w, err := tx.GetWithdrawal(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.WithdrawalRequest{}, models.ErrUnknownWithdrawal
	}
	if err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("load withdrawal %s: %w", id, err)
	}
	if w.Status != models.WithdrawalRequested {
		return w, models.ErrAlreadyProcessed
	}
	w.Status = models.WithdrawalPaid
	w.PaidBy = &adminID
	w.PaidAt = &now
	if err := tx.SaveWithdrawal(ctx, w); err != nil {
		return models.WithdrawalRequest{}, fmt.Errorf("save withdrawal %s: %w", id, err)
	}
	return w, nil
}
