package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmissionStatus is the review state of a payment proof.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Decide moves a pending submission to a terminal state.
// Any other predecessor yields ErrAlreadyProcessed.
func (s SubmissionStatus) Decide(to SubmissionStatus) (SubmissionStatus, error) {
	if to != SubmissionApproved && to != SubmissionRejected {
		return s, fmt.Errorf("decision %q: %w", to, ErrInvalidTransition)
	}
	if s != SubmissionPending {
		return s, ErrAlreadyProcessed
	}
	return to, nil
}

// PaymentSubmission is one proof-of-payment upload.
type PaymentSubmission struct {
	ID         uuid.UUID
	UserID     int64
	ProofRef   string // transport file handle of the screenshot
	ProofKind  string // "photo" or "document"
	Status     SubmissionStatus
	ReviewerID *int64
	DecidedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WithdrawalStatus is the payout state of a reward withdrawal.
type WithdrawalStatus string

const (
	WithdrawalRequested WithdrawalStatus = "requested"
	WithdrawalPaid      WithdrawalStatus = "paid"
)

// WithdrawalRequest is a payout ask. Amount was reserved from the balance at creation.
type WithdrawalRequest struct {
	ID            uuid.UUID
	UserID        int64
	Amount        decimal.Decimal
	Status        WithdrawalStatus
	PaymentMethod PaymentMethod
	AccountNumber string
	AccountName   string
	PaidBy        *int64
	PaidAt        *time.Time
	CreatedAt     time.Time
}
