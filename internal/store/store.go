// Package store defines the persistence contract shared by the Postgres and in-memory backends.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tutorbot/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// Tx is a read-modify-write unit. Records read through a Tx stay locked
// until the enclosing InTx returns; writes become visible only on success.
type Tx interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	// CreateUser inserts u unless a user with its id exists, and reports
	// whether it did. A concurrent insert of the same id is waited for.
	CreateUser(ctx context.Context, u models.User) (bool, error)
	SaveUser(ctx context.Context, u models.User) error

	GetSubmission(ctx context.Context, id uuid.UUID) (models.PaymentSubmission, error)
	// GetPendingSubmission returns the user's pending submission or ErrNotFound.
	GetPendingSubmission(ctx context.Context, userID int64) (models.PaymentSubmission, error)
	SaveSubmission(ctx context.Context, s models.PaymentSubmission) error

	GetWithdrawal(ctx context.Context, id uuid.UUID) (models.WithdrawalRequest, error)
	SaveWithdrawal(ctx context.Context, w models.WithdrawalRequest) error
}

// Store exposes transactional mutation and read-only projections.
type Store interface {
	// InTx runs fn atomically. If fn returns an error nothing it wrote is kept.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListReferredUsers(ctx context.Context, referrerID int64) ([]models.User, error)
	TopReferrers(ctx context.Context, limit int) ([]models.User, error)

	ListSubmissions(ctx context.Context, status models.SubmissionStatus) ([]models.PaymentSubmission, error)
	ListSubmissionsByUser(ctx context.Context, userID int64) ([]models.PaymentSubmission, error)
	ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error)

	Stats(ctx context.Context) (models.Stats, error)
	Close() error
}
