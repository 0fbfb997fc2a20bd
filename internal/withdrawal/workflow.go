// Package withdrawal handles reward payouts and payout destination details.
package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tutorbot/internal/ledger"
	"tutorbot/internal/models"
	"tutorbot/internal/store"
	"tutorbot/internal/utils"
)

// Authorizer decides who may mark payouts as paid.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// Workflow reserves rewards into withdrawal requests and edits payout details.
type Workflow struct {
	store  store.Store
	admins Authorizer
	now    func() time.Time
}

// NewWorkflow creates a Workflow.
func NewWorkflow(s store.Store, admins Authorizer) *Workflow {
	return &Workflow{store: s, admins: admins, now: time.Now}
}

// RequestWithdrawal deducts amount from the balance and opens a request.
// amount above the balance fails with models.ErrInsufficientBalance and changes nothing.
func (w *Workflow) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal) (models.WithdrawalRequest, models.User, error) {
	var (
		req  models.WithdrawalRequest
		user models.User
	)
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u
		req, err = ledger.Reserve(ctx, tx, &u, amount, w.now())
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		log.Printf("Workflow.RequestWithdrawal: user %d amount %s: %v", userID, amount.String(), err)
		return models.WithdrawalRequest{}, user, err
	}
	log.Printf("Workflow.RequestWithdrawal: user %d reserved %s (request %s), balance now %s",
		userID, amount.StringFixed(2), req.ID, user.RewardBalance.StringFixed(2))
	return req, user, nil
}

// ChangePaymentMethod switches the payout channel of a verified user and clears
// the old account details.
func (w *Workflow) ChangePaymentMethod(ctx context.Context, userID int64, method models.PaymentMethod) (models.User, error) {
	if !method.Valid() {
		return models.User{}, fmt.Errorf("%w: payment method %q", models.ErrInvalidInput, method)
	}
	return w.updateVerified(ctx, userID, func(u *models.User) {
		if u.PaymentMethod != method {
			u.AccountNumber = ""
			u.AccountName = ""
		}
		u.PaymentMethod = method
	})
}

// SetAccountNumber stores the payout account number.
func (w *Workflow) SetAccountNumber(ctx context.Context, userID int64, raw string) (models.User, error) {
	number, err := utils.ValidateAccountNumber(raw)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return w.updateVerified(ctx, userID, func(u *models.User) {
		u.AccountNumber = number
	})
}

// SetAccountName stores the payout account holder name.
func (w *Workflow) SetAccountName(ctx context.Context, userID int64, raw string) (models.User, error) {
	name, err := utils.ValidateName(raw)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return w.updateVerified(ctx, userID, func(u *models.User) {
		u.AccountName = name
	})
}

// MarkPaid records that an admin paid a request out.
func (w *Workflow) MarkPaid(ctx context.Context, id uuid.UUID, adminID int64) (models.WithdrawalRequest, error) {
	if w.admins == nil || !w.admins.IsAdmin(adminID) {
		return models.WithdrawalRequest{}, models.ErrNotAdmin
	}
	var req models.WithdrawalRequest
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		var err error
		req, err = ledger.MarkPaid(ctx, tx, id, adminID, w.now())
		return err
	})
	if err != nil {
		log.Printf("Workflow.MarkPaid: request %s by admin %d: %v", id, adminID, err)
		return models.WithdrawalRequest{}, err
	}
	log.Printf("Workflow.MarkPaid: request %s paid by admin %d", id, adminID)
	return req, nil
}

// Pending lists requests waiting for payout.
func (w *Workflow) Pending(ctx context.Context) ([]models.WithdrawalRequest, error) {
	return w.store.ListWithdrawals(ctx, models.WithdrawalRequested)
}

// updateVerified edits payout fields; only verified users have them.
func (w *Workflow) updateVerified(ctx context.Context, userID int64, mutate func(*models.User)) (models.User, error) {
	var user models.User
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u
		if !u.IsVerified() {
			return fmt.Errorf("payout details for %s user: %w", u.Status, models.ErrInvalidTransition)
		}
		mutate(&u)
		u.UpdatedAt = w.now()
		user = u
		return tx.SaveUser(ctx, u)
	})
	return user, err
}

func loadUser(ctx context.Context, tx store.Tx, userID int64) (models.User, error) {
	u, err := tx.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, models.ErrUnknownUser
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	return u, nil
}
