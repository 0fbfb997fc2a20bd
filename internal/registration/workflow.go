// Package registration advances a user through onboarding.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"tutorbot/internal/ledger"
	"tutorbot/internal/models"
	"tutorbot/internal/referral"
	"tutorbot/internal/store"
	"tutorbot/internal/utils"
)

// Workflow is the onboarding state machine driver. Every operation is a single
// store transaction: load the user, check the transition, apply, save.
type Workflow struct {
	store    store.Store
	referral *referral.Engine
	now      func() time.Time
}

// NewWorkflow creates a Workflow.
func NewWorkflow(s store.Store, engine *referral.Engine) *Workflow {
	return &Workflow{store: s, referral: engine, now: time.Now}
}

// Start registers a first contact, linking the referrer when this is the
// user's first appearance. created reports whether the user was new.
// Returning users get their chat id and display name refreshed.
func (w *Workflow) Start(ctx context.Context, userID, chatID int64, displayName string, referrerID int64) (models.User, bool, error) {
	var (
		user    models.User
		created bool
	)
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		now := w.now()
		existing, err := tx.GetUser(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			fresh := models.User{
				ID:            userID,
				ChatID:        chatID,
				DisplayName:   displayName,
				Status:        models.StatusNew,
				RewardBalance: decimal.Zero,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if _, err := w.referral.Link(ctx, tx, &fresh, referrerID); err != nil {
				return err
			}
			var inserted bool
			if inserted, err = tx.CreateUser(ctx, fresh); err != nil {
				return err
			}
			if inserted {
				user, created = fresh, true
				return nil
			}
			// A concurrent first contact created the row; its referral link stands.
			existing, err = tx.GetUser(ctx, userID)
		}
		if err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}

		user = existing
		user.ChatID = chatID
		if displayName != "" {
			user.DisplayName = displayName
		}
		user.UpdatedAt = now
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		log.Printf("Workflow.Start: user %d: %v", userID, err)
		return models.User{}, false, err
	}
	if created {
		log.Printf("Workflow.Start: new user %d (chat %d), referredBy=%v", userID, chatID, user.ReferredBy != nil)
	}
	return user, created, nil
}

// BeginRegistration moves a new user to name collection.
func (w *Workflow) BeginRegistration(ctx context.Context, userID int64) (models.User, error) {
	return w.transition(ctx, userID, models.EventBeginRegistration, nil)
}

// SubmitName stores the typed name and asks for the category next.
// The state is checked before the text, so stray chat outside name
// collection is an invalid transition rather than a bad name.
func (w *Workflow) SubmitName(ctx context.Context, userID int64, name string) (models.User, error) {
	return w.transition(ctx, userID, models.EventNameEntered, func(u *models.User) error {
		clean, err := utils.ValidateName(name)
		if err != nil {
			return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		u.FullName = clean
		return nil
	})
}

// SetPhone stores a shared contact number. It does not change the onboarding step.
func (w *Workflow) SetPhone(ctx context.Context, userID int64, phone string) (models.User, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" {
		return models.User{}, fmt.Errorf("%w: empty phone number", models.ErrInvalidInput)
	}
	var user models.User
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		u.Phone = phone
		u.UpdatedAt = w.now()
		user = u
		return tx.SaveUser(ctx, u)
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// SelectCategory stores the tutorial stream.
func (w *Workflow) SelectCategory(ctx context.Context, userID int64, category models.Category) (models.User, error) {
	if !category.Valid() {
		return models.User{}, fmt.Errorf("%w: category %q", models.ErrInvalidInput, category)
	}
	return w.transition(ctx, userID, models.EventCategorySelected, func(u *models.User) error {
		u.Category = category
		return nil
	})
}

// SelectPaymentMethod stores the fee channel; the user is then shown the payee
// account and awaits proof. Choosing again while awaiting proof just switches channel.
func (w *Workflow) SelectPaymentMethod(ctx context.Context, userID int64, method models.PaymentMethod) (models.User, error) {
	if !method.Valid() {
		return models.User{}, fmt.Errorf("%w: payment method %q", models.ErrInvalidInput, method)
	}
	return w.transition(ctx, userID, models.EventMethodSelected, func(u *models.User) error {
		u.PaymentMethod = method
		return nil
	})
}

// BackToPaymentMethod returns an unpaid user to the payment method choice.
func (w *Workflow) BackToPaymentMethod(ctx context.Context, userID int64) (models.User, error) {
	return w.transition(ctx, userID, models.EventBackToMethod, nil)
}

// UploadProof records a payment screenshot. A pending submission is replaced,
// reported by superseded.
func (w *Workflow) UploadProof(ctx context.Context, userID int64, proofRef, proofKind string) (models.PaymentSubmission, models.User, bool, error) {
	var (
		sub        models.PaymentSubmission
		user       models.User
		superseded bool
	)
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u
		next, err := u.Status.Apply(models.EventProofUploaded)
		if err != nil {
			return err
		}
		now := w.now()
		sub, superseded, err = ledger.SubmitProof(ctx, tx, userID, proofRef, proofKind, now)
		if err != nil {
			return err
		}
		u.Status = next
		u.UpdatedAt = now
		user = u
		return tx.SaveUser(ctx, u)
	})
	if err != nil {
		if !errors.Is(err, models.ErrInvalidTransition) {
			log.Printf("Workflow.UploadProof: user %d: %v", userID, err)
		}
		return models.PaymentSubmission{}, user, false, err
	}
	log.Printf("Workflow.UploadProof: user %d submission %s (superseded=%t)", userID, sub.ID, superseded)
	return sub, user, superseded, nil
}

// StartOver discards in-progress selections and restarts at name collection.
// Verified and pending users cannot restart.
func (w *Workflow) StartOver(ctx context.Context, userID int64) (models.User, error) {
	return w.transition(ctx, userID, models.EventStartOver, func(u *models.User) error {
		u.FullName = ""
		u.Category = models.CategoryNone
		u.PaymentMethod = models.PaymentMethodNone
		return nil
	})
}

// Profile returns the stored user.
func (w *Workflow) Profile(ctx context.Context, userID int64) (models.User, error) {
	u, err := w.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, models.ErrUnknownUser
	}
	return u, err
}

// transition is the guarded read-modify-write shared by the simple steps.
// On ErrInvalidTransition the unchanged user is returned so callers can re-prompt.
func (w *Workflow) transition(ctx context.Context, userID int64, ev models.UserEvent, mutate func(*models.User) error) (models.User, error) {
	var user models.User
	err := w.store.InTx(ctx, func(tx store.Tx) error {
		u, err := loadUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		user = u
		next, err := u.Status.Apply(ev)
		if err != nil {
			return err
		}
		if mutate != nil {
			if err := mutate(&u); err != nil {
				return err
			}
		}
		u.Status = next
		u.UpdatedAt = w.now()
		user = u
		return tx.SaveUser(ctx, u)
	})
	if err != nil && !errors.Is(err, models.ErrInvalidTransition) && !errors.Is(err, models.ErrInvalidInput) {
		log.Printf("Workflow.transition: user %d event %s: %v", userID, ev, err)
	}
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
