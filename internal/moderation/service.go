// Package moderation implements admin review of payment submissions.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tutorbot/internal/ledger"
	"tutorbot/internal/models"
	"tutorbot/internal/referral"
	"tutorbot/internal/store"
)

// Authorizer decides who may moderate. *config.Config satisfies it.
type Authorizer interface {
	IsAdmin(userID int64) bool
}

// Decision is the outcome of a successful approve or reject.
// Referrer is set only when an approval credited someone.
type Decision struct {
	Submission models.PaymentSubmission
	User       models.User
	Referrer   *models.User
}

// UserDetails is the read-only view shown to an admin.
type UserDetails struct {
	User        models.User
	Submissions []models.PaymentSubmission
	Referrals   []models.User
}

// Service approves and rejects submissions exactly once.
type Service struct {
	store    store.Store
	referral *referral.Engine
	admins   Authorizer
	now      func() time.Time
}

// NewService creates a Service.
func NewService(s store.Store, engine *referral.Engine, admins Authorizer) *Service {
	return &Service{store: s, referral: engine, admins: admins, now: time.Now}
}

// IsAdmin reports whether userID may moderate.
func (s *Service) IsAdmin(userID int64) bool {
	return s.admins != nil && s.admins.IsAdmin(userID)
}

// Approve verifies the submission's owner and credits their referrer.
// A submission that is no longer pending yields models.ErrAlreadyProcessed.
func (s *Service) Approve(ctx context.Context, submissionID uuid.UUID, adminID int64) (Decision, error) {
	return s.decide(ctx, submissionID, adminID, models.SubmissionApproved)
}

// Reject sends the owner back to proof collection.
func (s *Service) Reject(ctx context.Context, submissionID uuid.UUID, adminID int64) (Decision, error) {
	return s.decide(ctx, submissionID, adminID, models.SubmissionRejected)
}

func (s *Service) decide(ctx context.Context, submissionID uuid.UUID, adminID int64, to models.SubmissionStatus) (Decision, error) {
	if !s.IsAdmin(adminID) {
		return Decision{}, models.ErrNotAdmin
	}

	var d Decision
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		now := s.now()
		sub, err := ledger.Decide(ctx, tx, submissionID, to, adminID, now)
		if err != nil {
			return err
		}
		d.Submission = sub

		user, err := tx.GetUser(ctx, sub.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return models.ErrUnknownUser
		}
		if err != nil {
			return fmt.Errorf("load user %d: %w", sub.UserID, err)
		}

		ev := models.EventApproved
		if to == models.SubmissionRejected {
			ev = models.EventRejected
		}
		next, err := user.Status.Apply(ev)
		if err != nil {
			// The submission is pending but the user is not: the records disagree.
			return fmt.Errorf("user %d inconsistent with submission %s: %w", user.ID, sub.ID, err)
		}
		user.Status = next
		user.UpdatedAt = now
		if err := tx.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("save user %d: %w", user.ID, err)
		}
		d.User = user

		if to == models.SubmissionApproved && user.ReferredBy != nil {
			referrer, err := s.referral.Credit(ctx, tx, *user.ReferredBy, now)
			if err != nil {
				return err
			}
			d.Referrer = &referrer
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrAlreadyProcessed) {
			log.Printf("Service.decide: submission %s already processed (admin %d, wanted %s)", submissionID, adminID, to)
		} else {
			log.Printf("Service.decide: submission %s by admin %d: %v", submissionID, adminID, err)
		}
		return Decision{}, err
	}
	log.Printf("Service.decide: submission %s %s by admin %d, user %d now %s", submissionID, to, adminID, d.User.ID, d.User.Status)
	return d, nil
}

// Details is a read-only projection of one user for an admin.
func (s *Service) Details(ctx context.Context, adminID, userID int64) (UserDetails, error) {
	if !s.IsAdmin(adminID) {
		return UserDetails{}, models.ErrNotAdmin
	}
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return UserDetails{}, models.ErrUnknownUser
	}
	if err != nil {
		return UserDetails{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	subs, err := s.store.ListSubmissionsByUser(ctx, userID)
	if err != nil {
		return UserDetails{}, fmt.Errorf("list submissions of %d: %w", userID, err)
	}
	refs, err := s.referral.Referrals(ctx, userID)
	if err != nil {
		return UserDetails{}, fmt.Errorf("list referrals of %d: %w", userID, err)
	}
	return UserDetails{User: user, Submissions: subs, Referrals: refs}, nil
}

// PendingQueue lists submissions awaiting review, oldest first.
func (s *Service) PendingQueue(ctx context.Context, adminID int64) ([]models.PaymentSubmission, error) {
	if !s.IsAdmin(adminID) {
		return nil, models.ErrNotAdmin
	}
	return s.store.ListSubmissions(ctx, models.SubmissionPending)
}

// Stats returns the health projection.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	return s.store.Stats(ctx)
}

// Snapshot collects every record for an admin export.
type Snapshot struct {
	Users       []models.User
	Submissions []models.PaymentSubmission
	Withdrawals []models.WithdrawalRequest
}

// Export returns a full snapshot for reporting.
func (s *Service) Export(ctx context.Context, adminID int64) (Snapshot, error) {
	if !s.IsAdmin(adminID) {
		return Snapshot{}, models.ErrNotAdmin
	}
	var snap Snapshot
	var err error
	if snap.Users, err = s.store.ListUsers(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("list users: %w", err)
	}
	if snap.Submissions, err = s.store.ListSubmissions(ctx, ""); err != nil {
		return Snapshot{}, fmt.Errorf("list submissions: %w", err)
	}
	if snap.Withdrawals, err = s.store.ListWithdrawals(ctx, ""); err != nil {
		return Snapshot{}, fmt.Errorf("list withdrawals: %w", err)
	}
	return snap, nil
}
