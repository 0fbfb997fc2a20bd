// Package referral links invited users to their referrer and credits rewards.
package referral

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

// Engine computes referral linkage and reward accrual.
type Engine struct {
	store  store.Store
	reward decimal.Decimal
}

// NewEngine creates an Engine crediting reward per verified referral.
func NewEngine(s store.Store, reward decimal.Decimal) *Engine {
	return &Engine{store: s, reward: reward}
}

// Reward returns the configured amount credited per verified referral.
func (e *Engine) Reward() decimal.Decimal { return e.reward }

// Link sets newUser.ReferredBy when the link is legitimate: the user has no
// referrer yet, the referrer is someone else, and the referrer already exists.
// It reports whether the link was made. The caller saves newUser.
func (e *Engine) Link(ctx context.Context, tx store.Tx, newUser *models.User, referrerID int64) (bool, error) {
	if newUser.ReferredBy != nil || referrerID == 0 || referrerID == newUser.ID {
		return false, nil
	}
	if _, err := tx.GetUser(ctx, referrerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("referral.Link: referrer %d for user %d is unknown, link skipped", referrerID, newUser.ID)
			return false, nil
		}
		return false, fmt.Errorf("load referrer %d: %w", referrerID, err)
	}
	ref := referrerID
	newUser.ReferredBy = &ref
	log.Printf("referral.Link: user %d referred by %d", newUser.ID, referrerID)
	return true, nil
}

// Credit adds one referral and the configured reward to the referrer.
// It must only be called on a pending→approved edge so it runs once per referred user.
func (e *Engine) Credit(ctx context.Context, tx store.Tx, referrerID int64, now time.Time) (models.User, error) {
	referrer, err := tx.GetUser(ctx, referrerID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, models.ErrUnknownUser
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load referrer %d: %w", referrerID, err)
	}
	referrer.ReferralCount++
	referrer.RewardBalance = referrer.RewardBalance.Add(e.reward)
	referrer.UpdatedAt = now
	if err := tx.SaveUser(ctx, referrer); err != nil {
		return models.User{}, fmt.Errorf("save referrer %d: %w", referrerID, err)
	}
	log.Printf("referral.Credit: referrer %d now has %d referrals, balance %s", referrerID, referrer.ReferralCount, referrer.RewardBalance.StringFixed(2))
	return referrer, nil
}

// Referrals lists users who joined through userID's link.
func (e *Engine) Referrals(ctx context.Context, userID int64) ([]models.User, error) {
	return e.store.ListReferredUsers(ctx, userID)
}

// Leaderboard returns the top referrers by verified referral count.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	return e.store.TopReferrers(ctx, limit)
}
