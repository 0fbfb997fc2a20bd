package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
	"tutorbot/internal/store/memory"
)

func TestSubmitProofSupersedesPending(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now()

	var first, second models.PaymentSubmission
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var superseded bool
		var err error
		first, superseded, err = SubmitProof(ctx, tx, 1, "file-a", "photo", now)
		require.False(t, superseded)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var superseded bool
		var err error
		second, superseded, err = SubmitProof(ctx, tx, 1, "file-b", "photo", now.Add(time.Minute))
		require.True(t, superseded)
		return err
	}))

	require.Equal(t, first.ID, second.ID)
	pending, err := s.ListSubmissions(ctx, models.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "file-b", pending[0].ProofRef)
}

func TestDecideIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now()

	var sub models.PaymentSubmission
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		var err error
		sub, _, err = SubmitProof(ctx, tx, 1, "file", "photo", now)
		return err
	}))

	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		_, err := Decide(ctx, tx, sub.ID, models.SubmissionApproved, 100, now)
		return err
	}))
	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := Decide(ctx, tx, sub.ID, models.SubmissionRejected, 200, now)
		return err
	})
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)

	subs, err := s.ListSubmissions(ctx, models.SubmissionApproved)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, int64(100), *subs[0].ReviewerID)
}

func TestDecideUnknownSubmission(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	err := s.InTx(ctx, func(tx store.Tx) error {
		_, err := Decide(ctx, tx, uuid.New(), models.SubmissionApproved, 1, time.Now())
		return err
	})
	require.ErrorIs(t, err, models.ErrUnknownSubmission)
}

func TestReserveChecksBalance(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	now := time.Now()
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, models.User{ID: 1, RewardBalance: decimal.NewFromInt(30)})
	}))

	err := s.InTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, 1)
		require.NoError(t, err)
		_, err = Reserve(ctx, tx, &u, decimal.NewFromInt(31), now)
		return err
	})
	require.ErrorIs(t, err, models.ErrInsufficientBalance)

	err = s.InTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, 1)
		require.NoError(t, err)
		_, err = Reserve(ctx, tx, &u, decimal.Zero, now)
		return err
	})
	require.ErrorIs(t, err, models.ErrInvalidAmount)

	var w models.WithdrawalRequest
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, 1)
		require.NoError(t, err)
		w, err = Reserve(ctx, tx, &u, decimal.NewFromInt(30), now)
		return err
	}))
	u, err := s.GetUser(ctx, 1)
	require.NoError(t, err)
	require.True(t, u.RewardBalance.IsZero())
	require.Equal(t, models.WithdrawalRequested, w.Status)

	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		_, err := MarkPaid(ctx, tx, w.ID, 100, now)
		return err
	}))
	err = s.InTx(ctx, func(tx store.Tx) error {
		_, err := MarkPaid(ctx, tx, w.ID, 100, now)
		return err
	})
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)
}
