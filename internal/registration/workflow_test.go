package registration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/models"
	"tutorbot/internal/referral"
	"tutorbot/internal/store/memory"
)

func newWorkflow() (*Workflow, *memory.Store) {
	s := memory.New()
	return NewWorkflow(s, referral.NewEngine(s, decimal.NewFromInt(30))), s
}

func TestStartCreatesOnceAndLinksReferrer(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()

	a, created, err := w.Start(ctx, 1, 1, "Abel", 0)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.StatusNew, a.Status)
	require.Nil(t, a.ReferredBy)

	b, created, err := w.Start(ctx, 2, 2, "Bethel", 1)
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, b.ReferredBy)
	require.Equal(t, int64(1), *b.ReferredBy)

	// A later /start with another payload never rewrites the link.
	b, created, err = w.Start(ctx, 2, 2, "Bethel", 3)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, int64(1), *b.ReferredBy)
}

func TestStartIgnoresSelfAndUnknownReferrer(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()

	u, _, err := w.Start(ctx, 5, 5, "Self", 5)
	require.NoError(t, err)
	require.Nil(t, u.ReferredBy)

	u, _, err = w.Start(ctx, 6, 6, "Ghost", 999)
	require.NoError(t, err)
	require.Nil(t, u.ReferredBy)
}

func TestHappyPathToPendingVerification(t *testing.T) {
	ctx := context.Background()
	w, s := newWorkflow()

	_, _, err := w.Start(ctx, 1, 1, "abel_t", 0)
	require.NoError(t, err)

	u, err := w.BeginRegistration(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusCollectingName, u.Status)

	u, err = w.SubmitName(ctx, 1, "  Abel   Tesfaye ")
	require.NoError(t, err)
	require.Equal(t, models.StatusCollectingCategory, u.Status)
	require.Equal(t, "Abel Tesfaye", u.FullName)

	u, err = w.SetPhone(ctx, 1, "251 911 223344")
	require.NoError(t, err)
	require.Equal(t, "+251911223344", u.Phone)
	require.Equal(t, models.StatusCollectingCategory, u.Status)

	u, err = w.SelectCategory(ctx, 1, models.CategoryNaturalScience)
	require.NoError(t, err)
	require.Equal(t, models.StatusCollectingPaymentMethod, u.Status)

	u, err = w.SelectPaymentMethod(ctx, 1, models.PaymentMethodTeleBirr)
	require.NoError(t, err)
	require.Equal(t, models.StatusAwaitingProof, u.Status)

	sub, u, superseded, err := w.UploadProof(ctx, 1, "file-1", "photo")
	require.NoError(t, err)
	require.False(t, superseded)
	require.Equal(t, models.StatusPendingVerification, u.Status)
	require.Equal(t, models.SubmissionPending, sub.Status)

	again, _, superseded, err := w.UploadProof(ctx, 1, "file-2", "document")
	require.NoError(t, err)
	require.True(t, superseded)
	require.Equal(t, sub.ID, again.ID)

	pending, err := s.ListSubmissions(ctx, models.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "file-2", pending[0].ProofRef)
}

func TestOutOfOrderActionsAreInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()
	_, _, err := w.Start(ctx, 1, 1, "x", 0)
	require.NoError(t, err)

	u, err := w.SelectCategory(ctx, 1, models.CategorySocialScience)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	require.Equal(t, models.StatusNew, u.Status)
	require.Equal(t, models.CategoryNone, u.Category)

	_, _, _, err = w.UploadProof(ctx, 1, "file", "photo")
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	u, err = w.SubmitName(ctx, 1, "Abel")
	require.NoError(t, err)
	require.Equal(t, models.StatusCollectingCategory, u.Status)

	_, err = w.SubmitName(ctx, 1, "Abel Again")
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestInvalidInputAndUnknownUser(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()

	_, err := w.SubmitName(ctx, 42, "Abel")
	require.ErrorIs(t, err, models.ErrUnknownUser)

	_, _, err = w.Start(ctx, 1, 1, "x", 0)
	require.NoError(t, err)
	_, err = w.BeginRegistration(ctx, 1)
	require.NoError(t, err)

	_, err = w.SubmitName(ctx, 1, "A")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = w.SelectCategory(ctx, 1, "Arts")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = w.SelectPaymentMethod(ctx, 1, "Cash")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestStartOverClearsSelections(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()
	_, _, err := w.Start(ctx, 1, 1, "x", 0)
	require.NoError(t, err)
	_, err = w.BeginRegistration(ctx, 1)
	require.NoError(t, err)
	_, err = w.SubmitName(ctx, 1, "Abel")
	require.NoError(t, err)
	_, err = w.SelectCategory(ctx, 1, models.CategorySocialScience)
	require.NoError(t, err)

	u, err := w.StartOver(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, models.StatusCollectingName, u.Status)
	require.Empty(t, u.FullName)
	require.Equal(t, models.CategoryNone, u.Category)

	_, err = w.SelectPaymentMethod(ctx, 1, models.PaymentMethodCBEBirr)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestStartOverRefusedWhilePending(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkflow()
	_, _, err := w.Start(ctx, 1, 1, "x", 0)
	require.NoError(t, err)
	_, err = w.BeginRegistration(ctx, 1)
	require.NoError(t, err)
	_, err = w.SubmitName(ctx, 1, "Abel")
	require.NoError(t, err)
	_, err = w.SelectCategory(ctx, 1, models.CategorySocialScience)
	require.NoError(t, err)
	_, err = w.SelectPaymentMethod(ctx, 1, models.PaymentMethodCBEBirr)
	require.NoError(t, err)
	_, _, _, err = w.UploadProof(ctx, 1, "f", "photo")
	require.NoError(t, err)

	u, err := w.StartOver(ctx, 1)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	require.Equal(t, models.StatusPendingVerification, u.Status)
	require.Equal(t, "Abel", u.FullName)
}
