package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/models"
	"tutorbot/internal/referral"
	"tutorbot/internal/registration"
	"tutorbot/internal/store/memory"
)

type admins map[int64]bool

func (a admins) IsAdmin(id int64) bool { return a[id] }

const (
	adminA = int64(900)
	adminB = int64(901)
)

type fixture struct {
	store    *memory.Store
	workflow *registration.Workflow
	service  *Service
}

func newFixture() fixture {
	s := memory.New()
	engine := referral.NewEngine(s, decimal.NewFromInt(30))
	return fixture{
		store:    s,
		workflow: registration.NewWorkflow(s, engine),
		service:  NewService(s, engine, admins{adminA: true, adminB: true}),
	}
}

// onboard walks userID to pending verification and returns the submission.
func (f fixture) onboard(t *testing.T, userID, referrerID int64) models.PaymentSubmission {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.workflow.Start(ctx, userID, userID, "user", referrerID)
	require.NoError(t, err)
	_, err = f.workflow.BeginRegistration(ctx, userID)
	require.NoError(t, err)
	_, err = f.workflow.SubmitName(ctx, userID, "Student Name")
	require.NoError(t, err)
	_, err = f.workflow.SelectCategory(ctx, userID, models.CategorySocialScience)
	require.NoError(t, err)
	_, err = f.workflow.SelectPaymentMethod(ctx, userID, models.PaymentMethodTeleBirr)
	require.NoError(t, err)
	sub, _, _, err := f.workflow.UploadProof(ctx, userID, "proof", "photo")
	require.NoError(t, err)
	return sub
}

func TestApproveVerifiesAndCreditsReferrer(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, err := f.workflow.Start(ctx, 1, 1, "A", 0)
	require.NoError(t, err)
	sub := f.onboard(t, 2, 1)

	d, err := f.service.Approve(ctx, sub.ID, adminA)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionApproved, d.Submission.Status)
	require.Equal(t, adminA, *d.Submission.ReviewerID)
	require.NotNil(t, d.Submission.DecidedAt)
	require.Equal(t, models.StatusVerified, d.User.Status)
	require.NotNil(t, d.Referrer)
	require.Equal(t, 1, d.Referrer.ReferralCount)

	a, err := f.store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.ReferralCount)
	require.True(t, a.RewardBalance.Equal(decimal.NewFromInt(30)))
}

func TestSecondDecisionIsAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, err := f.workflow.Start(ctx, 1, 1, "A", 0)
	require.NoError(t, err)
	sub := f.onboard(t, 2, 1)

	_, err = f.service.Approve(ctx, sub.ID, adminA)
	require.NoError(t, err)

	_, err = f.service.Approve(ctx, sub.ID, adminB)
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)
	_, err = f.service.Reject(ctx, sub.ID, adminB)
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)

	b, err := f.store.GetUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, models.StatusVerified, b.Status)
	a, err := f.store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.ReferralCount)
	require.True(t, a.RewardBalance.Equal(decimal.NewFromInt(30)))
}

func TestConcurrentApproveCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, err := f.workflow.Start(ctx, 1, 1, "A", 0)
	require.NoError(t, err)
	sub := f.onboard(t, 2, 1)

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.service.Approve(ctx, sub.ID, adminA)
			} else {
				_, err = f.service.Approve(ctx, sub.ID, adminB)
			}
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, models.ErrAlreadyProcessed) {
				already++
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, n-1, already)
	a, err := f.store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.ReferralCount)
	require.True(t, a.RewardBalance.Equal(decimal.NewFromInt(30)))
}

func TestRejectThenResubmitCreditsOnceInTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, err := f.workflow.Start(ctx, 1, 1, "A", 0)
	require.NoError(t, err)
	first := f.onboard(t, 2, 1)

	d, err := f.service.Reject(ctx, first.ID, adminA)
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, d.User.Status)
	require.Nil(t, d.Referrer)

	second, _, superseded, err := f.workflow.UploadProof(ctx, 2, "proof-2", "photo")
	require.NoError(t, err)
	require.False(t, superseded)
	require.NotEqual(t, first.ID, second.ID)

	_, err = f.service.Approve(ctx, second.ID, adminB)
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, first.ID, adminB)
	require.ErrorIs(t, err, models.ErrAlreadyProcessed)

	a, err := f.store.GetUser(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.ReferralCount)
	require.True(t, a.RewardBalance.Equal(decimal.NewFromInt(30)))
}

func TestNonAdminAndUnknownSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub := f.onboard(t, 2, 0)

	_, err := f.service.Approve(ctx, sub.ID, 2)
	require.ErrorIs(t, err, models.ErrNotAdmin)
	_, err = f.service.Details(ctx, 2, 2)
	require.ErrorIs(t, err, models.ErrNotAdmin)

	_, err = f.service.Reject(ctx, uuid.New(), adminA)
	require.ErrorIs(t, err, models.ErrUnknownSubmission)

	_, err = f.service.Details(ctx, adminA, 12345)
	require.ErrorIs(t, err, models.ErrUnknownUser)

	b, err := f.store.GetUser(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingVerification, b.Status)
}

func TestDetailsQueueAndExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, err := f.workflow.Start(ctx, 1, 1, "A", 0)
	require.NoError(t, err)
	sub := f.onboard(t, 2, 1)

	queue, err := f.service.PendingQueue(ctx, adminA)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, sub.ID, queue[0].ID)

	details, err := f.service.Details(ctx, adminA, 1)
	require.NoError(t, err)
	require.Len(t, details.Referrals, 1)
	require.Empty(t, details.Submissions)

	snap, err := f.service.Export(ctx, adminA)
	require.NoError(t, err)
	require.Len(t, snap.Users, 2)
	require.Len(t, snap.Submissions, 1)

	st, err := f.service.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, st.Users)
	require.Equal(t, 1, st.PendingSubmissions)
}
