package db

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/models"
	"tutorbot/internal/moderation"
	"tutorbot/internal/referral"
	"tutorbot/internal/registration"
	"tutorbot/internal/store"
	"tutorbot/internal/utils"
	"tutorbot/internal/withdrawal"
)

type adminList []int64

func (a adminList) IsAdmin(id int64) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// openTestStore connects to DATABASE_URL. Run with RUN_DB_INTEGRATION=true.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}
	_ = godotenv.Load("../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := utils.NewAccountCipher(hex.EncodeToString(key))
	require.NoError(t, err)

	s, err := Open(context.Background(), dbURL, cipher)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// uniqueID keeps runs from colliding on a shared database.
func uniqueID() int64 {
	return time.Now().UnixNano() / 1000
}

func TestUserRoundTripEncryptsAccount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uniqueID()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := models.User{
		ID: id, ChatID: id, FullName: "Abel", Status: models.StatusVerified,
		PaymentMethod: models.PaymentMethodTeleBirr, AccountNumber: "0911223344", AccountName: "Abel T",
		RewardBalance: decimal.RequireFromString("30.50"), CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error { return tx.SaveUser(ctx, u) }))

	got, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "0911223344", got.AccountNumber)
	require.True(t, got.RewardBalance.Equal(u.RewardBalance))
	require.Nil(t, got.ReferredBy)

	var raw string
	require.NoError(t, s.db.QueryRowContext(ctx, `SELECT account_number FROM users WHERE id = $1`, id).Scan(&raw))
	require.NotEqual(t, "0911223344", raw)
}

func TestFailedTransactionWritesNothing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uniqueID()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx store.Tx) error {
		if err := tx.SaveUser(ctx, models.User{ID: id, ChatID: id, Status: models.StatusNew, CreatedAt: time.Now(), UpdatedAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetUser(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentApprovalCreditsOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	engine := referral.NewEngine(s, decimal.NewFromInt(30))
	reg := registration.NewWorkflow(s, engine)
	admins := adminList{1, 2, 3}
	mod := moderation.NewService(s, engine, admins)

	referrerID := uniqueID()
	refereeID := referrerID + 1
	_, _, err := reg.Start(ctx, referrerID, referrerID, "A", 0)
	require.NoError(t, err)
	_, _, err = reg.Start(ctx, refereeID, refereeID, "B", referrerID)
	require.NoError(t, err)
	_, err = reg.BeginRegistration(ctx, refereeID)
	require.NoError(t, err)
	_, err = reg.SubmitName(ctx, refereeID, "Bethel")
	require.NoError(t, err)
	_, err = reg.SelectCategory(ctx, refereeID, models.CategorySocialScience)
	require.NoError(t, err)
	_, err = reg.SelectPaymentMethod(ctx, refereeID, models.PaymentMethodCBEBirr)
	require.NoError(t, err)
	sub, _, _, err := reg.UploadProof(ctx, refereeID, "file", utils.ProofKindPhoto)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(admin int64) {
			defer wg.Done()
			_, err := mod.Approve(ctx, sub.ID, admin)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrAlreadyProcessed):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(admins[i%len(admins)])
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, already)
	referrer, err := s.GetUser(ctx, referrerID)
	require.NoError(t, err)
	require.Equal(t, 1, referrer.ReferralCount)
	require.True(t, referrer.RewardBalance.Equal(decimal.NewFromInt(30)))
}

func TestConcurrentFirstContactKeepsReferral(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	reg := registration.NewWorkflow(s, referral.NewEngine(s, decimal.NewFromInt(30)))

	referrerID := uniqueID()
	_, _, err := reg.Start(ctx, referrerID, referrerID, "A", 0)
	require.NoError(t, err)

	for round := int64(1); round <= 5; round++ {
		userID := referrerID + round
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(ref int64) {
				defer wg.Done()
				if _, _, err := reg.Start(ctx, userID, userID, "B", ref); err != nil {
					t.Errorf("start %d: %v", userID, err)
				}
			}(referrerID * int64(i%2))
		}
		wg.Wait()

		first, err := s.GetUser(ctx, userID)
		require.NoError(t, err)
		if first.ReferredBy != nil {
			require.Equal(t, referrerID, *first.ReferredBy)
		}

		_, _, err = reg.Start(ctx, userID, userID, "B", 0)
		require.NoError(t, err)
		after, err := s.GetUser(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, first.ReferredBy, after.ReferredBy)
	}
}

func TestSaveUserNeverClearsReferral(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ref := uniqueID()
	id := ref + 1
	now := time.Now()

	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, models.User{ID: ref, ChatID: ref, Status: models.StatusNew, CreatedAt: now, UpdatedAt: now})
	}))
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		ok, err := tx.CreateUser(ctx, models.User{ID: id, ChatID: id, Status: models.StatusNew, ReferredBy: &ref, CreatedAt: now, UpdatedAt: now})
		require.True(t, ok)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		ok, err := tx.CreateUser(ctx, models.User{ID: id, ChatID: id, Status: models.StatusNew, CreatedAt: now, UpdatedAt: now})
		require.False(t, ok)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, models.User{ID: id, ChatID: id, Status: models.StatusNew, CreatedAt: now, UpdatedAt: now})
	}))

	got, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.ReferredBy)
	require.Equal(t, ref, *got.ReferredBy)
}

func TestConcurrentWithdrawalsReserveOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uniqueID()
	now := time.Now()
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, models.User{ID: id, ChatID: id, Status: models.StatusVerified,
			RewardBalance: decimal.NewFromInt(30), CreatedAt: now, UpdatedAt: now})
	}))
	w := withdrawal.NewWorkflow(s, adminList{1})

	const workers = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, insufficient := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := w.RequestWithdrawal(ctx, id, decimal.NewFromInt(30))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, models.ErrInsufficientBalance):
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, ok)
	require.Equal(t, workers-1, insufficient)
	u, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	require.True(t, u.RewardBalance.IsZero())

	var rows int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = $1 AND status = $2`,
		id, string(models.WithdrawalRequested)).Scan(&rows))
	require.Equal(t, 1, rows)
}
