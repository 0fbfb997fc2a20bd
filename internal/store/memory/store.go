// Package memory is an in-process Store used in development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"tutorbot/internal/models"
	"tutorbot/internal/store"
)

// Store keeps every record in maps guarded by one RWMutex.
// Transactions hold the write lock for their whole duration, so they are serialized.
type Store struct {
	mu          sync.RWMutex
	users       map[int64]models.User
	submissions map[uuid.UUID]models.PaymentSubmission
	withdrawals map[uuid.UUID]models.WithdrawalRequest
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:       make(map[int64]models.User),
		submissions: make(map[uuid.UUID]models.PaymentSubmission),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest),
	}
}

// InTx stages writes in a tx and applies them only when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		s:           s,
		users:       make(map[int64]models.User),
		submissions: make(map[uuid.UUID]models.PaymentSubmission),
		withdrawals: make(map[uuid.UUID]models.WithdrawalRequest),
	}
	if err := fn(t); err != nil {
		return err
	}
	for id, u := range t.users {
		s.users[id] = u
	}
	for id, sub := range t.submissions {
		s.submissions[id] = sub
	}
	for id, w := range t.withdrawals {
		s.withdrawals[id] = w
	}
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListReferredUsers(_ context.Context, referrerID int64) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.ReferredBy != nil && *u.ReferredBy == referrerID {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) TopReferrers(_ context.Context, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if u.ReferralCount > 0 {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReferralCount != out[j].ReferralCount {
			return out[i].ReferralCount > out[j].ReferralCount
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListSubmissions(_ context.Context, status models.SubmissionStatus) ([]models.PaymentSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PaymentSubmission
	for _, sub := range s.submissions {
		if status == "" || sub.Status == status {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListSubmissionsByUser(_ context.Context, userID int64) ([]models.PaymentSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PaymentSubmission
	for _, sub := range s.submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListWithdrawals(_ context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if status == "" || w.Status == status {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Stats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st models.Stats
	st.Users = len(s.users)
	for _, u := range s.users {
		if u.Status == models.StatusVerified {
			st.Verified++
		}
		st.Referrals += u.ReferralCount
	}
	for _, sub := range s.submissions {
		if sub.Status == models.SubmissionPending {
			st.PendingSubmissions++
		}
	}
	for _, w := range s.withdrawals {
		if w.Status == models.WithdrawalRequested {
			st.PendingWithdrawals++
		}
	}
	return st, nil
}

func (s *Store) Close() error { return nil }

type tx struct {
	s           *Store
	users       map[int64]models.User
	submissions map[uuid.UUID]models.PaymentSubmission
	withdrawals map[uuid.UUID]models.WithdrawalRequest
}

func (t *tx) GetUser(_ context.Context, id int64) (models.User, error) {
	if u, ok := t.users[id]; ok {
		return copyUser(u), nil
	}
	u, ok := t.s.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return copyUser(u), nil
}

func (t *tx) CreateUser(_ context.Context, u models.User) (bool, error) {
	if _, ok := t.users[u.ID]; ok {
		return false, nil
	}
	if _, ok := t.s.users[u.ID]; ok {
		return false, nil
	}
	t.users[u.ID] = copyUser(u)
	return true, nil
}

func (t *tx) SaveUser(_ context.Context, u models.User) error {
	t.users[u.ID] = copyUser(u)
	return nil
}

func (t *tx) GetSubmission(_ context.Context, id uuid.UUID) (models.PaymentSubmission, error) {
	if sub, ok := t.submissions[id]; ok {
		return sub, nil
	}
	sub, ok := t.s.submissions[id]
	if !ok {
		return models.PaymentSubmission{}, store.ErrNotFound
	}
	return sub, nil
}

func (t *tx) GetPendingSubmission(_ context.Context, userID int64) (models.PaymentSubmission, error) {
	for _, sub := range t.submissions {
		if sub.UserID == userID && sub.Status == models.SubmissionPending {
			return sub, nil
		}
	}
	for id, sub := range t.s.submissions {
		if _, staged := t.submissions[id]; staged {
			continue
		}
		if sub.UserID == userID && sub.Status == models.SubmissionPending {
			return sub, nil
		}
	}
	return models.PaymentSubmission{}, store.ErrNotFound
}

func (t *tx) SaveSubmission(_ context.Context, sub models.PaymentSubmission) error {
	t.submissions[sub.ID] = sub
	return nil
}

func (t *tx) GetWithdrawal(_ context.Context, id uuid.UUID) (models.WithdrawalRequest, error) {
	if w, ok := t.withdrawals[id]; ok {
		return w, nil
	}
	w, ok := t.s.withdrawals[id]
	if !ok {
		return models.WithdrawalRequest{}, store.ErrNotFound
	}
	return w, nil
}

func (t *tx) SaveWithdrawal(_ context.Context, w models.WithdrawalRequest) error {
	t.withdrawals[w.ID] = w
	return nil
}

// copyUser detaches the ReferredBy pointer so callers cannot mutate stored state.
func copyUser(u models.User) models.User {
	if u.ReferredBy != nil {
		ref := *u.ReferredBy
		u.ReferredBy = &ref
	}
	return u
}
