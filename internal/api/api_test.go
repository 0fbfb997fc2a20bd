package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/config"
	"tutorbot/internal/models"
	"tutorbot/internal/moderation"
	"tutorbot/internal/referral"
	"tutorbot/internal/store"
	"tutorbot/internal/store/memory"
)

const testToken = "123456:TEST"

type recordingDispatcher struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
}

func (d *recordingDispatcher) Dispatch(_ context.Context, u tgbotapi.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, u)
}

func newTestServer(t *testing.T, s store.Store, secret string) (*httptest.Server, *recordingDispatcher) {
	t.Helper()
	cfg := &config.Config{TelegramToken: testToken, AdminChatIDs: []int64{900}, WebhookSecret: secret}
	engine := referral.NewEngine(s, decimal.NewFromInt(30))
	d := &recordingDispatcher{}
	srv := httptest.NewServer(NewRouter(ApiDependencies{
		Config:     cfg,
		Moderation: moderation.NewService(s, engine, cfg),
		Dispatcher: d,
	}))
	t.Cleanup(srv.Close)
	return srv, d
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InTx(ctx, func(tx store.Tx) error {
		if err := tx.SaveUser(ctx, models.User{ID: 1, ChatID: 1, Status: models.StatusVerified, ReferralCount: 2}); err != nil {
			return err
		}
		return tx.SaveUser(ctx, models.User{ID: 2, ChatID: 2, Status: models.StatusNew})
	}))
}

func initData(userID int64) string {
	return signedInitData(userID, testToken)
}

func signedInitData(userID int64, token string) string {
	q := url.Values{}
	q.Set("auth_date", "1700000000")
	q.Set("user", `{"id":`+strconv.FormatInt(userID, 10)+`,"first_name":"Admin"}`)
	q.Set("hash", signInitData(q, token))
	return q.Encode()
}

func TestHealthReportsStats(t *testing.T) {
	s := memory.New()
	seed(t, s)
	srv, _ := newTestServer(t, s, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "online", body.Status)
	require.NotEmpty(t, body.Timestamp)
	require.Equal(t, models.Stats{Users: 2, Verified: 1, Referrals: 2}, body.Stats)
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Stats(context.Context) (models.Stats, error) {
	return models.Stats{}, context.DeadlineExceeded
}

func TestHealthStoreFailure(t *testing.T) {
	srv, _ := newTestServer(t, brokenStore{memory.New()}, "")
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Database connection failed", body["error"])
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	srv, d := newTestServer(t, memory.New(), "s3cret")
	payload := []byte(`{"update_id":7,"message":{"message_id":1,"date":0,"chat":{"id":5,"type":"private"},"from":{"id":5,"is_bot":false,"first_name":"A"},"text":"/start"}}`)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/webhook", bytes.NewReader(payload))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/webhook", bytes.NewReader(payload))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body["ok"])
	require.Len(t, d.updates, 1)
	require.Equal(t, "/start", d.updates[0].Message.Text)
}

func TestWebhookRejectsBadBody(t *testing.T) {
	srv, d := newTestServer(t, memory.New(), "")
	resp, err := http.Post(srv.URL+"/webhook", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, d.updates)
}

func TestPreflightAllowsAnyOrigin(t *testing.T) {
	srv, _ := newTestServer(t, memory.New(), "")
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/health", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAdminAPIRequiresSignedAdmin(t *testing.T) {
	s := memory.New()
	seed(t, s)
	srv, _ := newTestServer(t, s, "")

	get := func(auth string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/stats", nil)
		if auth != "" {
			req.Header.Set("X-Telegram-Auth", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := get("")
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(signedInitData(900, "654321:OTHER"))
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = get(initData(1))
	resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = get(initData(900))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string       `json:"status"`
		Data   models.Stats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "success", body.Status)
	require.Equal(t, 2, body.Data.Users)
}

func TestAdminExportReturnsWorkbook(t *testing.T) {
	s := memory.New()
	seed(t, s)
	srv, _ := newTestServer(t, s, "")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/export", nil)
	req.Header.Set("X-Telegram-Auth", initData(900))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "tutorial_report_")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}
