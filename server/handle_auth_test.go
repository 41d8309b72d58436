package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/colinohq/colino/oauth"
	"github.com/colinohq/colino/sessions"
)

type fixture struct {
	srv  *Server
	repo sessions.Repo
}

func newFixture(t *testing.T, providerHandler http.HandlerFunc) *fixture {
	t.Helper()

	if providerHandler == nil {
		providerHandler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(500)
		}
	}

	provider := httptest.NewServer(providerHandler)
	t.Cleanup(provider.Close)

	oauthClient, err := oauth.NewClient(oauth.ClientArgs{
		ClientId:     "test-client-id",
		ClientSecret: "test-client-secret",
		Endpoint: &oauth2.Endpoint{
			AuthURL:  provider.URL + "/auth",
			TokenURL: provider.URL + "/token",
		},
	})
	require.NoError(t, err)

	repo := sessions.NewInMemoryRepo()

	srv, err := New(Args{
		Repo:        repo,
		OauthClient: oauthClient,
		PendingTtl:  time.Minute,
		ReadyTtl:    time.Hour,
	})
	require.NoError(t, err)

	return &fixture{srv: srv, repo: repo}
}

func providerTokens(body map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

func providerRejects(code string, description string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             code,
			"error_description": description,
		})
	}
}

func (f *fixture) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	f.srv.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postJson(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestInitiate(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, nil)

	rec := f.get("/auth/initiate")
	require.Equal(t, 200, rec.Code)

	resp := decode[initiateResponse](t, rec)
	assert.NotEmpty(resp.SessionId)
	assert.Equal("https://example.com/callback", resp.RedirectUri)
	assert.Contains(resp.AuthorizationUrl, "state="+resp.SessionId)
	assert.Contains(resp.AuthorizationUrl, "access_type=offline")
	assert.Contains(resp.AuthorizationUrl, "prompt=consent")

	sess, err := f.repo.Get(context.Background(), resp.SessionId)
	require.NoError(t, err)
	assert.Equal(sessions.StatusPending, sess.Status)
	assert.Empty(sess.AccessToken)
}

func TestInitiateSessionsIndependent(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, nil)

	first := decode[initiateResponse](t, f.get("/auth/initiate"))
	second := decode[initiateResponse](t, f.get("/auth/initiate"))

	assert.NotEqual(first.SessionId, second.SessionId)

	assert.Equal(202, f.get("/auth/poll/"+first.SessionId).Code)
	assert.Equal(202, f.get("/auth/poll/"+second.SessionId).Code)

	// resolving one session leaves the other untouched
	require.NoError(t, f.repo.Delete(context.Background(), first.SessionId))
	assert.Equal(404, f.get("/auth/poll/"+first.SessionId).Code)
	assert.Equal(202, f.get("/auth/poll/"+second.SessionId).Code)
}

type failingRepo struct {
	sessions.Repo
}

func (r *failingRepo) Upsert(context.Context, *sessions.Session, time.Duration) error {
	return fmt.Errorf("storage unavailable")
}

func TestInitiateStoreFailure(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, nil)
	f.srv.repo = &failingRepo{Repo: f.repo}

	rec := f.get("/auth/initiate")
	assert.Equal(500, rec.Code)

	// no session id escapes when the placeholder write fails
	resp := decode[map[string]string](t, rec)
	assert.NotEmpty(resp["error"])
	assert.NotContains(rec.Body.String(), "session_id")
}

func TestCallbackMissingParams(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/callback")
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing query parameters")
}

func TestCallbackProviderDenied(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, nil)

	rec := f.get("/callback?error=access_denied")
	assert.Equal(400, rec.Code)
	assert.Contains(rec.Body.String(), "access_denied")

	rec = f.get("/callback?error=access_denied&error_description=User+said+no")
	assert.Equal(400, rec.Code)
	assert.Contains(rec.Body.String(), "User said no")
}

func TestCallbackMissingCode(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/callback?state=abc")
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing authorization code")
}

func TestCallbackExchangeRejected(t *testing.T) {
	f := newFixture(t, providerRejects("invalid_grant", "Malformed auth code."))

	rec := f.get("/callback?code=bad&state=abc")
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Malformed auth code.")
}

type completedWriteFails struct {
	sessions.Repo
}

func (r *completedWriteFails) Upsert(ctx context.Context, sess *sessions.Session, ttl time.Duration) error {
	if sess.Status == sessions.StatusCompleted {
		return fmt.Errorf("storage unavailable")
	}
	return r.Repo.Upsert(ctx, sess, ttl)
}

func TestCallbackPersistFailure(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, providerTokens(map[string]any{
		"access_token": "X",
		"expires_in":   3600,
	}))
	f.srv.repo = &completedWriteFails{Repo: f.repo}

	rec := f.get("/callback?code=C&state=abc")

	// the browser must not see success when the CLI could never fetch
	assert.Equal(500, rec.Code)
	assert.Contains(rec.Body.String(), "Failed to save authentication data")
	assert.NotContains(rec.Body.String(), "X")
}

func TestFullHandoff(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, providerTokens(map[string]any{
		"access_token":  "access-xyz",
		"refresh_token": "refresh-xyz",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"scope":         "https://www.googleapis.com/auth/youtube.readonly",
	}))

	// initiate
	initResp := decode[initiateResponse](t, f.get("/auth/initiate"))
	sessionId := initResp.SessionId

	// poll before consent completes: pending, not an error
	rec := f.get("/auth/poll/" + sessionId)
	require.Equal(t, 202, rec.Code)
	pending := decode[pendingResponse](t, rec)
	assert.Equal("pending", pending.Status)
	assert.NotEmpty(pending.Message)

	// callback exchanges and overwrites the placeholder
	before := time.Now().Unix()
	rec = f.get("/callback?code=C&state=" + sessionId)
	require.Equal(t, 200, rec.Code)
	assert.Contains(rec.Body.String(), "Authentication successful")
	assert.NotContains(rec.Body.String(), "access-xyz")

	// poll now returns the sanitized payload
	rec = f.get("/auth/poll/" + sessionId)
	require.Equal(t, 200, rec.Code)

	payload := decode[map[string]any](t, rec)
	assert.Equal("access-xyz", payload["access_token"])
	assert.Equal("refresh-xyz", payload["refresh_token"])
	assert.Equal("Bearer", payload["token_type"])
	assert.EqualValues(3600, payload["expires_in"])

	expiresAt := int64(payload["expires_at"].(float64))
	assert.GreaterOrEqual(expiresAt, before+3600)
	assert.LessOrEqual(expiresAt, time.Now().Unix()+3600)

	// internal bookkeeping never leaves the server boundary
	body := rec.Body.String()
	assert.NotContains(body, "status")
	assert.NotContains(body, "ttl")
	assert.NotContains(body, "created_at")
	assert.NotContains(body, "client_secret")

	// monotonic: once ready, later polls never regress to pending
	for range 3 {
		assert.Equal(200, f.get("/auth/poll/"+sessionId).Code)
	}
}

func TestCallbackExpiryFallback(t *testing.T) {
	assert := assert.New(t)

	// provider omits expires_in entirely
	f := newFixture(t, providerTokens(map[string]any{
		"access_token": "X",
	}))

	before := time.Now().Unix()
	rec := f.get("/callback?code=C&state=abc")
	require.Equal(t, 200, rec.Code)

	rec = f.get("/auth/poll/abc")
	require.Equal(t, 200, rec.Code)

	payload := decode[map[string]any](t, rec)
	assert.EqualValues(3600, payload["expires_in"])

	expiresAt := int64(payload["expires_at"].(float64))
	assert.GreaterOrEqual(expiresAt, before+3600)
	assert.LessOrEqual(expiresAt, time.Now().Unix()+3600)
}

func TestPollOmitsMissingRefreshToken(t *testing.T) {
	f := newFixture(t, providerTokens(map[string]any{
		"access_token": "X",
		"expires_in":   3600,
	}))

	require.Equal(t, 200, f.get("/callback?code=C&state=abc").Code)

	rec := f.get("/auth/poll/abc")
	require.Equal(t, 200, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refresh_token")
	assert.NotContains(t, rec.Body.String(), "null")
}

func TestPollNotFound(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.get("/auth/poll/unknown")
	assert.Equal(t, 404, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session not found or expired")
}

func TestPollMissingId(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest("GET", "/auth/poll/x", nil)
	rec := httptest.NewRecorder()
	c := f.srv.e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("")

	require.NoError(t, f.srv.handlePoll(c))
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing session_id parameter")
}

func TestPollExpiredSession(t *testing.T) {
	f := newFixture(t, nil)

	sess := &sessions.Session{
		SessionID:   "abc",
		Status:      sessions.StatusCompleted,
		AccessToken: "X",
	}
	require.NoError(t, f.repo.Upsert(context.Background(), sess, 20*time.Millisecond))

	require.Equal(t, 200, f.get("/auth/poll/abc").Code)

	time.Sleep(50 * time.Millisecond)

	// past its TTL the record is indistinguishable from one that never existed
	assert.Equal(t, 404, f.get("/auth/poll/abc").Code)
}

func TestRefreshMissingToken(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, nil)

	rec := f.postJson("/auth/refresh", `{}`)
	assert.Equal(400, rec.Code)
	assert.Contains(rec.Body.String(), "Missing refresh_token")

	rec = f.postJson("/auth/refresh", `{not json`)
	assert.Equal(400, rec.Code)
}

func TestRefresh(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, providerTokens(map[string]any{
		"access_token": "fresh-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"scope":        "https://www.googleapis.com/auth/youtube.readonly",
	}))

	before := time.Now().Unix()
	rec := f.postJson("/auth/refresh", `{"refresh_token":"refresh-abc"}`)
	require.Equal(t, 200, rec.Code)

	payload := decode[map[string]any](t, rec)
	assert.Equal("fresh-access", payload["access_token"])
	assert.EqualValues(3600, payload["expires_in"])

	expiresAt := int64(payload["expires_at"].(float64))
	assert.GreaterOrEqual(expiresAt, before+3600)

	// no rotation: the old refresh token is never echoed back silently
	assert.NotContains(rec.Body.String(), "refresh_token")
}

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t, providerTokens(map[string]any{
		"access_token":  "fresh-access",
		"refresh_token": "rotated-refresh",
		"expires_in":    3600,
	}))

	rec := f.postJson("/auth/refresh", `{"refresh_token":"old-refresh"}`)
	require.Equal(t, 200, rec.Code)

	payload := decode[map[string]any](t, rec)
	assert.Equal(t, "rotated-refresh", payload["refresh_token"])
}

func TestRefreshRejected(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t, providerRejects("invalid_grant", "Token has been expired or revoked."))

	rec := f.postJson("/auth/refresh", `{"refresh_token":"dead"}`)

	// a dead refresh token is a client condition, not a server fault
	assert.Equal(400, rec.Code)
	assert.Contains(rec.Body.String(), "Token has been expired or revoked.")
}

func TestCORSHeaders(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest("GET", "/auth/initiate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.srv.e.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := New(Args{})
	assert.Error(err)

	_, err = New(Args{Repo: sessions.NewInMemoryRepo()})
	assert.Error(err)
}
