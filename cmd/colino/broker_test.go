package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newTestBroker(t *testing.T, handler http.Handler) *brokerClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := newBrokerClient(srv.URL + "/")
	require.NoError(t, err)

	client.interval = 10 * time.Millisecond
	client.timeout = time.Second

	return client
}

func TestNewBrokerClientRequiresUrl(t *testing.T) {
	_, err := newBrokerClient("")
	assert.Error(t, err)
}

func TestInitiate(t *testing.T) {
	assert := assert.New(t)

	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/auth/initiate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"authorization_url": "https://accounts.google.com/o/oauth2/auth?state=abc",
			"session_id":        "abc",
			"redirect_uri":      "https://broker.example.com/callback",
		})
	}))

	resp, err := broker.initiate(ctx)
	require.NoError(t, err)
	assert.Equal("abc", resp.SessionId)
	assert.Contains(resp.AuthorizationUrl, "state=abc")
}

func TestWaitForTokens(t *testing.T) {
	assert := assert.New(t)

	var polls atomic.Int32
	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/auth/poll/abc", r.URL.Path)

		// pending twice, then ready
		if polls.Add(1) <= 2 {
			w.WriteHeader(202)
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "pending",
				"message": "Authentication in progress.",
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-abc",
			"refresh_token": "refresh-abc",
			"expires_at":    1_700_003_600,
		})
	}))

	payload, err := broker.waitForTokens(ctx, "abc")
	require.NoError(t, err)

	assert.Equal("access-abc", payload.AccessToken)
	assert.GreaterOrEqual(polls.Load(), int32(3))
}

func TestWaitForTokensExpiredSession(t *testing.T) {
	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		json.NewEncoder(w).Encode(map[string]string{"error": "Session not found or expired"})
	}))

	_, err := broker.waitForTokens(ctx, "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restart authentication")
}

func TestWaitForTokensTimesOut(t *testing.T) {
	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(202)
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
	}))
	broker.timeout = 50 * time.Millisecond

	_, err := broker.waitForTokens(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestWaitForTokensTerminalError(t *testing.T) {
	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
	}))

	_, err := broker.waitForTokens(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Internal server error")
}

func TestRefresh(t *testing.T) {
	assert := assert.New(t)

	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/auth/refresh", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal("refresh-abc", body["refresh_token"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "fresh-access",
			"expires_at":   1_700_003_600,
		})
	}))

	payload, err := broker.refresh(ctx, "refresh-abc")
	require.NoError(t, err)
	assert.Equal("fresh-access", payload.AccessToken)
	assert.Empty(payload.RefreshToken)
}

func TestRefreshRejected(t *testing.T) {
	broker := newTestBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		json.NewEncoder(w).Encode(map[string]string{"error": "Token has been expired or revoked."})
	}))

	_, err := broker.refresh(ctx, "dead")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token has been expired or revoked.")
}
