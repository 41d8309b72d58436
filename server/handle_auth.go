package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/colinohq/colino/oauth"
	"github.com/colinohq/colino/sessions"
)

const pendingMessage = "Authentication in progress. Please complete the OAuth flow in your browser."

func errJson(e echo.Context, code int, msg string) error {
	return e.JSON(code, errorResponse{Error: msg})
}

// handleInitiate creates a fresh session, builds the consent URL bound to it
// and writes the pending placeholder before answering, so a client that polls
// immediately gets a well-defined pending response instead of a 404. If the
// placeholder write fails the whole call fails; no session id is handed back
// that the callback could never complete.
func (s *Server) handleInitiate(e echo.Context) error {
	sessionId := uuid.NewString()
	redirectUri := s.redirectUri(e.Request())

	authUrl := s.oauthClient.AuthorizationURL(sessionId, redirectUri)

	placeholder := &sessions.Session{
		SessionID: sessionId,
		Status:    sessions.StatusPending,
	}

	if err := s.repo.Upsert(e.Request().Context(), placeholder, s.pendingTtl); err != nil {
		slog.Error("could not store pending session", "session_id", sessionId, "error", err)
		return errJson(e, http.StatusInternalServerError, "Failed to generate authorization URL")
	}

	return e.JSON(http.StatusOK, initiateResponse{
		AuthorizationUrl: authUrl,
		SessionId:        sessionId,
		RedirectUri:      redirectUri,
	})
}

// handleCallback receives Google's redirect, exchanges the code and overwrites
// the pending placeholder with the completed record under the same session id.
func (s *Server) handleCallback(e echo.Context) error {
	if len(e.QueryParams()) == 0 {
		return errJson(e, http.StatusBadRequest, "Missing query parameters")
	}

	if oauthErr := e.QueryParam("error"); oauthErr != "" {
		msg := fmt.Sprintf("OAuth error: %s", oauthErr)
		if desc := e.QueryParam("error_description"); desc != "" {
			msg = fmt.Sprintf("%s - %s", msg, desc)
		}
		return errJson(e, http.StatusBadRequest, msg)
	}

	code := e.QueryParam("code")
	if code == "" {
		return errJson(e, http.StatusBadRequest, "Missing authorization code")
	}

	// initiate always sets state, but a provider that dropped it still gets
	// a record somewhere rather than a crash
	sessionId := e.QueryParam("state")
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	redirectUri := s.redirectUri(e.Request())

	tokenResp, err := s.oauthClient.ExchangeCode(e.Request().Context(), code, redirectUri)
	if err != nil {
		var perr *oauth.ProviderError
		if errors.As(err, &perr) {
			return errJson(e, http.StatusBadRequest, perr.Message())
		}

		slog.Error("token exchange failed", "session_id", sessionId, "error", err)
		return errJson(e, http.StatusInternalServerError, "Internal server error")
	}

	expiresIn, expiresAt := tokenResp.Expiry(time.Now())

	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	scope := tokenResp.Scope
	if scope == "" {
		scope = strings.Join(s.oauthClient.Scopes(), " ")
	}

	sess := &sessions.Session{
		SessionID:    sessionId,
		Status:       sessions.StatusCompleted,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    expiresIn,
		ExpiresAt:    expiresAt,
		Scope:        scope,
	}

	// the browser must not see a success page if the CLI could never
	// retrieve the tokens
	if err := s.repo.Upsert(e.Request().Context(), sess, s.readyTtl); err != nil {
		slog.Error("could not store completed session", "session_id", sessionId, "error", err)
		return errJson(e, http.StatusInternalServerError, "Failed to save authentication data")
	}

	slog.Info("oauth callback completed", "session_id", sessionId)

	return e.HTML(http.StatusOK, successPage)
}

// handlePoll classifies the record for a session id as absent, pending or
// ready. The tri-state answer is what lets a disconnected client tell "keep
// waiting" apart from "give up and restart".
func (s *Server) handlePoll(e echo.Context) error {
	sessionId := e.Param("session_id")
	if sessionId == "" {
		return errJson(e, http.StatusBadRequest, "Missing session_id parameter")
	}

	sess, err := s.repo.Get(e.Request().Context(), sessionId)
	if errors.Is(err, sessions.ErrNotFound) {
		return errJson(e, http.StatusNotFound, "Session not found or expired")
	}
	if err != nil {
		slog.Error("could not read session", "session_id", sessionId, "error", err)
		return errJson(e, http.StatusInternalServerError, "Internal server error")
	}

	if !sess.Ready() {
		return e.JSON(http.StatusAccepted, pendingResponse{
			Status:  sessions.StatusPending,
			Message: pendingMessage,
		})
	}

	return e.JSON(http.StatusOK, sess.Payload())
}

// handleRefresh trades a refresh token for a new access token. It never
// touches the session store: the grant stands on its own.
func (s *Server) handleRefresh(e echo.Context) error {
	var req refreshRequest
	if err := e.Bind(&req); err != nil {
		return errJson(e, http.StatusBadRequest, "Invalid JSON in request body")
	}

	if req.RefreshToken == "" {
		return errJson(e, http.StatusBadRequest, "Missing refresh_token in request body")
	}

	tokenResp, err := s.oauthClient.RefreshToken(e.Request().Context(), req.RefreshToken)
	if err != nil {
		var perr *oauth.ProviderError
		if errors.As(err, &perr) {
			// an expired or revoked refresh token is the caller's
			// problem, not a broker fault
			return errJson(e, http.StatusBadRequest, perr.Message())
		}

		slog.Error("token refresh failed", "error", err)
		return errJson(e, http.StatusInternalServerError, "Internal server error")
	}

	expiresIn, expiresAt := tokenResp.Expiry(time.Now())

	tokenType := tokenResp.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	resp := refreshResponse{
		Message:     "Token refreshed successfully",
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   expiresIn,
		ExpiresAt:   expiresAt,
		Scope:       tokenResp.Scope,
	}

	// Google sometimes rotates refresh tokens; pass a replacement through
	// and never echo the old one in its place
	if tokenResp.RefreshToken != "" {
		resp.RefreshToken = tokenResp.RefreshToken
	}

	return e.JSON(http.StatusOK, resp)
}
