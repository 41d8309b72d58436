package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	pollInterval = 2 * time.Second
	pollTimeout  = 5 * time.Minute
)

type brokerClient struct {
	h        *http.Client
	baseUrl  string
	interval time.Duration
	timeout  time.Duration
}

func newBrokerClient(baseUrl string) (*brokerClient, error) {
	if baseUrl == "" {
		return nil, fmt.Errorf("no broker url provided; set --broker-url or COLINO_BROKER_URL")
	}

	return &brokerClient{
		h: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseUrl:  strings.TrimSuffix(baseUrl, "/"),
		interval: pollInterval,
		timeout:  pollTimeout,
	}, nil
}

type initiateResponse struct {
	AuthorizationUrl string `json:"authorization_url"`
	SessionId        string `json:"session_id"`
	RedirectUri      string `json:"redirect_uri"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *brokerClient) initiate(ctx context.Context) (*initiateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseUrl+"/auth/initiate", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating initiate request: %w", err)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach broker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("initiate failed: %s", readError(resp))
	}

	var out initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("could not decode initiate response: %w", err)
	}

	if out.AuthorizationUrl == "" || out.SessionId == "" {
		return nil, fmt.Errorf("initiate response missing authorization url or session id")
	}

	return &out, nil
}

// pollOnce asks the broker for the session's state. The second return value
// is true while the flow is still in progress.
func (c *brokerClient) pollOnce(ctx context.Context, sessionId string) (*tokenPayload, bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseUrl+"/auth/poll/"+sessionId, nil)
	if err != nil {
		return nil, false, fmt.Errorf("error creating poll request: %w", err)
	}

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("could not reach broker: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload tokenPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, false, fmt.Errorf("could not decode poll response: %w", err)
		}
		return &payload, false, nil
	case http.StatusAccepted:
		io.Copy(io.Discard, resp.Body)
		return nil, true, nil
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("session not found or expired; restart authentication with `colino auth`")
	default:
		return nil, false, fmt.Errorf("poll failed: %s", readError(resp))
	}
}

// waitForTokens polls until the session is ready, hits a terminal state or
// the overall deadline passes. It never polls indefinitely.
func (c *brokerClient) waitForTokens(ctx context.Context, sessionId string) (*tokenPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		payload, pending, err := c.pollOnce(ctx, sessionId)
		if err != nil {
			return nil, err
		}

		if !pending {
			return payload, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for authorization to complete")
		case <-ticker.C:
		}
	}
}

func (c *brokerClient) refresh(ctx context.Context, refreshToken string) (*tokenPayload, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseUrl+"/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not reach broker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token refresh failed: %s", readError(resp))
	}

	var payload tokenPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("could not decode refresh response: %w", err)
	}

	return &payload, nil
}

func readError(resp *http.Response) string {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status
	}

	var body errorBody
	if err := json.Unmarshal(b, &body); err == nil && body.Error != "" {
		return body.Error
	}

	return fmt.Sprintf("status %d", resp.StatusCode)
}
