// Package oauth implements the Google side of the session-brokered handoff:
// consent URL construction, authorization code exchange and refresh token
// grants against Google's token endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultScopes are the YouTube Data API scopes requested during consent.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

type Client struct {
	h            *http.Client
	clientId     string
	clientSecret string
	scopes       []string
	endpoint     oauth2.Endpoint
}

type ClientArgs struct {
	H            *http.Client
	ClientId     string
	ClientSecret string
	Scopes       []string

	// Endpoint overrides Google's endpoints; tests point it at a local server.
	Endpoint *oauth2.Endpoint
}

func NewClient(args ClientArgs) (*Client, error) {
	if args.ClientId == "" {
		return nil, fmt.Errorf("no client id provided")
	}

	if args.ClientSecret == "" {
		return nil, fmt.Errorf("no client secret provided")
	}

	if args.H == nil {
		args.H = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	if len(args.Scopes) == 0 {
		args.Scopes = DefaultScopes
	}

	endpoint := google.Endpoint
	if args.Endpoint != nil {
		endpoint = *args.Endpoint
	}

	return &Client{
		h:            args.H,
		clientId:     args.ClientId,
		clientSecret: args.ClientSecret,
		scopes:       args.Scopes,
		endpoint:     endpoint,
	}, nil
}

// Scopes returns the scopes the client requests during consent.
func (c *Client) Scopes() []string {
	return c.scopes
}

// AuthorizationURL builds the consent URL the user's browser is sent to.
// The session id rides along as the opaque state parameter so the callback
// can recover it without any other lookup. Offline access plus a forced
// consent prompt makes Google issue a refresh token even on repeat consent,
// which it otherwise omits.
func (c *Client) AuthorizationURL(state, redirectUri string) string {
	conf := oauth2.Config{
		ClientID:     c.clientId,
		ClientSecret: c.clientSecret,
		Endpoint:     c.endpoint,
		RedirectURL:  redirectUri,
		Scopes:       c.scopes,
	}

	return conf.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode trades an authorization code for tokens. The redirect uri must
// match the one sent during initiation exactly or the endpoint rejects the
// exchange.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectUri string) (*TokenResponse, error) {
	params := url.Values{
		"client_id":     {c.clientId},
		"client_secret": {c.clientSecret},
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectUri},
	}

	return c.token(ctx, params)
}

// RefreshToken exchanges a refresh token for a new access token. No session
// state is involved; this is a pure pass-through to the provider.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	params := url.Values{
		"client_id":     {c.clientId},
		"client_secret": {c.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	return c.token(ctx, params)
}

func (c *Client) token(ctx context.Context, params url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint.TokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("error creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.h.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not get response from token endpoint: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read token response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{StatusCode: resp.StatusCode}

		var body struct {
			Code        string `json:"error"`
			Description string `json:"error_description"`
		}
		if err := json.Unmarshal(b, &body); err == nil {
			perr.Code = body.Code
			perr.Description = body.Description
		}

		return nil, perr
	}

	var tokenResponse TokenResponse
	if err := tokenResponse.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("could not unmarshal token response: %w", err)
	}

	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("token response contained no access token")
	}

	return &tokenResponse, nil
}
