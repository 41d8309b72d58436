package oauth

import (
	"encoding/json"
	"fmt"
	"time"
)

// TokenResponse is the token endpoint's JSON body for both the
// authorization_code and refresh_token grants. Google omits refresh_token on
// refresh unless it rotated the token, and may omit scope entirely.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

func (tr *TokenResponse) UnmarshalJSON(b []byte) error {
	type Tmp TokenResponse
	var tmp Tmp

	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}

	*tr = TokenResponse(tmp)

	return nil
}

// Expiry returns the (expires_in, expires_at) pair for the response,
// synthesizing Google's default one hour window when the endpoint omitted
// expires_in and anchoring the absolute value at now.
func (tr *TokenResponse) Expiry(now time.Time) (expiresIn, expiresAt int64) {
	in := tr.ExpiresIn
	if in <= 0 {
		in = 3600
	}
	return in, now.Add(time.Duration(in) * time.Second).Unix()
}

// ProviderError is a non-2xx answer from the token endpoint. An expired or
// revoked grant lands here; it is a caller problem, not a broker fault.
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Message())
}

// Message picks the most human-readable description the provider gave us.
func (e *ProviderError) Message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return fmt.Sprintf("Token request failed with status %d", e.StatusCode)
}
