package sessions

import "time"

// Session status values. A record that cannot be found (or whose TTL has
// passed) has no status at all; absence is the third state of the protocol.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Session is the record stored per session id. The session id doubles as the
// provider's `state` parameter, so a callback can always find the record the
// initiate step created. Every write is a full overwrite and resets the TTL.
//
// Fields without a value are omitted from storage rather than written as null
// placeholders, so absence is the only "no value" signal a reader sees.
type Session struct {
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
	CreatedAt    int64  `json:"created_at,omitempty"`
	TTL          int64  `json:"ttl,omitempty"`
}

// Ready reports whether the record holds a usable credential. A completed
// record without an access token is still treated as in-progress.
func (s *Session) Ready() bool {
	return s.Status == StatusCompleted && s.AccessToken != ""
}

// TokenPayload is the subset of a ready Session handed back to callers. It is
// the entire allow list: bookkeeping fields (status, created_at, ttl) and
// anything secret never appear here, and sanitization is structural rather
// than a filter step over a map.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Payload returns the externally visible view of the record.
func (s *Session) Payload() TokenPayload {
	return TokenPayload{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		Scope:        s.Scope,
	}
}

// Expired reports whether the access token itself is past its expiry. This is
// independent of the record TTL, which only bounds how long the store keeps
// the record around.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != 0 && now.Unix() >= s.ExpiresAt
}
