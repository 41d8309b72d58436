package server

// errorResponse is the standardized error shape for every operation.
type errorResponse struct {
	Error string `json:"error"`
}

type initiateResponse struct {
	AuthorizationUrl string `json:"authorization_url"`
	SessionId        string `json:"session_id"`
	RedirectUri      string `json:"redirect_uri"`
}

type pendingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	Scope        string `json:"scope,omitempty"`
}
