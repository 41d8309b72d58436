package oauth

import (
	"fmt"
	"strings"
)

// API Gateway deployments serve the function behind a stage prefix; custom
// domains map straight to the root. The registered redirect URIs follow the
// same convention.
const (
	DefaultGatewaySuffix = ".amazonaws.com"
	DefaultStagePrefix   = "/Prod"
)

// RedirectURI derives the OAuth callback URL from the inbound request's host.
// Initiation and callback both run this over their own request, so the two
// values match exactly regardless of the hostname the deployment sits behind.
func RedirectURI(host, gatewaySuffix, stagePrefix string) string {
	if gatewaySuffix != "" && strings.HasSuffix(host, gatewaySuffix) {
		return fmt.Sprintf("https://%s%s/callback", host, stagePrefix)
	}
	return fmt.Sprintf("https://%s/callback", host)
}
