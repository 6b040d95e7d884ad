package payphone

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/tidwall/gjson"
)

// AuthReason explains a webhook authorisation decision
type AuthReason string

const (
	AuthNonProduction       AuthReason = "non_production"
	AuthAuthorized          AuthReason = "authorized"
	AuthMissingSecretConfig AuthReason = "missing_secret_config"
	AuthMissingSecret       AuthReason = "missing_secret"
	AuthInvalidSecret       AuthReason = "invalid_secret"
)

// AuthResult is the outcome of AuthorizeWebhook
type AuthResult struct {
	OK     bool
	Reason AuthReason
}

// WebhookSecretHeader carries the shared secret on relayed webhooks
const WebhookSecretHeader = "x-webhook-secret"

var reBearerSecret = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// ConfiguredSecrets lists the accepted webhook secrets: trimmed, non-empty
// and de-duplicated, in priority order
func ConfiguredSecrets(pp config.PayPhoneConfig, n8n config.N8NConfig) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range []string{pp.WebhookSecret, n8n.WebhookSecret, pp.ProxySecret} {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// BearerSecret extracts the token of an Authorization: Bearer header
func BearerSecret(header string) string {
	m := reBearerSecret.FindStringSubmatch(strings.TrimSpace(header))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// IncomingSecret picks the secret a webhook call presents: the header,
// then the secret query parameter, then a bearer token
func IncomingSecret(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(WebhookSecretHeader)); s != "" {
		return s
	}
	if s := strings.TrimSpace(r.URL.Query().Get("secret")); s != "" {
		return s
	}
	return BearerSecret(r.Header.Get("Authorization"))
}

// AuthorizeWebhook decides whether a webhook call may proceed. Outside
// production every call is accepted.
func AuthorizeWebhook(production bool, configured []string, incoming string) AuthResult {
	if !production {
		return AuthResult{OK: true, Reason: AuthNonProduction}
	}
	if len(configured) == 0 {
		return AuthResult{Reason: AuthMissingSecretConfig}
	}
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return AuthResult{Reason: AuthMissingSecret}
	}
	for _, s := range configured {
		if subtle.ConstantTimeCompare([]byte(s), []byte(incoming)) == 1 {
			return AuthResult{OK: true, Reason: AuthAuthorized}
		}
	}
	return AuthResult{Reason: AuthInvalidSecret}
}

// ParseWebhook reads a webhook body. Relays send ids either as numbers or
// strings; both are accepted.
func ParseWebhook(body []byte) (*WebhookPayload, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: webhook body is not json", ErrInvalidResponse)
	}
	doc := gjson.ParseBytes(body)
	if b := doc.Get("body"); b.IsObject() {
		doc = b
	}
	return &WebhookPayload{
		ID:                  doc.Get("id").String(),
		ClientTransactionID: doc.Get("clientTransactionId").String(),
		StatusCode:          int(doc.Get("statusCode").Int()),
		Status:              doc.Get("status").String(),
		Amount:              doc.Get("amount").Float(),
		Currency:            doc.Get("currency").String(),
		Email:               doc.Get("email").String(),
		PhoneNumber:         doc.Get("phoneNumber").String(),
		Timestamp:           doc.Get("timestamp").String(),
	}, nil
}
