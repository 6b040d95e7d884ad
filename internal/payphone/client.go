// Package payphone talks to the PayPhone Button API, directly or through a
// proxy, and authorises the webhooks it (or its relay) sends back.
package payphone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/httpretry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultBaseURL is the upstream API when no proxy is configured
const DefaultBaseURL = "https://pay.payphonetodoesposible.com/api"

const userAgent = "AOE-v2/1.0"

var (
	ErrCredentialsMissing     = errors.New("PayPhone credentials not configured")
	ErrPlaceholderCredentials = errors.New("PayPhone credentials look like placeholders")
	ErrProxySecretMissing     = errors.New("PAYPHONE_PROXY_URL is set but PAYPHONE_PROXY_SECRET is missing")
	ErrInvalidResponse        = errors.New("invalid PayPhone response")
)

var (
	reBearer      = regexp.MustCompile(`(?i)^bearer\s+`)
	reBearerUnder = regexp.MustCompile(`(?i)^bearer_`)
	reHTML        = regexp.MustCompile(`(?i)<html|<body`)
	placeholders  = []string{"tu_", "_aqui", "your_", "example", "xxxx"}
	idTemplates   = []string{"{{id}}", "{id}", "{{transactionId}}", "{transactionId}"}
)

// Client calls the payment gateway
type Client struct {
	cfg        config.PayPhoneConfig
	baseURL    string
	httpClient httpretry.Doer
	retry      httpretry.Config
	log        *zap.Logger
}

// NewClient creates a gateway client. The proxy URL, when set, replaces
// the upstream base URL.
func NewClient(cfg config.PayPhoneConfig, log *zap.Logger) *Client {
	base := DefaultBaseURL
	if cfg.ProxyURL != "" {
		base = cfg.ProxyURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(base, "/"),
		// The gateway answers redirects for blocked callers; they are errors, not pages to follow
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		retry: httpretry.DefaultConfig(),
		log:   log,
	}
}

// Configured reports whether credentials are present and usable
func (c *Client) Configured() bool {
	_, _, err := c.credentials()
	return err == nil
}

func looksLikePlaceholder(v string) bool {
	n := strings.ToLower(strings.TrimSpace(v))
	for _, p := range placeholders {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}

// NormalizeToken returns the Authorization header value for a raw token
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if reBearer.MatchString(token) {
		return token
	}
	if reBearerUnder.MatchString(token) {
		return "Bearer " + token[len("Bearer_"):]
	}
	return "Bearer " + token
}

func (c *Client) credentials() (token, storeID string, err error) {
	if strings.TrimSpace(c.cfg.Token) == "" || strings.TrimSpace(c.cfg.StoreID) == "" {
		return "", "", ErrCredentialsMissing
	}
	if looksLikePlaceholder(c.cfg.Token) || looksLikePlaceholder(c.cfg.StoreID) {
		return "", "", ErrPlaceholderCredentials
	}
	return NormalizeToken(c.cfg.Token), strings.TrimSpace(c.cfg.StoreID), nil
}

// appendSecret adds ?secret= for relay endpoints that authenticate by query
func (c *Client) appendSecret(u string) string {
	secret := c.cfg.ProxySecret
	if secret == "" {
		secret = c.cfg.N8NSecret
	}
	if secret == "" {
		return u
	}
	return u + separator(u) + "secret=" + url.QueryEscape(secret)
}

func separator(u string) string {
	if strings.Contains(u, "?") {
		return "&"
	}
	return "?"
}

func (c *Client) prepareURL() string {
	if c.cfg.LinksURL != "" {
		return c.appendSecret(strings.TrimSpace(c.cfg.LinksURL))
	}
	return c.baseURL + "/button/Prepare"
}

func (c *Client) saleURL(id string) string {
	if c.cfg.SaleURL == "" {
		return c.baseURL + "/Sale/client/" + url.PathEscape(id)
	}
	raw := strings.TrimSpace(c.cfg.SaleURL)
	templated := raw
	for _, t := range idTemplates {
		templated = strings.ReplaceAll(templated, t, id)
	}
	if templated != raw {
		return c.appendSecret(templated)
	}
	base := c.appendSecret(strings.TrimRight(raw, "/"))
	return base + separator(base) + "id=" + url.QueryEscape(id)
}

func (c *Client) confirmURL() string {
	if c.cfg.ConfirmURL != "" {
		return c.appendSecret(strings.TrimSpace(c.cfg.ConfirmURL))
	}
	return c.baseURL + "/button/V2/Confirm"
}

func (c *Client) proxyHeaders() (map[string]string, error) {
	if c.cfg.ProxyURL == "" {
		return nil, nil
	}
	if c.cfg.ProxySecret == "" {
		return nil, ErrProxySecretMissing
	}
	return map[string]string{"X-Proxy-Secret": c.cfg.ProxySecret}, nil
}

// call performs one gateway request and returns the body of a 2xx response
func (c *Client) call(ctx context.Context, endpoint, method, target string, payload interface{}) ([]byte, string, error) {
	token, _, err := c.credentials()
	if err != nil {
		return nil, "", err
	}
	extra, err := c.proxyHeaders()
	if err != nil {
		return nil, "", err
	}

	var body []byte
	if payload != nil {
		if body, err = json.Marshal(payload); err != nil {
			return nil, "", fmt.Errorf("failed to encode %s request: %w", endpoint, err)
		}
	}

	done := prometheus.TrackGatewayCall(endpoint)
	resp, err := httpretry.Do(ctx, c.httpClient, c.retry, func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		for k, v := range extra {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	done(time.Now())
	if err != nil {
		return nil, "", fmt.Errorf("PayPhone %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read PayPhone %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("PayPhone request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", truncate(string(data), 500)),
			zap.Bool("proxy", c.cfg.ProxyURL != ""),
			zap.Int("token_length", len(token)))
		return nil, "", &GatewayError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: describeError(data)}
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// GatewayError is a non-2xx answer from the gateway or its proxy
type GatewayError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("PayPhone %s failed: %d %s", e.Endpoint, e.StatusCode, e.Message)
}

// describeError turns an error body into something worth showing: proxy
// envelopes are flattened and HTML error pages are summarised
func describeError(body []byte) string {
	if gjson.ValidBytes(body) {
		if src := gjson.GetBytes(body, "proxySource"); src.Exists() {
			msg := gjson.GetBytes(body, "error").String()
			if msg == "" {
				msg = "HTTP " + gjson.GetBytes(body, "statusCode").String()
			}
			out := "[" + src.String() + "] " + msg
			if loc := gjson.GetBytes(body, "location").String(); loc != "" {
				out += " (redirect: " + loc + ")"
			}
			if raw := gjson.GetBytes(body, "rawBody").String(); raw != "" {
				out += " | " + truncate(raw, 200)
			}
			return out
		}
		return string(body)
	}
	if reHTML.Match(body) {
		return "PayPhone devolvio una pagina HTML de error. Si solo ocurre desde el servidor, es probable un bloqueo por IP (WAF)."
	}
	return string(body)
}

// unwrap removes the {body: {...}} envelope some relays add
func unwrap(data []byte) []byte {
	if b := gjson.GetBytes(data, "body"); b.IsObject() {
		return []byte(b.Raw)
	}
	return data
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Prepare creates a hosted payment button and returns where to send the buyer
func (c *Client) Prepare(ctx context.Context, req PrepareRequest) (*PrepareResponse, error) {
	_, storeID, err := c.credentials()
	if err != nil {
		return nil, err
	}
	req.StoreID = storeID
	if req.Currency == "" {
		req.Currency = Currency
	}

	data, contentType, err := c.call(ctx, "prepare", http.MethodPost, c.prepareURL(), req)
	if err != nil {
		return nil, err
	}

	var out PrepareResponse
	if strings.Contains(contentType, "application/json") || (gjson.ValidBytes(data) && gjson.ParseBytes(data).IsObject()) {
		data = unwrap(data)
		out.PaymentID = gjson.GetBytes(data, "paymentId").Int()
		out.PayWithCard = gjson.GetBytes(data, "payWithCard").String()
		out.PayWithPayPhone = gjson.GetBytes(data, "payWithPayPhone").String()
		out.PaymentURL = gjson.GetBytes(data, "paymentUrl").String()
	} else {
		// A plain-text body is the payment URL itself
		out.PaymentURL = strings.Trim(strings.TrimSpace(string(data)), `"`)
	}

	if out.PaymentURL == "" {
		out.PaymentURL = out.PayWithCard
	}
	if out.PaymentURL == "" {
		out.PaymentURL = out.PayWithPayPhone
	}
	if out.PaymentURL == "" {
		return nil, fmt.Errorf("%w: prepare returned no payment url", ErrInvalidResponse)
	}
	return &out, nil
}

// Status looks a sale up by id
func (c *Client) Status(ctx context.Context, id string) (*Transaction, error) {
	data, _, err := c.call(ctx, "sale", http.MethodGet, c.saleURL(id), nil)
	if err != nil {
		return nil, err
	}
	return ParseTransaction(unwrap(data))
}

// Confirm acknowledges a button payment. The gateway reverses payments
// that are not confirmed within five minutes.
func (c *Client) Confirm(ctx context.Context, id, clientTxID string) (*Transaction, error) {
	numericID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PayPhone transaction id %q: %w", id, err)
	}
	if clientTxID == "" {
		return nil, errors.New("clientTxId is required")
	}

	payload := struct {
		ID         int64  `json:"id"`
		ClientTxID string `json:"clientTxId"`
	}{numericID, clientTxID}

	data, _, err := c.call(ctx, "confirm", http.MethodPost, c.confirmURL(), payload)
	if err != nil {
		return nil, err
	}
	return ParseTransaction(unwrap(data))
}

// ParseTransaction reads a Confirm or Sale body. Ids may arrive as numbers
// or strings.
func ParseTransaction(data []byte) (*Transaction, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not json", ErrInvalidResponse)
	}
	doc := gjson.ParseBytes(data)
	code := doc.Get("statusCode")
	txID := doc.Get("transactionId")
	if !code.Exists() || !txID.Exists() {
		return nil, fmt.Errorf("%w: missing statusCode or transactionId", ErrInvalidResponse)
	}
	return &Transaction{
		TransactionID:       txID.String(),
		ClientTransactionID: doc.Get("clientTransactionId").String(),
		StatusCode:          int(code.Int()),
		Status:              doc.Get("status").String(),
		TransactionStatus:   doc.Get("transactionStatus").String(),
		Amount:              doc.Get("amount").Float(),
		Currency:            doc.Get("currency").String(),
		AuthorizationCode:   doc.Get("authorizationCode").String(),
		CardBrand:           doc.Get("cardBrand").String(),
		LastDigits:          doc.Get("lastDigits").String(),
		Email:               doc.Get("email").String(),
		PhoneNumber:         doc.Get("phoneNumber").String(),
		Reference:           doc.Get("reference").String(),
	}, nil
}

// StatusText returns the best human label of a transaction's state
func (t *Transaction) StatusText() string {
	if t.Status != "" {
		return t.Status
	}
	if t.TransactionStatus != "" {
		return t.TransactionStatus
	}
	return "desconocido"
}
