package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"go.uber.org/zap"
)

// N8NTimeout bounds one lead notification
const N8NTimeout = 5 * time.Second

// LeadEvent is the payload posted to the lead-capture workflow
type LeadEvent struct {
	Email    string                 `json:"email"`
	Name     *string                `json:"name"`
	Phone    *string                `json:"phone"`
	Source   string                 `json:"source"`
	Interes  *string                `json:"interes"`
	Fecha    string                 `json:"fecha"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// N8N notifies automation workflows. Calls never fail the caller.
type N8N struct {
	url        string
	secret     string
	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
}

func NewN8N(cfg config.N8NConfig, log *zap.Logger) *N8N {
	n := &N8N{
		secret:     cfg.WebhookSecret,
		httpClient: &http.Client{Timeout: N8NTimeout},
		log:        log,
		now:        time.Now,
	}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		n.url = LeadCaptureURL(cfg.WebhookURL)
	}
	return n
}

// Enabled reports whether a webhook URL is configured
func (n *N8N) Enabled() bool { return n.url != "" }

// LeadCaptureURL points a configured n8n URL at the lead-capture workflow
func LeadCaptureURL(raw string) string {
	normalized := strings.TrimRight(strings.TrimSpace(raw), "/")

	u, err := url.Parse(normalized)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return appendLeadCapture(normalized)
	}
	u.Path = appendLeadCapture(strings.TrimRight(u.Path, "/"))
	return u.String()
}

func appendLeadCapture(p string) string {
	switch {
	case strings.HasSuffix(p, "/lead-capture"):
		return p
	case strings.HasSuffix(p, "/webhook"), strings.HasSuffix(p, "/webhook-test"):
		return p + "/lead-capture"
	default:
		return p + "/webhook/lead-capture"
	}
}

// NotifyLead posts the lead in the background
func (n *N8N) NotifyLead(ev LeadEvent) {
	if !n.Enabled() {
		n.log.Warn("N8N_WEBHOOK_URL not configured, skipping notification")
		return
	}
	if ev.Fecha == "" {
		ev.Fecha = n.now().Format("2006-01-02")
	}
	go n.send(ev)
}

func (n *N8N) send(ev LeadEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), N8NTimeout)
	defer cancel()

	body, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("n8n payload encoding failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.log.Error("n8n request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("x-webhook-secret", n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.log.Error("n8n webhook notification failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		n.log.Error("n8n webhook returned an error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("url", n.url),
			zap.String("response", string(text)))
	}
}

// StrPtr returns nil for blank strings
func StrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
