// Package notify sends transactional email and lead notifications
package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/httpretry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ResendURL is the Resend send endpoint
const ResendURL = "https://api.resend.com/emails"

var ErrNoRecipient = errors.New("email has no recipient")

// Attachment is a file sent with a message
type Attachment struct {
	Filename string
	Content  []byte
}

// Tag labels a message for the provider's analytics
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is one outgoing email
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
	Tags        []Tag
}

// Mailer delivers a message and returns the provider id
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewMailer returns the Resend mailer, or a log-only mailer when no API key
// is configured
func NewMailer(cfg config.EmailConfig, log *zap.Logger) Mailer {
	if cfg.ResendAPIKey == "" {
		log.Warn("RESEND_API_KEY not configured, emails will only be logged")
		return &LogMailer{from: cfg.From, log: log}
	}
	return NewResend(cfg.ResendAPIKey, cfg.From, log)
}

// Resend sends through the Resend REST API
type Resend struct {
	apiKey     string
	from       string
	endpoint   string
	httpClient httpretry.Doer
	retry      httpretry.Config
	log        *zap.Logger
}

func NewResend(apiKey, from string, log *zap.Logger) *Resend {
	return &Resend{
		apiKey:     apiKey,
		from:       from,
		endpoint:   ResendURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		retry:      httpretry.DefaultConfig(),
		log:        log,
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	ReplyTo     string             `json:"reply_to,omitempty"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
	Tags        []Tag              `json:"tags,omitempty"`
}

func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	req := resendRequest{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Tags:    msg.Tags,
	}
	if req.From == "" {
		req.From = r.from
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, resendAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}

	resp, err := httpretry.Do(ctx, r.httpClient, r.retry, func(ctx context.Context) (*http.Request, error) {
		hr, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		hr.Header.Set("Authorization", "Bearer "+r.apiKey)
		hr.Header.Set("Content-Type", "application/json")
		return hr, nil
	})
	if err != nil {
		return "", fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read email response: %w", err)
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = string(data)
		}
		return "", fmt.Errorf("resend error %d: %s", resp.StatusCode, msg)
	}

	id := gjson.GetBytes(data, "id").String()
	r.log.Info("Email sent", zap.String("id", id), zap.String("subject", msg.Subject))
	return id, nil
}

// LogMailer only logs messages
type LogMailer struct {
	from string
	log  *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(_ context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	l.log.Info("Email not sent (no provider configured)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return "", nil
}
