package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/httpretry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Supabase stores objects in a private Supabase Storage bucket using the
// service role key
type Supabase struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient httpretry.Doer
	retry      httpretry.Config
	log        *zap.Logger
}

func NewSupabase(baseURL, serviceKey, bucket string, log *zap.Logger) *Supabase {
	return &Supabase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      httpretry.DefaultConfig(),
		log:        log,
	}
}

func (s *Supabase) objectURL(prefix, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s%s/%s", s.baseURL, prefix, s.bucket, key)
}

func (s *Supabase) do(ctx context.Context, method, target, contentType string, body []byte, extra map[string]string) ([]byte, error) {
	resp, err := httpretry.Do(ctx, s.httpClient, s.retry, func(ctx context.Context) (*http.Request, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.serviceKey)
		req.Header.Set("apikey", s.serviceKey)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for k, v := range extra {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(string(data)), "not found")) {
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		msg := gjson.GetBytes(data, "message").String()
		if msg == "" {
			msg = gjson.GetBytes(data, "error").String()
		}
		if msg == "" {
			msg = string(data)
		}
		s.log.Error("Storage request failed",
			zap.String("method", method),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", msg))
		return nil, fmt.Errorf("storage error %d: %s", resp.StatusCode, msg)
	}
	return data, nil
}

// Put uploads the object, overwriting an existing one
func (s *Supabase) Put(ctx context.Context, key string, data []byte, contentType string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.do(ctx, http.MethodPost, s.objectURL("", key), contentType, data, map[string]string{"x-upsert": "true"})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *Supabase) Get(ctx context.Context, key string) ([]byte, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.do(ctx, http.MethodGet, s.objectURL("", key), "", nil, nil)
}

// SignedURL returns a time-limited direct link to the object
func (s *Supabase) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", err
	}
	data, err := s.do(ctx, http.MethodPost, s.objectURL("sign/", key), "application/json", body, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", key, err)
	}
	signed := gjson.GetBytes(data, "signedURL").String()
	if signed == "" {
		signed = gjson.GetBytes(data, "signedUrl").String()
	}
	if signed == "" {
		return "", fmt.Errorf("storage returned no signed url for %s", key)
	}
	if strings.HasPrefix(signed, "http") {
		return signed, nil
	}
	// the API answers with a path relative to /storage/v1
	return s.baseURL + "/storage/v1" + signed, nil
}
