package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/httpretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocal_PutGet(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := ContractKey("abc")
	require.NoError(t, l.Put(ctx, key, []byte("%PDF-1.3"), "application/pdf"))

	data, err := l.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	_, err = l.Get(ctx, ContractKey("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.SignedURL(ctx, key, time.Hour)
	assert.ErrorIs(t, err, ErrSigningUnsupported)

	assert.ErrorIs(t, l.Put(ctx, "../etc/passwd", nil, ""), ErrInvalidKey)
}

func TestNew(t *testing.T) {
	s, err := New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)

	s, err = New(config.StorageConfig{Driver: "supabase", SupabaseURL: "https://x.supabase.co/", Bucket: "documents"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co", s.(*Supabase).baseURL)

	_, err = New(config.StorageConfig{Driver: "s3"}, zap.NewNop())
	assert.Error(t, err)
}

func newTestSupabase(url string) *Supabase {
	s := NewSupabase(url, "service-key", "documents", zap.NewNop())
	s.retry = httpretry.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond,
		BackoffMultiplier: 1, RetryableStatusCodes: []int{http.StatusServiceUnavailable}}
	return s
}

func TestSupabase_Put(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/documents/contracts/abc.pdf", r.URL.Path)
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "pdf-bytes", string(body))
		_, _ = w.Write([]byte(`{"Key":"documents/contracts/abc.pdf"}`))
	}))
	defer srv.Close()

	s := newTestSupabase(srv.URL)
	require.NoError(t, s.Put(context.Background(), ContractKey("abc"), []byte("pdf-bytes"), "application/pdf"))
	assert.Equal(t, 2, calls)
}

func TestSupabase_SignedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/sign/documents/contracts/abc.pdf", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"expiresIn":86400}`, string(body))
		_, _ = w.Write([]byte(`{"signedURL":"/object/sign/documents/contracts/abc.pdf?token=t"}`))
	}))
	defer srv.Close()

	s := newTestSupabase(srv.URL)
	u, err := s.SignedURL(context.Background(), ContractKey("abc"), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/sign/documents/contracts/abc.pdf?token=t", u)
}

func TestSupabase_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"new row violates row-level security policy"}`))
	}))
	defer srv.Close()

	s := newTestSupabase(srv.URL)
	_, err := s.Get(context.Background(), "contracts/none.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Put(context.Background(), "contracts/x.pdf", []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row-level security")
}
