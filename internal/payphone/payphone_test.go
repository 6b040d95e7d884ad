package payphone

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/httpretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(cfg config.PayPhoneConfig) *Client {
	if cfg.Token == "" {
		cfg.Token = "tok123"
	}
	if cfg.StoreID == "" {
		cfg.StoreID = "store-1"
	}
	c := NewClient(cfg, zap.NewNop())
	c.retry = httpretry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1,
		RetryableStatusCodes: []int{http.StatusTooManyRequests, http.StatusBadGateway}}
	return c
}

func TestContractAmounts(t *testing.T) {
	a := ContractAmounts(9.99)
	assert.Equal(t, int64(999), a.Amount)
	assert.Equal(t, int64(868), a.AmountWithTax)
	assert.Equal(t, int64(131), a.Tax)
	assert.Equal(t, int64(0), a.AmountWithoutTax)
	assert.Equal(t, a.Amount, a.AmountWithTax+a.Tax+a.AmountWithoutTax)
}

func TestFees(t *testing.T) {
	f := Fees(100)
	assert.Equal(t, 100.0, f.Subtotal)
	assert.Equal(t, 5.0, f.PayphoneFee)
	assert.Equal(t, 0.75, f.IVA)
	assert.Equal(t, 105.75, f.Total)
}

func TestNewClientTxID(t *testing.T) {
	id := NewClientTxID(time.UnixMilli(1735689600000))
	assert.Equal(t, "AOEM5D4RUO0", id)
	assert.LessOrEqual(t, len(id), 15)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "Bearer abc", NormalizeToken("abc"))
	assert.Equal(t, "Bearer abc", NormalizeToken("  Bearer abc "))
	assert.Equal(t, "bearer abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "Bearer abc", NormalizeToken("Bearer_abc"))
}

func TestCredentials(t *testing.T) {
	_, err := NewClient(config.PayPhoneConfig{}, zap.NewNop()).Prepare(context.Background(), PrepareRequest{})
	assert.ErrorIs(t, err, ErrCredentialsMissing)

	c := NewClient(config.PayPhoneConfig{Token: "tu_token_aqui", StoreID: "1"}, zap.NewNop())
	assert.False(t, c.Configured())
	_, err = c.Status(context.Background(), "1")
	assert.ErrorIs(t, err, ErrPlaceholderCredentials)

	c = NewClient(config.PayPhoneConfig{Token: "t", StoreID: "s", ProxyURL: "https://proxy.dev/api"}, zap.NewNop())
	_, err = c.Status(context.Background(), "1")
	assert.ErrorIs(t, err, ErrProxySecretMissing)
}

func TestURLResolution(t *testing.T) {
	c := testClient(config.PayPhoneConfig{})
	assert.Equal(t, DefaultBaseURL+"/button/Prepare", c.prepareURL())
	assert.Equal(t, DefaultBaseURL+"/Sale/client/42", c.saleURL("42"))
	assert.Equal(t, DefaultBaseURL+"/button/V2/Confirm", c.confirmURL())

	c = testClient(config.PayPhoneConfig{ProxyURL: "https://worker.dev/api/", ProxySecret: "s3"})
	assert.Equal(t, "https://worker.dev/api/button/Prepare", c.prepareURL())

	c = testClient(config.PayPhoneConfig{
		LinksURL:  "https://n8n.dev/webhook/prepare",
		SaleURL:   "https://n8n.dev/webhook/sale/",
		N8NSecret: "n s",
	})
	assert.Equal(t, "https://n8n.dev/webhook/prepare?secret=n+s", c.prepareURL())
	assert.Equal(t, "https://n8n.dev/webhook/sale?secret=n+s&id=42", c.saleURL("42"))

	c = testClient(config.PayPhoneConfig{SaleURL: "https://relay.dev/sale/{{transactionId}}?x=1"})
	assert.Equal(t, "https://relay.dev/sale/42?x=1", c.saleURL("42"))
}

func TestPrepare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/button/Prepare", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		assert.Equal(t, "AOE-v2/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "s3", r.Header.Get("X-Proxy-Secret"))

		var body PrepareRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "store-1", body.StoreID)
		assert.Equal(t, "USD", body.Currency)
		assert.Equal(t, int64(999), body.Amount)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"body":{"paymentId":77,"payWithCard":"https://pay.dev/card/77"}}`))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{ProxyURL: srv.URL, ProxySecret: "s3"})
	req := PrepareRequest{ClientTransactionID: "AOE1", ResponseURL: "https://app.dev/cb"}
	ContractAmounts(9.99).Apply(&req)

	resp, err := c.Prepare(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(77), resp.PaymentID)
	assert.Equal(t, "https://pay.dev/card/77", resp.PaymentURL)
}

func TestPrepare_PlainTextURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`"https://pay.dev/x"` + "\n"))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{LinksURL: srv.URL})
	resp, err := c.Prepare(context.Background(), PrepareRequest{})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.dev/x", resp.PaymentURL)
}

func TestPrepare_ProxyError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"proxySource":"worker","statusCode":302,"location":"https://block.page"}`))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{LinksURL: srv.URL})
	_, err := c.Prepare(context.Background(), PrepareRequest{})
	require.Error(t, err)

	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusForbidden, gwErr.StatusCode)
	assert.Equal(t, "[worker] HTTP 302 (redirect: https://block.page)", gwErr.Message)
	assert.Equal(t, 1, calls)
}

func TestStatus_RetriesAndUnwraps(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html><body>Bad gateway</body></html>"))
			return
		}
		assert.Equal(t, "/Sale/client/AOE1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"statusCode":200,"body":{"transactionId":123456,"statusCode":3,"transactionStatus":"Approved"}}`))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{})
	c.baseURL = srv.URL

	tx, err := c.Status(context.Background(), "AOE1")
	require.NoError(t, err)
	assert.Equal(t, "123456", tx.TransactionID)
	assert.True(t, tx.Approved())
	assert.Equal(t, "Approved", tx.StatusText())
	assert.Equal(t, 2, calls)
}

func TestStatus_HTMLErrorSummarised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>blocked</html>"))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{})
	c.baseURL = srv.URL
	_, err := c.Status(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagina HTML")
}

func TestConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/button/V2/Confirm", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":987,"clientTxId":"AOE1"}`, string(raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"transactionId":"987","clientTransactionId":"AOE1","statusCode":3,"status":"Approved","amount":999}`))
	}))
	defer srv.Close()

	c := testClient(config.PayPhoneConfig{})
	c.baseURL = srv.URL

	tx, err := c.Confirm(context.Background(), "987", "AOE1")
	require.NoError(t, err)
	assert.True(t, tx.Approved())
	assert.Equal(t, "AOE1", tx.ClientTransactionID)

	_, err = c.Confirm(context.Background(), "not-a-number", "AOE1")
	assert.Error(t, err)
}

func TestParseTransaction_Invalid(t *testing.T) {
	_, err := ParseTransaction([]byte(`{"status":"ok"}`))
	assert.ErrorIs(t, err, ErrInvalidResponse)
	_, err = ParseTransaction([]byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestAuthorizeWebhook(t *testing.T) {
	secrets := []string{"abc", "def"}

	assert.Equal(t, AuthResult{OK: true, Reason: AuthNonProduction}, AuthorizeWebhook(false, nil, ""))
	assert.Equal(t, AuthResult{Reason: AuthMissingSecretConfig}, AuthorizeWebhook(true, nil, "abc"))
	assert.Equal(t, AuthResult{Reason: AuthMissingSecret}, AuthorizeWebhook(true, secrets, "  "))
	assert.Equal(t, AuthResult{Reason: AuthInvalidSecret}, AuthorizeWebhook(true, secrets, "zzz"))
	assert.Equal(t, AuthResult{OK: true, Reason: AuthAuthorized}, AuthorizeWebhook(true, secrets, "def"))
}

func TestIncomingSecret(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payphone?secret=query", nil)
	r.Header.Set("x-webhook-secret", "header")
	r.Header.Set("Authorization", "Bearer bearer")
	assert.Equal(t, "header", IncomingSecret(r))

	r.Header.Del("x-webhook-secret")
	assert.Equal(t, "query", IncomingSecret(r))

	r.URL = &url.URL{Path: "/webhooks/payphone"}
	assert.Equal(t, "bearer", IncomingSecret(r))
}

func TestConfiguredSecrets(t *testing.T) {
	got := ConfiguredSecrets(
		config.PayPhoneConfig{WebhookSecret: " one ", ProxySecret: "one"},
		config.N8NConfig{WebhookSecret: "two"},
	)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestParseWebhook(t *testing.T) {
	p, err := ParseWebhook([]byte(`{"id":123,"clientTransactionId":"AOE1","statusCode":3,"status":"Approved","amount":999,"currency":"USD"}`))
	require.NoError(t, err)
	assert.Equal(t, "123", p.ID)
	assert.True(t, p.Approved())

	_, err = ParseWebhook([]byte(`{`))
	assert.Error(t, err)
}
