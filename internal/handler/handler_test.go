package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/auth"
	"github.com/abogadosonline/aoe-api/internal/bot"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/payment"
	"github.com/abogadosonline/aoe-api/internal/payphone"
	"github.com/abogadosonline/aoe-api/internal/ratelimit"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/storage"
	"github.com/abogadosonline/aoe-api/internal/validation"
	"github.com/abogadosonline/aoe-api/pkg/config"
	"github.com/abogadosonline/aoe-api/pkg/database"
	"github.com/abogadosonline/aoe-api/pkg/jwtutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testAppURL    = "https://aoe.ec"
	testBotSecret = "bot-key"
	testN8NSecret = "n8n-key"
	testWHSecret  = "whsec"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *captureMailer) Send(_ context.Context, msg notify.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "email-1", nil
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Prepare(ctx context.Context, req payphone.PrepareRequest) (*payphone.PrepareResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*payphone.PrepareResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Status(ctx context.Context, id string) (*payphone.Transaction, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*payphone.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Confirm(ctx context.Context, id, clientTxID string) (*payphone.Transaction, error) {
	args := m.Called(ctx, id, clientTxID)
	if r := args.Get(0); r != nil {
		return r.(*payphone.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

type testEnv struct {
	e      *echo.Echo
	db     *gorm.DB
	repos  *repository.Repositories
	store  *storage.Local
	mailer *captureMailer
	gw     *mockGateway
}

type options struct {
	production bool
	google     *auth.Google
	botLimit   int
}

func setup(t *testing.T, opts options) *testEnv {
	t.Helper()
	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	repos := repository.New(db)

	log := zap.NewNop()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	mailer := &captureMailer{}
	gw := &mockGateway{}
	rec := audit.NewRecorder(repos.Audit, log)
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-secret", ExpirationHours: 24})
	v := validation.New()

	docs := document.NewGenerator(repos.Contracts, store, mailer, rec, testAppURL, log)
	h := New(Deps{
		Repos:          repos,
		Auth:           auth.NewService(repos.Profiles, jwt, mailer, v, testAppURL, opts.google, log),
		Payments:       payment.NewService(repos.Contracts, gw, docs, rec, testAppURL, log),
		Docs:           docs,
		Bot:            bot.NewService(repos.Blog, repos.Contracts, testAppURL, log),
		Mailer:         mailer,
		N8N:            notify.NewN8N(config.N8NConfig{}, log),
		Audit:          rec,
		Validate:       v,
		AppURL:         testAppURL,
		ContactTo:      "equipo@aoe.ec",
		Production:     opts.production,
		WebhookSecrets: []string{testWHSecret},
		N8NSecret:      testN8NSecret,
	})

	r := Routes{JWT: jwt, BotSecret: testBotSecret}
	if opts.botLimit > 0 {
		r.BotLimiter = ratelimit.NewSlidingWindow(time.Minute, opts.botLimit)
	}
	e := echo.New()
	h.Mount(e, r)

	return &testEnv{e: e, db: db, repos: repos, store: store, mailer: mailer, gw: gw}
}

func (env *testEnv) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bearer(token string) []string {
	return []string{echo.HeaderAuthorization, "Bearer " + token}
}

func TestHealthCheck(t *testing.T) {
	env := setup(t, options{})
	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestAccountFlow(t *testing.T) {
	env := setup(t, options{})

	register := `{"fullName":"Ana Pérez","email":"Ana@Mail.ec","password":"secreto1","confirmPassword":"secreto1"}`
	rec := env.do(http.MethodPost, "/api/auth/register", register)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	token, _ := decode(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = env.do(http.MethodPost, "/api/auth/register", register)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", `{"fullName":"Ana","email":"x@mail.ec","password":"secreto1","confirmPassword":"otro1234"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"email":"ana@mail.ec","password":"incorrecto"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", `{"email":"ana@mail.ec","password":"secreto1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "ana@mail.ec", user["email"])

	rec = env.do(http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/me", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Ana Pérez", body["profile"].(map[string]interface{})["fullName"])
	assert.NotNil(t, body["subscription"])

	rec = env.do(http.MethodPut, "/api/me", `{"fullName":"A"}`, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "details")

	rec = env.do(http.MethodPut, "/api/me", `{"fullName":"Ana María Pérez","phone":"0991234567"}`, bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana María Pérez", decode(t, rec)["profile"].(map[string]interface{})["fullName"])

	rec = env.do(http.MethodGet, "/api/me/contracts", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["contracts"])

	rec = env.do(http.MethodDelete, "/api/me", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted int64
	env.db.Model(&model.AuditLog{}).Where("action = ?", model.ActionProfileDeleted).Count(&deleted)
	assert.Equal(t, int64(1), deleted)

	rec = env.do(http.MethodGet, "/api/me", "", bearer(token)...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPassword_AlwaysSucceeds(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"nadie@mail.ec"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
	assert.Empty(t, env.mailer.sent)

	rec = env.do(http.MethodPost, "/api/auth/forgot-password", `{"email":"no-es-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleLogin(t *testing.T) {
	env := setup(t, options{})
	rec := env.do(http.MethodGet, "/api/auth/google", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	g := auth.NewGoogle(config.GoogleConfig{ClientID: "cid", ClientSecret: "cs", RedirectURL: "https://api.aoe.ec/api/auth/google/callback"})
	env = setup(t, options{google: g, production: true})

	rec = env.do(http.MethodGet, "/api/auth/google", "")
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderLocation), "accounts.google.com")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "aoe_oauth_state", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	// a callback without the matching cookie is sent back to the login page
	rec = env.do(http.MethodGet, "/api/auth/google/callback?state=other&code=abc", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testAppURL+"/login?error=oauth_state", rec.Header().Get(echo.HeaderLocation))

	rec = env.do(http.MethodGet, "/api/auth/google/callback?state="+cookies[0].Value+"&error=access_denied", "",
		"Cookie", cookies[0].Name+"="+cookies[0].Value)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testAppURL+"/login?error=access_denied", rec.Header().Get(echo.HeaderLocation))
}

func TestCalculators(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/calculators/vehicular", `{"valorVehiculo":15000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 28.92, decode(t, rec)["costoNotarial"], 0.001)

	rec = env.do(http.MethodPost, "/api/calculators/consejo-provincial", `{"valorTransferencia":100000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, 1000.0, body["impuestoAlcabala"])
	assert.InDelta(t, 101.8, body["impuestoConsejoProvincial"], 0.001)

	rec = env.do(http.MethodPost, "/api/calculators/notarial", `{"tramite":"transferencia_dominio","cuantia":50000}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/calculators/notarial", `{"tramite":"no_existe","cuantia":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/calculators/alcabala",
		`{"fechaAdquisicion":"01/01/2020","fechaTransferencia":"2026-01-01","valorTransferencia":80000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/calculators/vehicular", `{"valorVehiculo":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "details")

	rec = env.do(http.MethodPost, "/api/calculators/inmobiliario", `{
		"fechaAdquisicion":"2018-03-01","fechaTransferencia":"2026-03-15",
		"valorTransferencia":100000,"valorAdquisicion":60000,"avaluoCatastral":80000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resumen := decode(t, rec)["resumen"].(map[string]interface{})
	assert.Equal(t, 100000.0, resumen["valorInmueble"])

	rec = env.do(http.MethodGet, "/api/calculators/notarial/tramites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["tramites"])
}

func TestCalculatorSession(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/calculator-sessions",
		`{"type":"vehicular","inputs":{"valorVehiculo":15000},"result":{"total":40},"visitorId":"v-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode(t, rec)["id"])

	rec = env.do(http.MethodPost, "/api/calculator-sessions", `{"type":"vehicular"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLeadsAndContact(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/leads",
		`{"email":"Lead@Mail.ec","name":"Luis","source":"calculadora","calculatorType":"vehicular","metadata":{"utm":"x"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/leads", `{"email":"nope","source":"calculadora"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/contact",
		`{"nombre":"Carla Ruiz","email":"carla@mail.ec","asunto":"Consulta de escritura","mensaje":"Necesito cotizar una compraventa."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/contact", `{"nombre":"Ca","email":"carla@mail.ec","asunto":"Hola","mensaje":"corto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var calc, contact model.Lead
	require.NoError(t, env.db.Where("source = ?", model.LeadSourceCalculator).First(&calc).Error)
	assert.Equal(t, "lead@mail.ec", calc.Email)
	require.NoError(t, env.db.Where("source = ?", model.LeadSourceContact).First(&contact).Error)
	assert.Equal(t, "Carla Ruiz", contact.Name)

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, []string{"equipo@aoe.ec"}, env.mailer.sent[0].To)
}

func TestPresupuesto(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/lead-magnets/presupuesto", `{
		"clientEmail":"cliente@mail.ec","clientName":"Pedro","rol":"comprador","valorInmueble":100000,
		"desglose":{"notarial":500,"alcabalas":1000,"registro":350,"consejoProvincial":101.8}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "email-1", decode(t, rec)["emailId"])

	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, []string{"cliente@mail.ec"}, env.mailer.sent[0].To)

	var count int64
	env.db.Model(&model.Lead{}).Where("source = ?", model.LeadSourceMagnet).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBlog(t *testing.T) {
	env := setup(t, options{})
	now := time.Now()
	require.NoError(t, env.db.Create(&model.BlogPost{Slug: "impuestos", Title: "Impuestos", Category: "tributario", Published: true, PublishedAt: &now}).Error)
	require.NoError(t, env.db.Create(&model.BlogPost{Slug: "borrador", Title: "Borrador"}).Error)

	rec := env.do(http.MethodGet, "/api/blog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["posts"], 1)
	assert.Equal(t, 1.0, body["total"])

	rec = env.do(http.MethodGet, "/api/blog/impuestos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Impuestos", decode(t, rec)["title"])

	rec = env.do(http.MethodGet, "/api/blog/borrador", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseCUV_Text(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/cuv/parse", `{"text":"CERTIFICADO UNICO VEHICULAR\nVIN: 8LBETF3D690001679\n"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.NotEmpty(t, data)

	rec = env.do(http.MethodPost, "/api/cuv/parse", `{"text":"   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(http.MethodPost, "/api/cuv/parse", `{"text":"un documento cualquiera"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func contractForm() model.ContratoVehicular {
	persona := model.Persona{
		Cedula:        "1712345678",
		Nombres:       "Juan Carlos Perez Lopez",
		Direccion:     "Av. Amazonas N24-123, Quito",
		Telefono:      "0991234567",
		Email:         "juan@email.com",
		EstadoCivil:   model.EstadoSoltero,
		Comparecencia: model.PropiosDerechos,
	}
	return model.ContratoVehicular{
		Vehiculo: model.Vehiculo{
			Placa:         "ABC-1234",
			Marca:         "Toyota",
			Modelo:        "Corolla",
			Anio:          2024,
			Color:         "Blanco",
			Motor:         "2NR-FKE1234567",
			Chasis:        "9BR53ZEC2L1234567",
			Avaluo:        15000,
			ValorContrato: 14500,
		},
		Vendedor:  persona,
		Comprador: persona,
	}
}

func contractBody(t *testing.T, form model.ContratoVehicular) string {
	t.Helper()
	data, err := json.Marshal(echo.Map{"type": model.DocVehicleContract, "data": form, "deliveryEmail": "comprador@mail.ec"})
	require.NoError(t, err)
	return string(data)
}

func TestCreateContract(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/contracts", contractBody(t, contractForm()), "User-Agent", "aoe-test")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, string(model.StatusDraft), body["status"])
	assert.Equal(t, model.ContractPrice, body["price"])

	id := body["id"].(string)
	stored, err := env.repos.Contracts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, stored.UserID)
	assert.Equal(t, "comprador@mail.ec", stored.DeliveryEmail)

	logs, err := env.repos.Audit.ListByResource(context.Background(), "contract", id)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionContractCreated, logs[0].Action)
	assert.Equal(t, "aoe-test", logs[0].UserAgent)
	assert.NotEmpty(t, logs[0].IPAddress)

	bad := contractForm()
	bad.Vehiculo.Placa = "ABC1234"
	rec = env.do(http.MethodPost, "/api/contracts", contractBody(t, bad))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec), "details")

	rec = env.do(http.MethodPost, "/api/contracts", `{"type":"POWER_OF_ATTORNEY","data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func generatedContract(t *testing.T, env *testEnv, expires time.Time) *model.Contract {
	t.Helper()
	data, err := json.Marshal(contractForm())
	require.NoError(t, err)
	c := &model.Contract{
		Type:                   model.DocVehicleContract,
		Status:                 model.StatusGenerated,
		Data:                   data,
		DownloadToken:          "tok-123",
		DownloadTokenExpiresAt: &expires,
	}
	require.NoError(t, env.repos.Contracts.Create(context.Background(), c))
	c.PdfURL = storage.ContractKey(c.ID)
	require.NoError(t, env.db.Model(c).Update("pdf_url", c.PdfURL).Error)
	require.NoError(t, env.store.Put(context.Background(), c.PdfURL, []byte("%PDF-1.4 test"), "application/pdf"))
	return c
}

func TestDownloadContract(t *testing.T) {
	env := setup(t, options{})
	c := generatedContract(t, env, time.Now().Add(time.Hour))

	rec := env.do(http.MethodGet, "/api/contracts/download?contractId="+c.ID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/contracts/download?contractId="+c.ID+"&token=wrong", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/contracts/download?contractId="+c.ID+"&token=tok-123&format=odt", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/contracts/download?contractId="+c.ID+"&token=tok-123", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "contrato-ABC-1234.pdf")
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())

	stored, _ := env.repos.Contracts.GetByID(context.Background(), c.ID)
	assert.Equal(t, model.StatusDownloaded, stored.Status)

	rec = env.do(http.MethodGet, "/api/contracts/download?contractId="+c.ID+"&token=tok-123&format=docx", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, document.DOCXContentType, rec.Header().Get(echo.HeaderContentType))

	expired := generatedContract(t, env, time.Now().Add(-time.Hour))
	rec = env.do(http.MethodGet, "/api/contracts/download?contractId="+expired.ID+"&token=tok-123", "")
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestPreparePayment(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/payments/payphone/prepare", `{"contractId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/contracts", contractBody(t, contractForm()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["id"].(string)

	env.gw.On("Prepare", mock.Anything, mock.MatchedBy(func(req payphone.PrepareRequest) bool {
		return req.OptionalParameter == id
	})).Return(&payphone.PrepareResponse{PaymentURL: "https://pay.payphone/abc"}, nil).Once()

	rec = env.do(http.MethodPost, "/api/payments/payphone/prepare", `{"contractId":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "https://pay.payphone/abc", data["paymentUrl"])
	assert.NotEmpty(t, data["clientTransactionId"])

	rec = env.do(http.MethodPost, "/api/payments/payphone/prepare", `{"contractId":"`+id+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "PENDING_PAYMENT")
	env.gw.AssertExpectations(t)
}

func TestPaymentStatusAndCallback(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodGet, "/api/payments/payphone/status", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/api/payments/payphone/status?contractId=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c := &model.Contract{Status: model.StatusPendingPayment, PaymentID: "AOE123", Data: []byte(`{}`)}
	require.NoError(t, env.repos.Contracts.Create(context.Background(), c))
	env.gw.On("Status", mock.Anything, "AOE123").
		Return(&payphone.Transaction{TransactionID: "987", StatusCode: payphone.StatusPending}, nil)

	rec = env.do(http.MethodGet, "/api/payments/payphone/status?contractId="+c.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["pending"])

	rec = env.do(http.MethodGet, "/api/payments/payphone/callback", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testAppURL+"/contratos/pago/error?reason=invalid", rec.Header().Get(echo.HeaderLocation))
}

func TestPayPhoneWebhook(t *testing.T) {
	env := setup(t, options{production: true})
	payload := `{"id":"999","clientTransactionId":"AOE123","statusCode":3,"status":"Approved","currency":"USD"}`

	rec := env.do(http.MethodPost, "/api/webhooks/payphone", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/webhooks/payphone", payload, payphone.WebhookSecretHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/webhooks/payphone", payload, payphone.WebhookSecretHeader, testWHSecret)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/webhooks/payphone", `{"id":"1"}`, payphone.WebhookSecretHeader, testWHSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a notification without the PayPhone transaction id is rejected
	unpaid := &model.Contract{Status: model.StatusPendingPayment, PaymentID: "AOE777", Data: []byte(`{}`)}
	require.NoError(t, env.repos.Contracts.Create(context.Background(), unpaid))
	rec = env.do(http.MethodPost, "/api/webhooks/payphone",
		`{"clientTransactionId":"AOE777","statusCode":3,"status":"Approved","currency":"USD"}`,
		payphone.WebhookSecretHeader, testWHSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details, _ := decode(t, rec)["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "id", details[0].(map[string]interface{})["field"])
	stored, _ := env.repos.Contracts.GetByID(context.Background(), unpaid.ID)
	assert.Equal(t, model.StatusPendingPayment, stored.Status)
	assert.Equal(t, "AOE777", stored.PaymentID)

	c := &model.Contract{Status: model.StatusPendingPayment, PaymentID: "AOE123", Data: []byte(`{}`)}
	require.NoError(t, env.repos.Contracts.Create(context.Background(), c))
	env.gw.On("Confirm", mock.Anything, "999", "AOE123").
		Return(&payphone.Transaction{TransactionID: "999", StatusCode: payphone.StatusApproved}, nil).Once()

	rec = env.do(http.MethodPost, "/api/webhooks/payphone", payload, payphone.WebhookSecretHeader, testWHSecret)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Payment processed successfully", decode(t, rec)["message"])

	stored, _ = env.repos.Contracts.GetByID(context.Background(), c.ID)
	assert.Equal(t, model.StatusPaid, stored.Status)
	env.gw.AssertExpectations(t)
}

func TestN8NWebhook(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/webhooks/n8n", `{"event":"lead.followup"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/webhooks/n8n", `{"event":"lead.followup"}`, "x-webhook-secret", testN8NSecret)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["received"])

	rec = env.do(http.MethodPost, "/api/webhooks/n8n", `not json`, "x-webhook-secret", testN8NSecret)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBotQuery(t *testing.T) {
	env := setup(t, options{botLimit: 2})

	rec := env.do(http.MethodPost, "/api/bot/query", `{"type":"get.contact"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/api/bot/query", `{"type":"get.weather"}`, bearer(testBotSecret)...)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Len(t, decode(t, rec)["validTypes"], len(bot.ValidTypes))

	rec = env.do(http.MethodPost, "/api/bot/query", `{"type":"get.contact"}`, bearer(testBotSecret)...)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, true, decode(t, rec)["success"])

	rec = env.do(http.MethodPost, "/api/bot/query", `{"type":"get.contact"}`, bearer(testBotSecret)...)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestBotQuery_CalculatorError(t *testing.T) {
	env := setup(t, options{})

	rec := env.do(http.MethodPost, "/api/bot/query", `{"type":"calculate.inmobiliario","data":{}}`, bearer(testBotSecret)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}
