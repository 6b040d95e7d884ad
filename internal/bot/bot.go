// Package bot answers structured queries from the WhatsApp/n8n assistant:
// fee calculations, blog search, static firm information, contract status
// and scope checks.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/calculator"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// QueryType names one bot operation
type QueryType string

const (
	CalculateInmobiliario      QueryType = "calculate.inmobiliario"
	CalculateVehicular         QueryType = "calculate.vehicular"
	CalculateNotarial          QueryType = "calculate.notarial"
	CalculateAlcabala          QueryType = "calculate.alcabala"
	CalculateRegistro          QueryType = "calculate.registro"
	CalculateConsejoProvincial QueryType = "calculate.consejo_provincial"
	SearchBlog                 QueryType = "search.blog"
	GetServices                QueryType = "get.services"
	GetContact                 QueryType = "get.contact"
	GetRequirements            QueryType = "get.requirements"
	GetScope                   QueryType = "get.scope"
	CheckContract              QueryType = "check.contract"
	CheckScope                 QueryType = "check.scope"
)

// ValidTypes lists every supported query type, in the order clients see it
var ValidTypes = []QueryType{
	CalculateInmobiliario,
	CalculateVehicular,
	CalculateNotarial,
	CalculateAlcabala,
	CalculateRegistro,
	CalculateConsejoProvincial,
	SearchBlog,
	GetServices,
	GetContact,
	GetRequirements,
	GetScope,
	CheckContract,
	CheckScope,
}

// IsValid reports whether t is a supported query type
func (t QueryType) IsValid() bool {
	for _, v := range ValidTypes {
		if v == t {
			return true
		}
	}
	return false
}

// MaxContracts caps check.contract results
const MaxContracts = 5

const dateLayout = "2006-01-02"

var (
	ErrContractLookup   = errors.New("se requiere email o contractId")
	ErrValueRequired    = errors.New("valor/valorTransferencia es requerido y debe ser > 0")
	ErrInvalidQueryData = errors.New("data debe ser un objeto JSON")
)

// Query is the body of a bot request
type Query struct {
	Type QueryType       `json:"type" validate:"required"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Response is the envelope every query answers with
type Response struct {
	Success bool        `json:"success"`
	Type    QueryType   `json:"type"`
	Result  interface{} `json:"result"`
	Error   string      `json:"error,omitempty"`
}

type handlerFunc func(ctx context.Context, data gjson.Result) (interface{}, error)

// Service dispatches bot queries
type Service struct {
	blog      *repository.BlogRepository
	contracts *repository.ContractRepository
	siteURL   string
	log       *zap.Logger
	now       func() time.Time
	handlers  map[QueryType]handlerFunc
}

func NewService(blog *repository.BlogRepository, contracts *repository.ContractRepository, siteURL string, log *zap.Logger) *Service {
	s := &Service{
		blog:      blog,
		contracts: contracts,
		siteURL:   strings.TrimRight(siteURL, "/"),
		log:       log,
		now:       time.Now,
	}
	s.handlers = map[QueryType]handlerFunc{
		CalculateInmobiliario:      s.calculateInmobiliario,
		CalculateVehicular:         s.calculateVehicular,
		CalculateNotarial:          s.calculateNotarial,
		CalculateAlcabala:          s.calculateAlcabala,
		CalculateRegistro:          s.calculateRegistro,
		CalculateConsejoProvincial: s.calculateConsejo,
		SearchBlog:                 s.searchBlog,
		GetServices:                s.services,
		GetContact:                 s.contact,
		GetRequirements:            s.requirements,
		GetScope:                   s.scope,
		CheckContract:              s.checkContract,
		CheckScope:                 s.checkScope,
	}
	return s
}

// Handle runs one query. Failures are reported inside the Response so the
// caller can relay the message; Handle itself never errors.
func (s *Service) Handle(ctx context.Context, q Query) Response {
	h, ok := s.handlers[q.Type]
	if !ok {
		prometheus.RecordBotRequest(string(q.Type), "unsupported")
		return Response{Type: q.Type, Error: fmt.Sprintf("Tipo de consulta no soportado: %s", q.Type)}
	}

	data := gjson.Parse("{}")
	if raw := strings.TrimSpace(string(q.Data)); raw != "" && raw != "null" {
		data = gjson.Parse(raw)
		if !data.IsObject() {
			prometheus.RecordBotRequest(string(q.Type), "error")
			return Response{Type: q.Type, Error: ErrInvalidQueryData.Error()}
		}
	}

	result, err := h(ctx, data)
	if err != nil {
		s.log.Info("Bot query failed", zap.String("type", string(q.Type)), zap.Error(err))
		prometheus.RecordBotRequest(string(q.Type), "error")
		return Response{Type: q.Type, Error: err.Error()}
	}
	prometheus.RecordBotRequest(string(q.Type), "ok")
	return Response{Success: true, Type: q.Type, Result: result}
}

// first returns the first present field among keys
func first(data gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := data.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func number(data gjson.Result, def float64, keys ...string) float64 {
	if v := first(data, keys...); v.Exists() {
		return v.Float()
	}
	return def
}

func text(data gjson.Result, def string, keys ...string) string {
	if v := first(data, keys...); v.Exists() && v.String() != "" {
		return v.String()
	}
	return def
}

func date(data gjson.Result, def time.Time, key string) (time.Time, error) {
	v := data.Get(key)
	if !v.Exists() || v.String() == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, v.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, calculator.ErrInvalidDates)
	}
	return t, nil
}

// municipal reads the inputs shared by the alcabala and budget queries;
// missing acquisition data defaults to 80% of the value bought in 2020
func (s *Service) municipal(data gjson.Result) (calculator.DatosMunicipales, error) {
	valor := number(data, 0, "valorTransferencia", "valor", "valorInmueble")
	d := calculator.DatosMunicipales{
		ValorTransferencia:  valor,
		AvaluoCatastral:     number(data, valor, "avaluoCatastral", "avaluo"),
		ValorAdquisicion:    number(data, valor*0.8, "valorAdquisicion"),
		TipoTransferencia:   calculator.TipoTransferencia(text(data, string(calculator.Compraventa), "tipoTransferencia")),
		TipoTransferente:    calculator.TipoTransferente(text(data, string(calculator.PersonaNatural), "tipoTransferente")),
		Mejoras:             number(data, 0, "mejoras"),
		ContribucionMejoras: number(data, 0, "contribucionMejoras"),
	}

	var err error
	if d.FechaAdquisicion, err = date(data, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "fechaAdquisicion"); err != nil {
		return d, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if d.FechaTransferencia, err = date(data, today, "fechaTransferencia"); err != nil {
		return d, err
	}
	return d, nil
}

func (s *Service) calculateInmobiliario(_ context.Context, data gjson.Result) (interface{}, error) {
	d, err := s.municipal(data)
	if err != nil {
		return nil, err
	}
	if d.ValorTransferencia <= 0 {
		return nil, ErrValueRequired
	}
	prometheus.RecordCalculator("inmobiliario")
	return calculator.CalcularInmobiliario(calculator.InputInmobiliario{
		DatosMunicipales: d,
		EsViviendaSocial: data.Get("esViviendaSocial").Bool(),
		EsTerceraEdad:    data.Get("esTerceraEdad").Bool(),
		EsDiscapacitado:  data.Get("esDiscapacitado").Bool(),
	})
}

func (s *Service) calculateVehicular(_ context.Context, data gjson.Result) (interface{}, error) {
	prometheus.RecordCalculator("vehicular")
	return calculator.CalcularVehicular(
		number(data, 0, "valorVehiculo", "valor"),
		int(number(data, 2, "numFirmas", "firmas")),
	)
}

func (s *Service) calculateNotarial(_ context.Context, data gjson.Result) (interface{}, error) {
	tramite := calculator.Tramite(strings.ToUpper(text(data, string(calculator.TransferenciaDominio), "tipoTramite", "tipo")))

	var op calculator.OpcionesNotarial
	if v := data.Get("opciones"); v.IsObject() {
		if err := json.Unmarshal([]byte(v.Raw), &op); err != nil {
			return nil, fmt.Errorf("opciones inválidas: %w", err)
		}
	}
	prometheus.RecordCalculator("notarial")
	return calculator.CalcularNotarial(tramite, number(data, 0, "valor", "monto"), op)
}

func (s *Service) calculateAlcabala(_ context.Context, data gjson.Result) (interface{}, error) {
	d, err := s.municipal(data)
	if err != nil {
		return nil, err
	}
	prometheus.RecordCalculator("alcabala")
	return calculator.CalcularAlcabala(d)
}

func (s *Service) calculateRegistro(_ context.Context, data gjson.Result) (interface{}, error) {
	valor := number(data, 0, "valor", "valorTransferencia")
	if valor < 0 {
		return nil, calculator.ErrNegativeAmount
	}
	prometheus.RecordCalculator("registro")
	return calculator.CalcularRegistro(valor, data.Get("terceraEdad").Bool(), data.Get("discapacidad").Bool()), nil
}

func (s *Service) calculateConsejo(_ context.Context, data gjson.Result) (interface{}, error) {
	valor := number(data, 0, "valor", "valorTransferencia")
	prometheus.RecordCalculator("consejo_provincial")
	return calculator.CalcularAlcabalaConConsejo(valor, number(data, 0, "avaluoCatastral"), int(number(data, 0, "meses")))
}

type blogHit struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

func (s *Service) searchBlog(ctx context.Context, data gjson.Result) (interface{}, error) {
	page, err := s.blog.ListPublished(ctx, repository.BlogQuery{
		Category: text(data, "", "category"),
		Page:     int(number(data, 1, "page")),
	})
	if err != nil {
		return nil, err
	}

	posts := make([]blogHit, 0, len(page.Posts))
	for _, p := range page.Posts {
		posts = append(posts, blogHit{
			Title:    p.Title,
			Excerpt:  p.Excerpt,
			URL:      s.siteURL + "/blog/" + p.Slug,
			Category: p.Category,
		})
	}
	return map[string]interface{}{
		"posts":      posts,
		"categories": page.Categories,
		"total":      page.Total,
	}, nil
}

// ContractStatusText is how the bot describes each contract status
var ContractStatusText = map[model.ContractStatus]string{
	model.StatusDraft:          "Borrador (pendiente de pago)",
	model.StatusPendingPayment: "Esperando confirmación de pago",
	model.StatusPaid:           "Pagado, generando documento...",
	model.StatusGenerated:      "Listo para descargar",
	model.StatusDownloaded:     "Ya descargado",
}

// ContractSummary is the redacted view of a contract the bot may share
type ContractSummary struct {
	ID          string               `json:"id"`
	Status      model.ContractStatus `json:"status"`
	StatusText  string               `json:"statusText"`
	Type        model.DocumentType   `json:"type"`
	CreatedAt   time.Time            `json:"createdAt"`
	DownloadURL *string              `json:"downloadUrl"`
}

func (s *Service) checkContract(ctx context.Context, data gjson.Result) (interface{}, error) {
	contractID := text(data, "", "contractId")
	email := text(data, "", "email")

	var found []model.Contract
	switch {
	case contractID != "":
		c, err := s.contracts.GetByID(ctx, contractID)
		if err != nil && !errors.Is(err, repository.ErrContractNotFound) {
			return nil, err
		}
		if c != nil {
			found = append(found, *c)
		}
	case email != "":
		list, err := s.contracts.ListByDeliveryEmail(ctx, email, MaxContracts)
		if err != nil {
			return nil, err
		}
		found = list
	default:
		return nil, ErrContractLookup
	}

	out := make([]ContractSummary, 0, len(found))
	for _, c := range found {
		sum := ContractSummary{
			ID:         shortID(c.ID),
			Status:     c.Status,
			StatusText: ContractStatusText[c.Status],
			Type:       c.Type,
			CreatedAt:  c.CreatedAt,
		}
		if sum.StatusText == "" {
			sum.StatusText = string(c.Status)
		}
		if c.DownloadToken != "" {
			u := s.siteURL + document.SuccessURL(c.DownloadToken)
			sum.DownloadURL = &u
		}
		out = append(out, sum)
	}
	return map[string]interface{}{"contracts": out, "total": len(out)}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ScopeCheck is the answer to check.scope
type ScopeCheck struct {
	InScope    bool   `json:"inScope"`
	Category   string `json:"category,omitempty"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CTA        string `json:"cta,omitempty"`
}

const scopeCTA = "¿Hay algo más en lo que te pueda ayudar? Manejamos escrituras, poderes, contratos vehiculares y más."

func (s *Service) checkScope(_ context.Context, data gjson.Result) (interface{}, error) {
	rule := DetectOutOfScope(text(data, "", "text", "message"))
	if rule == nil {
		return ScopeCheck{InScope: true}, nil
	}
	return ScopeCheck{
		Category:   rule.Category,
		Message:    rule.Message,
		Suggestion: rule.Suggestion,
		Phone:      rule.Phone,
		CTA:        scopeCTA,
	}, nil
}

func (s *Service) scope(context.Context, gjson.Result) (interface{}, error) {
	return map[string]interface{}{
		"systemContext":   SystemContext,
		"inScopeServices": InScopeServices,
		"outOfScopeRules": OutOfScopeRules,
	}, nil
}
