package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/notify"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"github.com/abogadosonline/aoe-api/internal/storage"
	"go.uber.org/zap"
)

var (
	ErrNotPaid       = errors.New("contract has not been paid")
	ErrTokenRequired = errors.New("download token required")
	ErrTokenMismatch = errors.New("invalid download token")
	ErrTokenExpired  = errors.New("download token expired")
	ErrNotGenerated  = errors.New("document not generated yet")
	ErrUnknownFormat = errors.New("unknown document format")
)

// Download formats
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
)

// SignedURLTTL is how long a storage link handed to the buyer lives
const SignedURLTTL = 24 * time.Hour

// Generator renders paid contracts, stores them and delivers them
type Generator struct {
	contracts *repository.ContractRepository
	store     storage.Store
	mailer    notify.Mailer
	audit     *audit.Recorder
	appURL    string
	log       *zap.Logger
	now       func() time.Time
}

func NewGenerator(contracts *repository.ContractRepository, store storage.Store, mailer notify.Mailer,
	rec *audit.Recorder, appURL string, log *zap.Logger) *Generator {
	return &Generator{
		contracts: contracts,
		store:     store,
		mailer:    mailer,
		audit:     rec,
		appURL:    strings.TrimRight(appURL, "/"),
		log:       log,
		now:       time.Now,
	}
}

// DownloadURL is the link emailed to the buyer
func (g *Generator) DownloadURL(contractID, token string) string {
	q := url.Values{"contractId": {contractID}, "token": {token}}
	return g.appURL + "/api/contracts/download?" + q.Encode()
}

// SuccessURL is the page the buyer lands on once the document exists
func SuccessURL(token string) string {
	return "/contratos/pago/exito?token=" + url.QueryEscape(token)
}

// Generate renders the contract PDF, uploads it, issues a download token
// and moves the contract to GENERATED. A contract that already has a
// document is returned as stored, keeping its first token.
func (g *Generator) Generate(ctx context.Context, contractID string) (*model.Contract, error) {
	log := g.log.With(zap.String("contract_id", contractID))

	c, err := g.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status.HasDocument() {
		return c, nil
	}
	if c.Status != model.StatusPaid {
		return nil, fmt.Errorf("%w: status %s", ErrNotPaid, c.Status)
	}
	data, err := c.VehicleData()
	if err != nil {
		return nil, err
	}

	now := g.now()
	pdf, err := RenderPDF(BuildContract(data, now), now)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(pdf)
	hash := hex.EncodeToString(sum[:])

	key := storage.ContractKey(c.ID)
	if err := g.store.Put(ctx, key, pdf, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to upload contract pdf: %w", err)
	}

	token := model.NewDownloadToken()
	expires := now.Add(model.DownloadTokenTTL)
	err = g.contracts.UpdateStatus(ctx, c.ID,
		[]model.ContractStatus{model.StatusPaid}, model.StatusGenerated,
		map[string]interface{}{
			"pdf_url":                   key,
			"pdf_hash":                  hash,
			"download_token":            token,
			"download_token_expires_at": expires,
		})
	if errors.Is(err, repository.ErrStatusChanged) {
		// another caller generated it first
		cur, gerr := g.contracts.GetByID(ctx, c.ID)
		if gerr != nil {
			return nil, gerr
		}
		if cur.Status.HasDocument() {
			log.Info("Contract document already generated")
			return cur, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	c.Status = model.StatusGenerated
	c.PdfURL = key
	c.PdfHash = hash
	c.DownloadToken = token
	c.DownloadTokenExpiresAt = &expires

	prometheus.RecordDocument(FormatPDF)
	g.audit.Record(ctx, audit.Entry{
		UserID:       c.UserID,
		Action:       model.ActionDocumentGenerated,
		ResourceType: "contract",
		ResourceID:   c.ID,
		Details:      map[string]interface{}{"pdf_hash": hash},
	})
	log.Info("Contract document generated", zap.String("pdf_hash", hash))

	g.deliver(ctx, c, data, pdf)
	return c, nil
}

// deliver emails the document. Failures only log: the file is already
// available through the download link.
func (g *Generator) deliver(ctx context.Context, c *model.Contract, data *model.ContratoVehicular, pdf []byte) {
	to := strings.TrimSpace(c.DeliveryEmail)
	if to == "" {
		to = strings.TrimSpace(data.Comprador.Email)
	}
	if to == "" {
		return
	}
	msg, err := notify.ContractDelivery(notify.ContractEmail{
		To:          to,
		ClientName:  data.Comprador.Nombres,
		Placa:       data.Vehiculo.Placa,
		Marca:       data.Vehiculo.Marca,
		Modelo:      data.Vehiculo.Modelo,
		DownloadURL: g.DownloadURL(c.ID, c.DownloadToken),
		PDF:         pdf,
	})
	if err == nil {
		_, err = g.mailer.Send(ctx, msg)
	}
	if err != nil {
		g.log.Warn("Failed to email contract", zap.String("contract_id", c.ID), zap.Error(err))
	}
}

// File is a document served to the buyer: either a redirect to storage or
// the bytes themselves
type File struct {
	RedirectURL string
	Data        []byte
	ContentType string
	Filename    string
}

// Download checks the token and returns the document in the requested
// format, marking the contract DOWNLOADED
func (g *Generator) Download(ctx context.Context, contractID, token, format string) (*File, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(contractID) == "" {
		return nil, ErrTokenRequired
	}
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatDOCX {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	c, err := g.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.DownloadToken == "" || c.DownloadToken != token {
		return nil, ErrTokenMismatch
	}
	if !c.DownloadTokenValid(token, g.now()) {
		return nil, ErrTokenExpired
	}
	if !c.Status.HasDocument() {
		return nil, ErrNotGenerated
	}

	var file *File
	if format == FormatDOCX {
		file, err = g.docx(c)
	} else {
		file, err = g.pdf(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	err = g.contracts.UpdateStatus(ctx, c.ID,
		[]model.ContractStatus{model.StatusGenerated, model.StatusDownloaded}, model.StatusDownloaded, nil)
	if err != nil {
		g.log.Warn("Failed to mark contract downloaded", zap.String("contract_id", c.ID), zap.Error(err))
	}
	g.audit.Record(ctx, audit.Entry{
		UserID:       c.UserID,
		Action:       model.ActionDocumentDownloaded,
		ResourceType: "contract",
		ResourceID:   c.ID,
		Details:      map[string]interface{}{"format": format},
	})
	return file, nil
}

func (g *Generator) pdf(ctx context.Context, c *model.Contract) (*File, error) {
	key := c.PdfURL
	if key == "" {
		key = storage.ContractKey(c.ID)
	}
	signed, err := g.store.SignedURL(ctx, key, SignedURLTTL)
	if err == nil {
		return &File{RedirectURL: signed}, nil
	}
	if !errors.Is(err, storage.ErrSigningUnsupported) {
		return nil, err
	}
	data, err := g.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, ContentType: "application/pdf", Filename: filename(c, FormatPDF)}, nil
}

func (g *Generator) docx(c *model.Contract) (*File, error) {
	data, err := c.VehicleData()
	if err != nil {
		return nil, err
	}
	out, err := RenderDOCX(BuildContract(data, c.UpdatedAt))
	if err != nil {
		return nil, err
	}
	prometheus.RecordDocument(FormatDOCX)
	return &File{Data: out, ContentType: DOCXContentType, Filename: filename(c, FormatDOCX)}, nil
}

func filename(c *model.Contract, ext string) string {
	if data, err := c.VehicleData(); err == nil && data.Vehiculo.Placa != "" {
		return "contrato-" + data.Vehiculo.Placa + "." + ext
	}
	return "contrato-" + c.ID + "." + ext
}

// SendPresupuesto renders a quote and emails it to the lead
func (g *Generator) SendPresupuesto(ctx context.Context, p *Presupuesto) (string, error) {
	now := g.now()
	pdf, err := RenderPresupuestoPDF(p, now)
	if err != nil {
		return "", err
	}
	prometheus.RecordDocument("presupuesto")
	msg, err := notify.Presupuesto(notify.PresupuestoEmail{
		To:         p.ClientEmail,
		ClientName: p.ClientName,
		Rol:        p.Rol,
		Total:      p.Total,
		PDF:        pdf,
		Filename:   p.Filename(now),
	})
	if err != nil {
		return "", err
	}
	return g.mailer.Send(ctx, msg)
}
