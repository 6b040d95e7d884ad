// Package payment drives a contract from DRAFT to a delivered document
// through the PayPhone button flow. Every status change is conditional on
// the row's current status, so the browser poll, the callback, the webhook
// and the reconciler can race without applying a payment twice.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/audit"
	"github.com/abogadosonline/aoe-api/internal/document"
	"github.com/abogadosonline/aoe-api/internal/model"
	"github.com/abogadosonline/aoe-api/internal/payphone"
	"github.com/abogadosonline/aoe-api/internal/prometheus"
	"github.com/abogadosonline/aoe-api/internal/repository"
	"go.uber.org/zap"
)

// Reference is the label buyers see on the payment page
const Reference = "Contrato Vehicular - AOE"

var (
	ErrNotPayable       = errors.New("contract cannot be paid in its current status")
	ErrNotApproved      = errors.New("payment not approved")
	ErrInvalidCallback  = errors.New("invalid payment callback parameters")
	ErrContractNotFound = repository.ErrContractNotFound
)

// Gateway is the part of the PayPhone client the flow needs
type Gateway interface {
	Prepare(ctx context.Context, req payphone.PrepareRequest) (*payphone.PrepareResponse, error)
	Status(ctx context.Context, id string) (*payphone.Transaction, error)
	Confirm(ctx context.Context, id, clientTxID string) (*payphone.Transaction, error)
}

// Generator renders the document of a paid contract
type Generator interface {
	Generate(ctx context.Context, contractID string) (*model.Contract, error)
}

// Service runs the payment flow
type Service struct {
	contracts *repository.ContractRepository
	gateway   Gateway
	docs      Generator
	audit     *audit.Recorder
	appURL    string
	log       *zap.Logger
	now       func() time.Time
}

func NewService(contracts *repository.ContractRepository, gateway Gateway, docs Generator,
	rec *audit.Recorder, appURL string, log *zap.Logger) *Service {
	return &Service{
		contracts: contracts,
		gateway:   gateway,
		docs:      docs,
		audit:     rec,
		appURL:    strings.TrimRight(appURL, "/"),
		log:       log,
		now:       time.Now,
	}
}

// NotPayableError carries the status that blocked the payment
type NotPayableError struct {
	Status model.ContractStatus
}

func (e *NotPayableError) Error() string {
	return fmt.Sprintf("Contrato en estado %s, no se puede pagar", e.Status)
}

func (e *NotPayableError) Unwrap() error { return ErrNotPayable }

// Checkout is where the buyer is sent to pay
type Checkout struct {
	PaymentURL          string `json:"paymentUrl"`
	ClientTransactionID string `json:"clientTransactionId"`
}

// Initiate prepares a payment button for a DRAFT contract and moves it to
// PENDING_PAYMENT under a fresh client transaction id
func (s *Service) Initiate(ctx context.Context, contractID, deliveryEmail string) (*Checkout, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c.Status != model.StatusDraft {
		return nil, &NotPayableError{Status: c.Status}
	}

	txID := payphone.NewClientTxID(s.now())
	req := payphone.PrepareRequest{
		ClientTransactionID: txID,
		Currency:            payphone.Currency,
		Reference:           Reference,
		OptionalParameter:   c.ID,
		ResponseURL:         s.appURL + "/contratos/pago/callback",
	}
	payphone.ContractAmounts(model.ContractPrice).Apply(&req)

	resp, err := s.gateway.Prepare(ctx, req)
	if err != nil {
		prometheus.RecordPayment("error")
		return nil, err
	}

	updates := map[string]interface{}{"payment_id": txID}
	if email := strings.TrimSpace(deliveryEmail); email != "" {
		updates["delivery_email"] = strings.ToLower(email)
	}
	err = s.contracts.UpdateStatus(ctx, c.ID, []model.ContractStatus{model.StatusDraft}, model.StatusPendingPayment, updates)
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, &NotPayableError{Status: model.StatusPendingPayment}
	}
	if err != nil {
		return nil, err
	}

	prometheus.RecordPayment("initiated")
	s.audit.Record(ctx, audit.Entry{
		UserID:       c.UserID,
		Action:       model.ActionPaymentInitiated,
		ResourceType: "contract",
		ResourceID:   c.ID,
		Details:      map[string]interface{}{"client_transaction_id": txID},
	})
	s.log.Info("Payment initiated", zap.String("contract_id", c.ID), zap.String("client_tx_id", txID))

	return &Checkout{PaymentURL: resp.PaymentURL, ClientTransactionID: txID}, nil
}

// PollResult is what the payment page polls for
type PollResult struct {
	Success     bool                 `json:"success"`
	Status      model.ContractStatus `json:"status"`
	RedirectURL string               `json:"redirectUrl,omitempty"`
	Pending     bool                 `json:"pending,omitempty"`
}

// PendingURL is shown while a paid contract still waits for its document
func PendingURL(contractID string) string {
	return "/contratos/pago/exito?contractId=" + url.QueryEscape(contractID) + "&pending=true"
}

// Poll reports the contract's progress and pushes it forward: a paid
// contract gets its document, and a pending one is checked with the
// gateway. Gateway errors leave the contract pending.
func (s *Service) Poll(ctx context.Context, contractID string) (*PollResult, error) {
	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}

	switch {
	case c.Status.HasDocument():
		return &PollResult{Success: true, Status: c.Status, RedirectURL: document.SuccessURL(c.DownloadToken)}, nil
	case c.Status == model.StatusPaid:
		return s.generate(ctx, c.ID), nil
	case c.Status == model.StatusPendingPayment && c.PaymentID != "":
		if res := s.checkGateway(ctx, c); res != nil {
			return res, nil
		}
	}
	return &PollResult{Success: false, Status: c.Status, Pending: true}, nil
}

func (s *Service) checkGateway(ctx context.Context, c *model.Contract) *PollResult {
	log := s.log.With(zap.String("contract_id", c.ID), zap.String("client_tx_id", c.PaymentID))

	tx, err := s.gateway.Status(ctx, c.PaymentID)
	if err != nil {
		log.Warn("Payment status check failed", zap.Error(err))
		return nil
	}
	if !tx.Approved() {
		if tx.Cancelled() {
			prometheus.RecordPayment("cancelled")
		}
		return nil
	}

	if _, err := s.gateway.Confirm(ctx, tx.TransactionID, c.PaymentID); err != nil {
		log.Warn("Payment confirm failed", zap.Error(err))
		return nil
	}
	if err := s.markPaid(ctx, c, tx.TransactionID, "poll"); err != nil {
		log.Warn("Failed to mark contract paid", zap.Error(err))
		return nil
	}
	return s.generate(ctx, c.ID)
}

// markPaid moves a DRAFT or PENDING_PAYMENT contract to PAID under the
// gateway's transaction id. Losing the race to another path is not an error.
func (s *Service) markPaid(ctx context.Context, c *model.Contract, gatewayTxID, via string) error {
	err := s.contracts.UpdateStatus(ctx, c.ID,
		[]model.ContractStatus{model.StatusDraft, model.StatusPendingPayment}, model.StatusPaid,
		map[string]interface{}{"payment_id": gatewayTxID, "amount": model.ContractPrice})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil
	}
	if err != nil {
		return err
	}

	prometheus.RecordPayment("approved")
	s.audit.Record(ctx, audit.Entry{
		UserID:       c.UserID,
		Action:       model.ActionPaymentConfirmed,
		ResourceType: "contract",
		ResourceID:   c.ID,
		Details: map[string]interface{}{
			"transaction_id":        gatewayTxID,
			"client_transaction_id": c.PaymentID,
			"via":                   via,
		},
	})
	s.log.Info("Payment approved", zap.String("contract_id", c.ID), zap.String("transaction_id", gatewayTxID), zap.String("via", via))
	return nil
}

func (s *Service) generate(ctx context.Context, contractID string) *PollResult {
	out, err := s.docs.Generate(ctx, contractID)
	if err != nil {
		s.log.Error("Document generation failed", zap.String("contract_id", contractID), zap.Error(err))
		return &PollResult{Success: true, Status: model.StatusPaid, RedirectURL: PendingURL(contractID)}
	}
	return &PollResult{Success: true, Status: model.StatusGenerated, RedirectURL: document.SuccessURL(out.DownloadToken)}
}

// Callback handles the buyer's return from the payment page. The gateway
// appends its transaction id and our client transaction id. It returns the
// path to redirect the buyer to.
func (s *Service) Callback(ctx context.Context, transactionID, clientTxID string) (string, error) {
	transactionID = strings.TrimSpace(transactionID)
	clientTxID = strings.TrimSpace(clientTxID)
	if transactionID == "" || clientTxID == "" {
		return "", ErrInvalidCallback
	}

	c, err := s.contracts.GetByPaymentID(ctx, clientTxID)
	if errors.Is(err, repository.ErrContractNotFound) {
		// after the webhook the row carries the gateway id instead
		c, err = s.contracts.GetByPaymentID(ctx, transactionID)
	}
	if err != nil {
		return "", err
	}

	switch {
	case c.Status.HasDocument():
		return document.SuccessURL(c.DownloadToken), nil
	case c.Status == model.StatusPaid:
		return s.generate(ctx, c.ID).RedirectURL, nil
	}

	tx, err := s.gateway.Confirm(ctx, transactionID, clientTxID)
	if err != nil {
		prometheus.RecordPayment("error")
		return "", err
	}
	if !tx.Approved() {
		prometheus.RecordPayment("rejected")
		return "", fmt.Errorf("%w: %s", ErrNotApproved, tx.StatusText())
	}
	if err := s.markPaid(ctx, c, tx.TransactionID, "callback"); err != nil {
		return "", err
	}
	return s.generate(ctx, c.ID).RedirectURL, nil
}

// WebhookResult acknowledges a webhook
type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleWebhook applies a gateway notification. An approved payment for a
// contract still awaiting payment is confirmed (best effort) and marked
// PAID; anything else is acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, p *payphone.WebhookPayload) (*WebhookResult, error) {
	log := s.log.With(zap.String("client_tx_id", p.ClientTransactionID), zap.String("transaction_id", p.ID))

	c, err := s.contracts.GetByPaymentID(ctx, p.ClientTransactionID)
	legacy := false
	if errors.Is(err, repository.ErrContractNotFound) {
		if id := LegacyContractID(p.ClientTransactionID); id != "" {
			c, err = s.contracts.GetByID(ctx, id)
			legacy = true
		}
	}
	if err != nil {
		log.Warn("Webhook for unknown contract", zap.Error(err))
		return nil, err
	}
	if legacy && !(p.Approved() && awaitingPayment(c.Status)) {
		return nil, ErrContractNotFound
	}

	if !p.Approved() || !awaitingPayment(c.Status) {
		log.Info("Webhook received", zap.String("payment_status", p.Status), zap.String("contract_status", string(c.Status)))
		return &WebhookResult{Success: true, Message: "Webhook received"}, nil
	}

	if _, err := s.gateway.Confirm(ctx, p.ID, p.ClientTransactionID); err != nil {
		log.Warn("Webhook confirm failed (non-fatal)", zap.Error(err))
	}
	if err := s.markPaid(ctx, c, p.ID, "webhook"); err != nil {
		return nil, err
	}

	msg := "Payment processed successfully"
	if legacy {
		msg = "Payment processed (legacy)"
	}
	return &WebhookResult{Success: true, Message: msg}, nil
}

// LegacyContractID extracts the contract id from transaction ids of the
// older contractId-timestamp form. Contract ids are UUIDs and contain
// dashes themselves, so only the last segment is dropped.
func LegacyContractID(clientTxID string) string {
	i := strings.LastIndex(clientTxID, "-")
	if i <= 0 {
		return ""
	}
	return clientTxID[:i]
}

func awaitingPayment(s model.ContractStatus) bool {
	return s == model.StatusDraft || s == model.StatusPendingPayment
}

// ReconcileStats summarises one reconciliation pass
type ReconcileStats struct {
	Checked   int
	Generated int
	Failed    int
}

// Reconcile re-polls contracts the browser abandoned: payments pending for
// longer than minAge, and paid contracts without a document
func (s *Service) Reconcile(ctx context.Context, minAge time.Duration, limit int) (ReconcileStats, error) {
	var stats ReconcileStats
	pending, err := s.contracts.ListPendingReconciliation(ctx, s.now().Add(-minAge), limit)
	if err != nil {
		return stats, err
	}
	for _, c := range pending {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Checked++
		res, err := s.Poll(ctx, c.ID)
		switch {
		case err != nil:
			stats.Failed++
			s.log.Warn("Reconciliation poll failed", zap.String("contract_id", c.ID), zap.Error(err))
		case res.Status == model.StatusGenerated:
			stats.Generated++
		}
	}
	return stats, nil
}
