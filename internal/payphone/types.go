package payphone

// Gateway status codes
const (
	StatusCancelled = 1
	StatusPending   = 2
	StatusApproved  = 3
)

// Currency is the only currency the store charges in
const Currency = "USD"

// PrepareRequest is the body of POST /button/Prepare. Amounts are in cents
// and must satisfy amount = amountWithoutTax + amountWithTax + tax + service + tip.
type PrepareRequest struct {
	Amount              int64  `json:"amount"`
	AmountWithoutTax    int64  `json:"amountWithoutTax"`
	AmountWithTax       int64  `json:"amountWithTax"`
	Tax                 int64  `json:"tax"`
	Service             int64  `json:"service"`
	Tip                 int64  `json:"tip"`
	ClientTransactionID string `json:"clientTransactionId"`
	Currency            string `json:"currency"`
	Reference           string `json:"reference,omitempty"`
	OptionalParameter   string `json:"optionalParameter,omitempty"`
	ResponseURL         string `json:"responseUrl"`
	CancellationURL     string `json:"cancellationUrl,omitempty"`
	StoreID             string `json:"storeId,omitempty"`
}

// PrepareResponse carries the hosted payment page
type PrepareResponse struct {
	PaymentID       int64  `json:"paymentId,omitempty"`
	PayWithCard     string `json:"payWithCard,omitempty"`
	PayWithPayPhone string `json:"payWithPayPhone,omitempty"`
	PaymentURL      string `json:"paymentUrl"`
}

// Transaction is the shared shape of the Confirm and Sale responses
type Transaction struct {
	TransactionID       string  `json:"transactionId"`
	ClientTransactionID string  `json:"clientTransactionId,omitempty"`
	StatusCode          int     `json:"statusCode"`
	Status              string  `json:"status,omitempty"`
	TransactionStatus   string  `json:"transactionStatus,omitempty"`
	Amount              float64 `json:"amount,omitempty"`
	Currency            string  `json:"currency,omitempty"`
	AuthorizationCode   string  `json:"authorizationCode,omitempty"`
	CardBrand           string  `json:"cardBrand,omitempty"`
	LastDigits          string  `json:"lastDigits,omitempty"`
	Email               string  `json:"email,omitempty"`
	PhoneNumber         string  `json:"phoneNumber,omitempty"`
	Reference           string  `json:"reference,omitempty"`
}

func (t *Transaction) Approved() bool  { return t.StatusCode == StatusApproved }
func (t *Transaction) Pending() bool   { return t.StatusCode == StatusPending }
func (t *Transaction) Cancelled() bool { return t.StatusCode == StatusCancelled }

// WebhookPayload is what the gateway (or its relay) posts on a status change
type WebhookPayload struct {
	ID                  string  `json:"id" validate:"required"`
	ClientTransactionID string  `json:"clientTransactionId" validate:"required"`
	StatusCode          int     `json:"statusCode" validate:"required"`
	Status              string  `json:"status" validate:"required"`
	Amount              float64 `json:"amount"`
	Currency            string  `json:"currency" validate:"required"`
	Email               string  `json:"email,omitempty"`
	PhoneNumber         string  `json:"phoneNumber,omitempty"`
	Timestamp           string  `json:"timestamp,omitempty"`
}

func (w *WebhookPayload) Approved() bool { return w.StatusCode == StatusApproved }
