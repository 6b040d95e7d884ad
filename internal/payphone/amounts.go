package payphone

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// IVARate is the VAT rate included in gateway amounts
const IVARate = 0.15

// FeeRate is the gateway commission on each charge
const FeeRate = 0.05

// Amounts is the cents breakdown sent to Prepare
type Amounts struct {
	Amount           int64
	AmountWithoutTax int64
	AmountWithTax    int64
	Tax              int64
}

// ContractAmounts splits a VAT-inclusive price into the gateway breakdown.
// The taxable base is floored so base + tax always adds up to the total.
func ContractAmounts(price float64) Amounts {
	total := int64(math.Round(price * 100))
	base := int64(math.Floor(float64(total) / (1 + IVARate)))
	return Amounts{
		Amount:           total,
		AmountWithoutTax: 0,
		AmountWithTax:    base,
		Tax:              total - base,
	}
}

// Apply copies the breakdown onto a prepare request
func (a Amounts) Apply(req *PrepareRequest) {
	req.Amount = a.Amount
	req.AmountWithoutTax = a.AmountWithoutTax
	req.AmountWithTax = a.AmountWithTax
	req.Tax = a.Tax
}

// FeeBreakdown is what a charge costs the store
type FeeBreakdown struct {
	Subtotal    float64 `json:"subtotal"`
	PayphoneFee float64 `json:"payphoneFee"`
	IVA         float64 `json:"iva"`
	Total       float64 `json:"total"`
}

// Fees computes the gateway commission plus VAT on the commission
func Fees(amount float64) FeeBreakdown {
	fee := amount * FeeRate
	iva := fee * IVARate
	return FeeBreakdown{
		Subtotal:    round2(amount),
		PayphoneFee: round2(fee),
		IVA:         round2(iva),
		Total:       round2(amount + fee + iva),
	}
}

// NewClientTxID returns a short transaction id: the gateway caps it at 15
// characters
func NewClientTxID(now time.Time) string {
	return "AOE" + strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
