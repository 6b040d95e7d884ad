package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContractStatus is the lifecycle state of a contract
type ContractStatus string

const (
	StatusDraft          ContractStatus = "DRAFT"
	StatusPendingPayment ContractStatus = "PENDING_PAYMENT"
	StatusPaid           ContractStatus = "PAID"
	StatusGenerated      ContractStatus = "GENERATED"
	StatusDownloaded     ContractStatus = "DOWNLOADED"
)

// DocumentType is the kind of legal document a contract produces
type DocumentType string

const (
	DocVehicleContract DocumentType = "VEHICLE_CONTRACT"
	DocPowerOfAttorney DocumentType = "POWER_OF_ATTORNEY"
	DocDeclaration     DocumentType = "DECLARATION"
	DocPromise         DocumentType = "PROMISE"
	DocTransfer        DocumentType = "TRANSFER"
	DocTravelAuth      DocumentType = "TRAVEL_AUTH"
	DocCustom          DocumentType = "CUSTOM"
)

// DocumentTypeLabels holds the display name of each document type
var DocumentTypeLabels = map[DocumentType]string{
	DocVehicleContract: "Contrato de Compra-Venta Vehicular",
	DocPowerOfAttorney: "Poder General",
	DocDeclaration:     "Declaración Juramentada",
	DocPromise:         "Promesa de Compra-Venta",
	DocTransfer:        "Cesión de Derechos",
	DocTravelAuth:      "Autorización de Viaje",
	DocCustom:          "Documento Personalizado",
}

// ErrInvalidTransition is returned when a status change is not allowed
var ErrInvalidTransition = errors.New("invalid contract status transition")

var transitions = map[ContractStatus][]ContractStatus{
	StatusDraft:          {StatusPendingPayment, StatusPaid},
	StatusPendingPayment: {StatusPaid, StatusDraft},
	StatusPaid:           {StatusGenerated},
	StatusGenerated:      {StatusGenerated, StatusDownloaded},
	StatusDownloaded:     {StatusDownloaded},
}

// CanTransitionTo reports whether the lifecycle allows moving to next
func (s ContractStatus) CanTransitionTo(next ContractStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HasDocument reports whether a document has been rendered for this state
func (s ContractStatus) HasDocument() bool {
	return s == StatusGenerated || s == StatusDownloaded
}

// ContractPrice is the fixed price of a vehicle contract in USD
const ContractPrice = 9.99

// DownloadTokenTTL is how long a download token stays valid
const DownloadTokenTTL = 24 * time.Hour

// Contract represents a purchased (or in-progress) legal document
type Contract struct {
	ID                     string         `json:"id" gorm:"primaryKey;size:36"`
	UserID                 *string        `json:"userId,omitempty" gorm:"size:36;index"`
	Type                   DocumentType   `json:"type" gorm:"size:32;not null;default:VEHICLE_CONTRACT"`
	Data                   datatypes.JSON `json:"data"`
	PdfURL                 string         `json:"pdfUrl,omitempty" gorm:"size:512"`
	PdfHash                string         `json:"pdfHash,omitempty" gorm:"size:64"`
	DownloadToken          string         `json:"-" gorm:"size:36;index"`
	DownloadTokenExpiresAt *time.Time     `json:"-"`
	Status                 ContractStatus `json:"status" gorm:"size:20;not null;default:DRAFT;index"`
	PaymentID              string         `json:"paymentId,omitempty" gorm:"size:64;index"`
	Amount                 *float64       `json:"amount,omitempty" gorm:"type:numeric(10,2)"`
	DeliveryEmail          string         `json:"deliveryEmail,omitempty" gorm:"size:255"`
	CreatedAt              time.Time      `json:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt"`
}

// BeforeCreate assigns the id and the initial status
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.Type == "" {
		c.Type = DocVehicleContract
	}
	return nil
}

// TransitionTo moves the contract to next, or fails with ErrInvalidTransition
func (c *Contract) TransitionTo(next ContractStatus) error {
	if !c.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, next)
	}
	c.Status = next
	return nil
}

// VehicleData decodes the stored form of a vehicle contract
func (c *Contract) VehicleData() (*ContratoVehicular, error) {
	if len(c.Data) == 0 {
		return nil, errors.New("contract has no data")
	}
	var data ContratoVehicular
	if err := json.Unmarshal(c.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode contract data: %w", err)
	}
	return &data, nil
}

// DownloadTokenValid reports whether token matches and has not expired at now
func (c *Contract) DownloadTokenValid(token string, now time.Time) bool {
	return c.DownloadToken != "" && c.DownloadToken == token &&
		c.DownloadTokenExpiresAt != nil && now.Before(*c.DownloadTokenExpiresAt)
}
