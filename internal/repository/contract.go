package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abogadosonline/aoe-api/internal/model"
	"gorm.io/gorm"
)

// ContractRepository stores contracts and drives their status column
type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Create inserts a new contract
func (r *ContractRepository) Create(ctx context.Context, c *model.Contract) error {
	defer track("contract_insert")()

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID returns the contract with id
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*model.Contract, error) {
	defer track("contract_query")()

	var c model.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err, ErrContractNotFound)
	}
	return &c, nil
}

// GetByPaymentID finds the contract a gateway transaction belongs to
func (r *ContractRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.Contract, error) {
	defer track("contract_query")()

	var c model.Contract
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&c).Error; err != nil {
		return nil, notFound(err, ErrContractNotFound)
	}
	return &c, nil
}

// GetByDownloadToken finds the contract a download token was issued for
func (r *ContractRepository) GetByDownloadToken(ctx context.Context, token string) (*model.Contract, error) {
	defer track("contract_query")()

	var c model.Contract
	if err := r.db.WithContext(ctx).Where("download_token = ?", token).First(&c).Error; err != nil {
		return nil, notFound(err, ErrContractNotFound)
	}
	return &c, nil
}

// ListByUser returns the contracts of a profile, newest first
func (r *ContractRepository) ListByUser(ctx context.Context, userID string) ([]model.Contract, error) {
	defer track("contract_query")()

	var out []model.Contract
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return out, nil
}

// ListByDeliveryEmail returns up to limit contracts delivered to email
func (r *ContractRepository) ListByDeliveryEmail(ctx context.Context, email string, limit int) ([]model.Contract, error) {
	defer track("contract_query")()

	var out []model.Contract
	err := r.db.WithContext(ctx).
		Where("LOWER(delivery_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	return out, nil
}

// UpdateStatus applies updates and moves the contract to next, but only
// while its status is still one of from. A row that already moved returns
// ErrStatusChanged so concurrent pollers and webhooks apply a change once.
func (r *ContractRepository) UpdateStatus(ctx context.Context, id string, from []model.ContractStatus, next model.ContractStatus, updates map[string]interface{}) error {
	defer track("contract_update")()

	values := map[string]interface{}{"status": next}
	for k, v := range updates {
		values[k] = v
	}

	res := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update contract status: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Contract{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check contract: %w", err)
	}
	if count == 0 {
		return ErrContractNotFound
	}
	return ErrStatusChanged
}

// ListPendingReconciliation returns contracts the background job should
// re-check: payments left pending since before cutoff and paid contracts
// that still have no document at cutoff
func (r *ContractRepository) ListPendingReconciliation(ctx context.Context, cutoff time.Time, limit int) ([]model.Contract, error) {
	defer track("contract_query")()

	var out []model.Contract
	err := r.db.WithContext(ctx).
		Where("(status = ? AND payment_id <> '' AND updated_at < ?) OR (status = ? AND (pdf_url = '' OR pdf_url IS NULL) AND updated_at < ?)",
			model.StatusPendingPayment, cutoff, model.StatusPaid, cutoff).
		Order("updated_at ASC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts for reconciliation: %w", err)
	}
	return out, nil
}
