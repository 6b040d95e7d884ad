package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abogadosonline/aoe-api/internal/model"
	"gorm.io/gorm"
)

// ProfileRepository stores profiles and their subscription row
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile together with its FREE subscription
func (r *ProfileRepository) Create(ctx context.Context, p *model.Profile) error {
	defer track("profile_insert")()

	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Profile{}).Where("email = ?", p.Email).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		sub := &model.Subscription{UserID: p.ID, Plan: model.RoleFree, Active: true}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}
		return nil
	})
}

// GetByID returns the profile with id
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	defer track("profile_query")()

	var p model.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &p, nil
}

// GetByEmail looks a profile up by its normalised email
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	defer track("profile_query")()

	var p model.Profile
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&p).Error
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &p, nil
}

// UpdateProfile changes the editable profile fields
func (r *ProfileRepository) UpdateProfile(ctx context.Context, id, fullName, phone string) (*model.Profile, error) {
	defer track("profile_update")()

	res := r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).
		Updates(map[string]interface{}{"full_name": fullName, "phone": phone})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword stores a new password hash
func (r *ProfileRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	defer track("profile_update")()

	res := r.db.WithContext(ctx).Model(&model.Profile{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// Delete removes a profile with its subscriptions and contracts
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	defer track("profile_delete")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&model.Subscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Contract{}).Error; err != nil {
			return fmt.Errorf("failed to delete contracts: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Profile{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

// GetSubscription returns the plan row of a profile
func (r *ProfileRepository) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	defer track("subscription_query")()

	var s model.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
