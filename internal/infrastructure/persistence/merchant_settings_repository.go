package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/kvikk/backend/internal/domain/settings"
	"github.com/kvikk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldCipher seals credentials before they reach the database. The shop
// domain is bound as associated data.
type FieldCipher interface {
	Encrypt(plaintext, context string) (string, error)
	Decrypt(value, context string) (string, error)
}

// merchantSettingsUpdateColumns are overwritten when a shop's row already exists
var merchantSettingsUpdateColumns = []string{
	"carrier_api_key", "access_token", "default_service", "auto_create_shipments",
	"sender_name", "sender_address", "sender_city", "sender_postal_code",
	"sender_country_code", "sender_phone", "carrier_service_id", "installed_at",
	"updated_at",
}

// GormMerchantSettingsRepository implements settings.Repository using GORM
type GormMerchantSettingsRepository struct {
	db     *gorm.DB
	cipher FieldCipher
}

var _ settings.Repository = (*GormMerchantSettingsRepository)(nil)

// NewGormMerchantSettingsRepository creates a new GormMerchantSettingsRepository
func NewGormMerchantSettingsRepository(db *gorm.DB, cipher FieldCipher) *GormMerchantSettingsRepository {
	return &GormMerchantSettingsRepository{db: db, cipher: cipher}
}

// FindByShop loads and decrypts a shop's settings
func (r *GormMerchantSettingsRepository) FindByShop(ctx context.Context, shop string) (*settings.MerchantSettings, error) {
	var model models.MerchantSettingsModel
	if err := r.db.WithContext(ctx).Where("shop_domain = ?", shop).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, settings.ErrSettingsNotFound
		}
		return nil, err
	}

	s := model.ToDomain()
	apiKey, err := r.cipher.Decrypt(model.CarrierAPIKeySealed, shop)
	if err != nil {
		return nil, fmt.Errorf("decrypt carrier api key for %s: %w", shop, err)
	}
	token, err := r.cipher.Decrypt(model.AccessTokenSealed, shop)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for %s: %w", shop, err)
	}
	s.CarrierAPIKey = apiKey
	s.AccessToken = token
	return s, nil
}

// Save inserts or updates the shop's row, keyed by shop domain
func (r *GormMerchantSettingsRepository) Save(ctx context.Context, s *settings.MerchantSettings) error {
	apiKey, err := r.cipher.Encrypt(s.CarrierAPIKey, s.ShopDomain)
	if err != nil {
		return fmt.Errorf("encrypt carrier api key: %w", err)
	}
	token, err := r.cipher.Encrypt(s.AccessToken, s.ShopDomain)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	model := models.MerchantSettingsModelFromDomain(s, apiKey, token)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_domain"}},
			DoUpdates: clause.AssignmentColumns(merchantSettingsUpdateColumns),
		}).
		Create(model).Error
}
