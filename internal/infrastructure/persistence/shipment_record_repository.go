package persistence

import (
	"context"
	"errors"

	"github.com/kvikk/backend/internal/domain/shipping"
	"github.com/kvikk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxRecentShipmentRecords caps FindRecent
const MaxRecentShipmentRecords = 100

var shipmentRecordUpdateColumns = []string{
	"order_number", "service_type", "status", "carrier_shipment_id",
	"tracking_number", "tracking_synced", "error_message", "attempts", "updated_at",
}

// GormShipmentRecordRepository implements shipping.ShipmentRecordRepository using GORM
type GormShipmentRecordRepository struct {
	db *gorm.DB
}

var _ shipping.ShipmentRecordRepository = (*GormShipmentRecordRepository)(nil)

// NewGormShipmentRecordRepository creates a new GormShipmentRecordRepository
func NewGormShipmentRecordRepository(db *gorm.DB) *GormShipmentRecordRepository {
	return &GormShipmentRecordRepository{db: db}
}

// Save inserts the record or updates the existing record of the same order
func (r *GormShipmentRecordRepository) Save(ctx context.Context, record *shipping.ShipmentRecord) error {
	model := models.ShipmentRecordModelFromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_domain"}, {Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns(shipmentRecordUpdateColumns),
		}).
		Create(model).Error
}

// FindByOrder returns the record of one order
func (r *GormShipmentRecordRepository) FindByOrder(ctx context.Context, shop string, orderID int64) (*shipping.ShipmentRecord, error) {
	var model models.ShipmentRecordModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND order_id = ?", shop, orderID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shipping.ErrShipmentRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns the shop's newest records first
func (r *GormShipmentRecordRepository) FindRecent(ctx context.Context, shop string, limit int) ([]shipping.ShipmentRecord, error) {
	if limit <= 0 || limit > MaxRecentShipmentRecords {
		limit = MaxRecentShipmentRecords
	}

	var rows []models.ShipmentRecordModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ?", shop).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]shipping.ShipmentRecord, 0, len(rows))
	for i := range rows {
		records = append(records, *rows[i].ToDomain())
	}
	return records, nil
}
