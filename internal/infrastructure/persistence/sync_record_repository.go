package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/infrastructure/persistence/models"
)

// GormSyncRecordRepository implements integration.SyncRecordRepository using GORM
type GormSyncRecordRepository struct {
	db *gorm.DB
}

// NewGormSyncRecordRepository creates a new GORM-based sync record repository
func NewGormSyncRecordRepository(db *gorm.DB) *GormSyncRecordRepository {
	return &GormSyncRecordRepository{db: db}
}

// GetByProduct finds the record for a (connection, product) pairing
func (r *GormSyncRecordRepository) GetByProduct(ctx context.Context, connectionID, productID uuid.UUID) (*integration.SyncRecord, error) {
	var model models.SyncRecordModel
	err := r.db.WithContext(ctx).
		Where("connection_id = ? AND product_id = ?", connectionID, productID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByExternalID finds the record for a (connection, external id) pairing.
// The unlinked placeholder is never a valid lookup key.
func (r *GormSyncRecordRepository) GetByExternalID(ctx context.Context, connectionID uuid.UUID, externalID string) (*integration.SyncRecord, error) {
	if externalID == integration.UnlinkedExternalID || externalID == "0" {
		return nil, integration.ErrSyncRecordUnlinked
	}

	var model models.SyncRecordModel
	err := r.db.WithContext(ctx).
		Where("connection_id = ? AND external_id = ?", connectionID, externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRecordNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByConnection lists records for a connection filtered by status
func (r *GormSyncRecordRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID, status *integration.SyncStatus) ([]integration.SyncRecord, error) {
	query := r.db.WithContext(ctx).Where("connection_id = ?", connectionID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var modelList []models.SyncRecordModel
	if err := query.Order("updated_at DESC").Find(&modelList).Error; err != nil {
		return nil, err
	}

	records := make([]integration.SyncRecord, 0, len(modelList))
	for i := range modelList {
		records = append(records, *modelList[i].ToDomain())
	}
	return records, nil
}

// Save creates or updates a record
func (r *GormSyncRecordRepository) Save(ctx context.Context, record *integration.SyncRecord) error {
	model := models.SyncRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeleteByConnection deletes all records for a connection
func (r *GormSyncRecordRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.SyncRecordModel{}, "connection_id = ?", connectionID).Error
}

// Unlink explicitly removes the record for a pairing
func (r *GormSyncRecordRepository) Unlink(ctx context.Context, connectionID, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&models.SyncRecordModel{}, "connection_id = ? AND product_id = ?", connectionID, productID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrSyncRecordNotFound
	}
	return nil
}

// Ensure GormSyncRecordRepository implements the repository interface
var _ integration.SyncRecordRepository = (*GormSyncRecordRepository)(nil)
