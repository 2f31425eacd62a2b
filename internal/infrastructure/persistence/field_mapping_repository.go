package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/infrastructure/persistence/models"
)

// GormFieldMappingRepository implements integration.FieldMappingRepository using GORM
type GormFieldMappingRepository struct {
	db *gorm.DB
}

// NewGormFieldMappingRepository creates a new GORM-based field mapping repository
func NewGormFieldMappingRepository(db *gorm.DB) *GormFieldMappingRepository {
	return &GormFieldMappingRepository{db: db}
}

// FindByID finds a mapping by its ID
func (r *GormFieldMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.FieldMapping, error) {
	var model models.FieldMappingModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByConnection finds all mappings of a direction for a connection
func (r *GormFieldMappingRepository) FindByConnection(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction integration.MappingDirection) ([]integration.FieldMapping, error) {
	var modelList []models.FieldMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND connection_id = ? AND direction = ?", tenantID, connectionID, direction).
		Order("created_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	mappings := make([]integration.FieldMapping, 0, len(modelList))
	for i := range modelList {
		mappings = append(mappings, *modelList[i].ToDomain())
	}
	return mappings, nil
}

// FindActive finds the single active mapping of a direction for a connection
func (r *GormFieldMappingRepository) FindActive(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction integration.MappingDirection) (*integration.FieldMapping, error) {
	var model models.FieldMappingModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND connection_id = ? AND direction = ? AND is_active = ?",
			tenantID, connectionID, direction, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrMappingNoActive
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a mapping
func (r *GormFieldMappingRepository) Save(ctx context.Context, mapping *integration.FieldMapping) error {
	model := models.FieldMappingModelFromDomain(mapping)
	return r.db.WithContext(ctx).Save(model).Error
}

// ActivateExclusive atomically activates the mapping and deactivates every
// sibling of the same connection and direction
func (r *GormFieldMappingRepository) ActivateExclusive(ctx context.Context, mapping *integration.FieldMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FieldMappingModel{}).
			Where("connection_id = ? AND direction = ? AND id <> ?",
				mapping.ConnectionID, mapping.Direction, mapping.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}

		model := models.FieldMappingModelFromDomain(mapping)
		return tx.Save(model).Error
	})
}

// Delete deletes a mapping
func (r *GormFieldMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FieldMappingModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrMappingNotFound
	}
	return nil
}

// DeleteByConnection deletes all mappings for a connection
func (r *GormFieldMappingRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.FieldMappingModel{}, "connection_id = ?", connectionID).Error
}

// Ensure GormFieldMappingRepository implements the repository interface
var _ integration.FieldMappingRepository = (*GormFieldMappingRepository)(nil)
