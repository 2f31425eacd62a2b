package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/infrastructure/persistence/models"
)

// GormConnectionRepository implements integration.ConnectionRepository using GORM
type GormConnectionRepository struct {
	db *gorm.DB
}

// NewGormConnectionRepository creates a new GORM-based connection repository
func NewGormConnectionRepository(db *gorm.DB) *GormConnectionRepository {
	return &GormConnectionRepository{db: db}
}

// FindByID finds a connection by its ID
func (r *GormConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	var model models.ConnectionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTenant finds all connections for a tenant
func (r *GormConnectionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]integration.Connection, error) {
	var modelList []models.ConnectionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	connections := make([]integration.Connection, 0, len(modelList))
	for i := range modelList {
		connections = append(connections, *modelList[i].ToDomain())
	}
	return connections, nil
}

// FindDefault finds the tenant's default connection for a platform
func (r *GormConnectionRepository) FindDefault(ctx context.Context, tenantID uuid.UUID, code integration.PlatformCode) (*integration.Connection, error) {
	var model models.ConnectionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform_code = ? AND is_default = ?", tenantID, code, true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrConnectionNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByBaseURL checks whether the tenant already has a connection with
// this base URL on this platform
func (r *GormConnectionRepository) ExistsByBaseURL(ctx context.Context, tenantID uuid.UUID, code integration.PlatformCode, baseURL string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConnectionModel{}).
		Where("tenant_id = ? AND platform_code = ? AND base_url = ?", tenantID, code, baseURL).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a connection
func (r *GormConnectionRepository) Save(ctx context.Context, conn *integration.Connection) error {
	model := models.ConnectionModelFromDomain(conn)
	return r.db.WithContext(ctx).Save(model).Error
}

// SetDefault atomically marks the connection as default and clears the flag
// on every sibling of the same tenant and platform
func (r *GormConnectionRepository) SetDefault(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ConnectionModel
		if err := tx.First(&model, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return integration.ErrConnectionNotFound
			}
			return err
		}

		if err := tx.Model(&models.ConnectionModel{}).
			Where("tenant_id = ? AND platform_code = ? AND id <> ?", tenantID, model.PlatformCode, id).
			Update("is_default", false).Error; err != nil {
			return err
		}

		return tx.Model(&models.ConnectionModel{}).
			Where("id = ?", id).
			Update("is_default", true).Error
	})
}

// Delete deletes a connection
func (r *GormConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ConnectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrConnectionNotFound
	}
	return nil
}

// Ensure GormConnectionRepository implements the repository interface
var _ integration.ConnectionRepository = (*GormConnectionRepository)(nil)
