package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/infrastructure/persistence/models"
)

// GormWorkItemRepository implements integration.WorkItemRepository using GORM
type GormWorkItemRepository struct {
	db *gorm.DB
}

// NewGormWorkItemRepository creates a new GORM-based work item repository
func NewGormWorkItemRepository(db *gorm.DB) *GormWorkItemRepository {
	return &GormWorkItemRepository{db: db}
}

// FindByID finds a work item by its ID
func (r *GormWorkItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.WorkItem, error) {
	var model models.WorkItemModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrWorkItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalWorkID finds a work item by the platform identifier
func (r *GormWorkItemRepository) FindByExternalWorkID(ctx context.Context, tenantID uuid.UUID, externalWorkID string) (*integration.WorkItem, error) {
	var model models.WorkItemModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_work_id = ?", tenantID, externalWorkID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrWorkItemNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPending lists non-terminal items for a tenant, oldest first
func (r *GormWorkItemRepository) FindPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]integration.WorkItem, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ?", tenantID,
			[]integration.WorkItemStatus{integration.WorkStatusPending, integration.WorkStatusProcessing}).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var modelList []models.WorkItemModel
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}

	items := make([]integration.WorkItem, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return items, nil
}

// FindPendingAll lists non-terminal items across all tenants, oldest first.
// Used by the background resolver, which works the whole backlog.
func (r *GormWorkItemRepository) FindPendingAll(ctx context.Context, limit int) ([]integration.WorkItem, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ?",
			[]integration.WorkItemStatus{integration.WorkStatusPending, integration.WorkStatusProcessing}).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var modelList []models.WorkItemModel
	if err := query.Find(&modelList).Error; err != nil {
		return nil, err
	}

	items := make([]integration.WorkItem, 0, len(modelList))
	for i := range modelList {
		items = append(items, *modelList[i].ToDomain())
	}
	return items, nil
}

// Save creates or updates a work item. A row that already reached a terminal
// status keeps its recorded outcome; attempts to flip it to a different
// terminal status fail.
func (r *GormWorkItemRepository) Save(ctx context.Context, item *integration.WorkItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.WorkItemModel
		err := tx.Select("status").First(&current, "id = ?", item.ID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.WorkItemModelFromDomain(item)
				return tx.Create(model).Error
			}
			return err
		}

		if current.Status.IsTerminal() && current.Status != item.Status {
			return integration.ErrWorkItemTerminal
		}

		model := models.WorkItemModelFromDomain(item)
		return tx.Save(model).Error
	})
}

// DeleteOlderThan removes terminal items older than the cutoff
func (r *GormWorkItemRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status IN ? AND created_at < ?",
			[]integration.WorkItemStatus{integration.WorkStatusCompleted, integration.WorkStatusFailed}, before).
		Delete(&models.WorkItemModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormWorkItemRepository implements the repository interface
var _ integration.WorkItemRepository = (*GormWorkItemRepository)(nil)
