package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/shared"
	"github.com/pimsync/backend/internal/infrastructure/persistence/models"
)

// GormCatalogRepository implements the host-catalog ports the sync core
// consumes: snapshot reads for the export flow and the narrow write surface
// the import flow applies drafts through.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GORM-based catalog repository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// GetProductWithRelations loads a product with category, images, attributes
// and variants eagerly included. Returns nil when the product does not exist
// or is not owned by the tenant.
func (r *GormCatalogRepository) GetProductWithRelations(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*catalog.ProductSnapshot, error) {
	model, err := r.loadProduct(ctx, "tenant_id = ? AND id = ?", tenantID, id)
	if err != nil || model == nil {
		return nil, err
	}
	return model.ToSnapshot(), nil
}

// FindBySKU returns the existing product with the given SKU, or nil
func (r *GormCatalogRepository) FindBySKU(ctx context.Context, sku string, tenantID uuid.UUID) (*catalog.ProductSnapshot, error) {
	model, err := r.loadProduct(ctx, "tenant_id = ? AND sku = ?", tenantID, sku)
	if err != nil || model == nil {
		return nil, err
	}
	return model.ToSnapshot(), nil
}

func (r *GormCatalogRepository) loadProduct(ctx context.Context, query string, args ...any) (*models.ProductModel, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Attributes").
		Preload("Variants").
		Preload("Variants.Attributes").
		Where(query, args...).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &model, nil
}

// CreateProduct persists a new product from a draft and returns its id
func (r *GormCatalogRepository) CreateProduct(ctx context.Context, draft *catalog.ProductDraft) (uuid.UUID, error) {
	id := uuid.New()
	model := models.ProductModelFromDraft(id, draft)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// UpdateProduct overwrites an existing product's fields from a draft.
// Image rows are replaced wholesale so display order follows the draft.
func (r *GormCatalogRepository) UpdateProduct(ctx context.Context, id uuid.UUID, draft *catalog.ProductDraft) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		primaryRef := ""
		if len(draft.ImageURLs) > 0 {
			primaryRef = draft.ImageURLs[0]
		}

		result := tx.Model(&models.ProductModel{}).
			Where("id = ? AND tenant_id = ?", id, draft.TenantID).
			Updates(map[string]any{
				"name":              draft.Name,
				"sku":               draft.SKU,
				"description":       draft.Description,
				"category_id":       draft.CategoryID,
				"price":             draft.Price,
				"weight":            draft.Weight,
				"primary_image_ref": primaryRef,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImageModel{}).Error; err != nil {
			return err
		}
		if len(draft.ImageURLs) > 1 {
			images := make([]models.ProductImageModel, 0, len(draft.ImageURLs)-1)
			for i, ref := range draft.ImageURLs[1:] {
				images = append(images, models.ProductImageModel{
					ID:        uuid.New(),
					ProductID: id,
					Ref:       ref,
					Position:  i,
				})
			}
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyAttributes attaches attribute assignments to a persisted product.
// Each attribute name is resolved against the tenant's attribute catalog
// first, then the value is upserted on the product.
func (r *GormCatalogRepository) ApplyAttributes(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, assignments []catalog.AttributeAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, assignment := range assignments {
			if _, err := findOrCreateAttributeDefinition(tx, assignment.Name, tenantID); err != nil {
				return err
			}

			var existing models.ProductAttributeModel
			err := tx.Where("product_id = ? AND name = ?", id, assignment.Name).First(&existing).Error
			switch {
			case err == nil:
				existing.Value = assignment.Value.AsString()
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				row := models.ProductAttributeModel{
					ID:        uuid.New(),
					ProductID: id,
					Name:      assignment.Name,
					Value:     assignment.Value.AsString(),
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})
}

// GormCategoryRepository resolves tenant-scoped category names
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GORM-based category repository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindOrCreate returns the category id for the given name, creating it when absent
func (r *GormCategoryRepository) FindOrCreate(ctx context.Context, name string, tenantID uuid.UUID) (uuid.UUID, error) {
	var model models.CategoryModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&model).Error
	if err == nil {
		return model.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, err
	}

	model = models.CategoryModel{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     name,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

// GormAttributeRepository resolves tenant-scoped attribute definitions
type GormAttributeRepository struct {
	db *gorm.DB
}

// NewGormAttributeRepository creates a new GORM-based attribute repository
func NewGormAttributeRepository(db *gorm.DB) *GormAttributeRepository {
	return &GormAttributeRepository{db: db}
}

// FindOrCreate returns the attribute definition id for the given name,
// creating it when absent
func (r *GormAttributeRepository) FindOrCreate(ctx context.Context, name string, tenantID uuid.UUID) (uuid.UUID, error) {
	model, err := findOrCreateAttributeDefinition(r.db.WithContext(ctx), name, tenantID)
	if err != nil {
		return uuid.Nil, err
	}
	return model.ID, nil
}

func findOrCreateAttributeDefinition(db *gorm.DB, name string, tenantID uuid.UUID) (*models.AttributeDefinitionModel, error) {
	var model models.AttributeDefinitionModel
	err := db.Where("tenant_id = ? AND name = ?", tenantID, name).First(&model).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	model = models.AttributeDefinitionModel{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     name,
	}
	if err := db.Create(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

// Interface checks
var (
	_ catalog.ProductReader       = (*GormCatalogRepository)(nil)
	_ catalog.CatalogWriter       = (*GormCatalogRepository)(nil)
	_ catalog.CategoryRepository  = (*GormCategoryRepository)(nil)
	_ catalog.AttributeRepository = (*GormAttributeRepository)(nil)
)
