package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pimsync/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for host catalog products. The sync
// core reads snapshots from it and writes drafts back through the import flow.
type ProductModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_tenant;uniqueIndex:idx_product_tenant_sku,priority:1"`
	Name            string          `gorm:"type:varchar(255);not null"`
	SKU             string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_tenant_sku,priority:2"`
	Description     string          `gorm:"type:text"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid;index"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Weight          decimal.Decimal `gorm:"type:numeric(10,3);not null;default:0"`
	PrimaryImageRef string          `gorm:"type:varchar(512)"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`

	Category   *CategoryModel          `gorm:"foreignKey:CategoryID"`
	Images     []ProductImageModel     `gorm:"foreignKey:ProductID"`
	Attributes []ProductAttributeModel `gorm:"foreignKey:ProductID"`
	Variants   []ProductVariantModel   `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// CategoryModel is the persistence model for tenant-scoped categories
type CategoryModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_tenant_name,priority:1"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_category_tenant_name,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// AttributeDefinitionModel is the persistence model for tenant-scoped
// attribute definitions resolved via find-or-create during import.
type AttributeDefinitionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attr_def_tenant_name,priority:1"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_attr_def_tenant_name,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttributeDefinitionModel) TableName() string {
	return "attribute_definitions"
}

// ProductAttributeModel stores one attribute value on a product
type ProductAttributeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_attribute_name,priority:1"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_attribute_name,priority:2"`
	Value     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductAttributeModel) TableName() string {
	return "product_attributes"
}

// ProductImageModel stores a secondary image reference in display order
type ProductImageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index:idx_product_image_product"`
	Ref       string    `gorm:"type:varchar(512);not null"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductImageModel) TableName() string {
	return "product_images"
}

// ProductVariantModel is the persistence model for product variants
type ProductVariantModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_variant_product"`
	SKU       string          `gorm:"type:varchar(100);not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	ImageRef  string          `gorm:"type:varchar(512)"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`

	Attributes []VariantAttributeModel `gorm:"foreignKey:VariantID"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// VariantAttributeModel stores one attribute value on a variant
type VariantAttributeModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	VariantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_attribute_name,priority:1"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_variant_attribute_name,priority:2"`
	Value     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariantAttributeModel) TableName() string {
	return "variant_attributes"
}

// ToSnapshot converts the loaded product row with its relations into the
// read-only snapshot the sync core consumes. Relations that were not
// preloaded come back empty, never nil maps.
func (m *ProductModel) ToSnapshot() *catalog.ProductSnapshot {
	snapshot := &catalog.ProductSnapshot{
		ID:              m.ID,
		TenantID:        m.TenantID,
		Name:            m.Name,
		SKU:             m.SKU,
		Description:     m.Description,
		PrimaryImageRef: m.PrimaryImageRef,
		Price:           m.Price,
		Weight:          m.Weight,
	}

	if m.Category != nil {
		snapshot.CategoryName = m.Category.Name
	}

	images := make([]ProductImageModel, len(m.Images))
	copy(images, m.Images)
	sort.SliceStable(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	snapshot.ImageRefs = make([]string, 0, len(images))
	for _, img := range images {
		snapshot.ImageRefs = append(snapshot.ImageRefs, img.Ref)
	}

	snapshot.Attributes = make([]catalog.Attribute, 0, len(m.Attributes))
	for _, a := range m.Attributes {
		snapshot.Attributes = append(snapshot.Attributes, catalog.Attribute{
			Name:  a.Name,
			Value: catalog.ParseAttributeValue(a.Value),
		})
	}

	snapshot.Variants = make([]catalog.ProductVariant, 0, len(m.Variants))
	for _, v := range m.Variants {
		variant := catalog.ProductVariant{
			ID:       v.ID,
			SKU:      v.SKU,
			Price:    v.Price,
			ImageRef: v.ImageRef,
		}
		variant.Attributes = make([]catalog.Attribute, 0, len(v.Attributes))
		for _, a := range v.Attributes {
			variant.Attributes = append(variant.Attributes, catalog.Attribute{
				Name:  a.Name,
				Value: catalog.ParseAttributeValue(a.Value),
			})
		}
		snapshot.Variants = append(snapshot.Variants, variant)
	}

	return snapshot
}

// ProductModelFromDraft creates a new product row from an import draft
func ProductModelFromDraft(id uuid.UUID, draft *catalog.ProductDraft) *ProductModel {
	m := &ProductModel{
		ID:          id,
		TenantID:    draft.TenantID,
		Name:        draft.Name,
		SKU:         draft.SKU,
		Description: draft.Description,
		CategoryID:  draft.CategoryID,
		Price:       draft.Price,
		Weight:      draft.Weight,
	}
	if len(draft.ImageURLs) > 0 {
		m.PrimaryImageRef = draft.ImageURLs[0]
		for i, ref := range draft.ImageURLs[1:] {
			m.Images = append(m.Images, ProductImageModel{
				ID:        uuid.New(),
				ProductID: id,
				Ref:       ref,
				Position:  i,
			})
		}
	}
	return m
}
