package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductSnapshot
// ---------------------------------------------------------------------------

// ProductSnapshot is the read-only view of an internal product the sync core
// consumes. The host catalog loads it eagerly with attributes, category,
// assets and variants; the sync core never mutates it.
type ProductSnapshot struct {
	// ID is the internal product identifier
	ID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// Name is the human-readable product name
	Name string
	// SKU is the catalog code
	SKU string
	// Description is the rich-text description (may reference attached media)
	Description string
	// CategoryName is the internal category name, empty if uncategorized
	CategoryName string
	// PrimaryImageRef is the primary image reference (relative or absolute)
	PrimaryImageRef string
	// ImageRefs are secondary image references in display order
	ImageRefs []string
	// Attributes are the product's named attribute-value pairs
	Attributes []Attribute
	// Variants are optional sub-records with their own attribute sets
	Variants []ProductVariant
	// Price is the base selling price
	Price decimal.Decimal
	// Weight is the shipping weight
	Weight decimal.Decimal
}

// AttributeIndex builds the normalized attribute lookup for this product
func (p *ProductSnapshot) AttributeIndex() AttributeMap {
	return BuildAttributeMap(p.Attributes)
}

// AllImageRefs returns the primary image followed by the secondary images
func (p *ProductSnapshot) AllImageRefs() []string {
	refs := make([]string, 0, len(p.ImageRefs)+1)
	if p.PrimaryImageRef != "" {
		refs = append(refs, p.PrimaryImageRef)
	}
	refs = append(refs, p.ImageRefs...)
	return refs
}

// ProductVariant is a sub-record of a product with its own attribute values
type ProductVariant struct {
	ID         uuid.UUID
	SKU        string
	Price      decimal.Decimal
	ImageRef   string
	Attributes []Attribute
}

// AttributeIndex builds the normalized attribute lookup for this variant
func (v *ProductVariant) AttributeIndex() AttributeMap {
	return BuildAttributeMap(v.Attributes)
}

// ---------------------------------------------------------------------------
// Import output
// ---------------------------------------------------------------------------

// ProductDraft is the internal product produced by an inbound transform.
// Attribute assignments are applied separately after the product row exists,
// because attribute definitions may need find-or-create against the tenant's
// attribute catalog.
type ProductDraft struct {
	TenantID    uuid.UUID
	Name        string
	SKU         string
	Description string
	CategoryID  *uuid.UUID
	Price       decimal.Decimal
	Weight      decimal.Decimal
	ImageURLs   []string
}

// AttributeAssignment names an attribute value to attach to a product once
// the product row itself is persisted.
type AttributeAssignment struct {
	Name  string
	Value AttributeValue
}

// ---------------------------------------------------------------------------
// Collaborator ports
// ---------------------------------------------------------------------------

// ProductReader loads product snapshots from the host catalog
type ProductReader interface {
	// GetProductWithRelations loads a product with attributes, category,
	// assets and variants eagerly included. Returns nil when the product
	// does not exist or is not owned by the tenant.
	GetProductWithRelations(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*ProductSnapshot, error)
}

// CategoryRepository resolves internal category names scoped to a tenant
type CategoryRepository interface {
	// FindOrCreate returns the category id for the given name, creating it
	// when absent.
	FindOrCreate(ctx context.Context, name string, tenantID uuid.UUID) (uuid.UUID, error)
}

// AttributeRepository resolves internal attribute definitions scoped to a tenant
type AttributeRepository interface {
	FindOrCreate(ctx context.Context, name string, tenantID uuid.UUID) (uuid.UUID, error)
}

// AssetResolver resolves a product image/asset reference to an absolute URL
// for inclusion in external payloads.
type AssetResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// CatalogWriter is the narrow write surface the import flow uses to apply
// conflict-resolved drafts to the host catalog.
type CatalogWriter interface {
	// FindBySKU returns the existing product with the given SKU, or nil
	FindBySKU(ctx context.Context, sku string, tenantID uuid.UUID) (*ProductSnapshot, error)
	// CreateProduct persists a new product from a draft and returns its id
	CreateProduct(ctx context.Context, draft *ProductDraft) (uuid.UUID, error)
	// UpdateProduct overwrites an existing product's fields from a draft
	UpdateProduct(ctx context.Context, id uuid.UUID, draft *ProductDraft) error
	// ApplyAttributes attaches attribute assignments to a persisted product
	ApplyAttributes(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, assignments []AttributeAssignment) error
}
