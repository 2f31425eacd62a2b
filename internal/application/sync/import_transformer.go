package sync

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/domain/shared"
)

// uncategorizedName is the placeholder category platforms assign to
// products without a real category; it never maps inward.
const uncategorizedName = "uncategorized"

// ImportTransformer converts one external product payload into an internal
// draft plus attribute assignments to apply after the product row exists.
type ImportTransformer struct {
	categories catalog.CategoryRepository
}

// NewImportTransformer creates a new ImportTransformer
func NewImportTransformer(categories catalog.CategoryRepository) *ImportTransformer {
	return &ImportTransformer{categories: categories}
}

// Transform maps an external product under the active import mapping.
// mapping may be nil, in which case only the core scalar fields transfer and
// no attributes are mapped.
func (t *ImportTransformer) Transform(
	ctx context.Context,
	tenantID uuid.UUID,
	external *integration.ExternalProduct,
	mapping *integration.FieldMapping,
) (*ImportDraftResult, error) {
	if strings.TrimSpace(external.ExternalID) == "" {
		return nil, shared.NewValidationError("external_id", "is missing from the external payload")
	}
	if strings.TrimSpace(external.Name) == "" {
		return nil, shared.NewValidationError("name", "is missing from the external payload")
	}

	draft := &catalog.ProductDraft{
		TenantID:    tenantID,
		Name:        external.Name,
		SKU:         external.SKU,
		Description: external.Description,
		Price:       external.Price,
		Weight:      external.Weight,
	}
	for _, img := range external.Images {
		if img.Src != "" {
			draft.ImageURLs = append(draft.ImageURLs, img.Src)
		}
	}

	var assignments []catalog.AttributeAssignment

	if mapping != nil {
		// custom attributes: wildcard auto-maps everything under its own
		// name, otherwise only the explicitly listed names transfer
		for _, attr := range external.Attributes {
			internalName, ok := mapping.MapAttribute(attr.Name)
			if !ok {
				continue
			}
			assignments = append(assignments, catalog.AttributeAssignment{
				Name:  internalName,
				Value: catalog.ListValue(attr.Values),
			})
		}

		// known top-level fields become attribute assignments when mapped;
		// unmapped external fields are ignored
		if internalName, ok := mapping.InternalName("regular_price"); ok && !external.Price.IsZero() {
			assignments = append(assignments, catalog.AttributeAssignment{
				Name:  internalName,
				Value: catalog.NumberValue(external.Price),
			})
		}
		if internalName, ok := mapping.InternalName("weight"); ok && !external.Weight.IsZero() {
			assignments = append(assignments, catalog.AttributeAssignment{
				Name:  internalName,
				Value: catalog.NumberValue(external.Weight),
			})
		}
		if internalName, ok := mapping.InternalName("tags"); ok && len(external.Tags) > 0 {
			assignments = append(assignments, catalog.AttributeAssignment{
				Name:  internalName,
				Value: catalog.ListValue(external.Tags),
			})
		}

		if mapping.HasField(integration.FieldCategory) {
			if name := primaryCategory(external.Categories); name != "" {
				categoryID, err := t.categories.FindOrCreate(ctx, name, tenantID)
				if err != nil {
					return nil, err
				}
				draft.CategoryID = &categoryID
			}
		}
	}

	return &ImportDraftResult{Draft: draft, Assignments: assignments}, nil
}

// primaryCategory picks the first category that is not the platform's
// uncategorized placeholder
func primaryCategory(names []string) string {
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, uncategorizedName) {
			continue
		}
		return trimmed
	}
	return ""
}
