package sync

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/domain/shared"
)

// TaxonomyResolver lazily resolves a category/tag name to a platform taxonomy
// id. The orchestrator binds this to the connection's adapter per invocation.
type TaxonomyResolver interface {
	FindOrCreateTaxonomy(ctx context.Context, name string) (string, error)
}

// ExportTransformer produces the exact external payload for one product
// export or update call. It holds no per-call state; everything it needs
// travels through Transform's arguments.
type ExportTransformer struct {
	assets catalog.AssetResolver
}

// NewExportTransformer creates a new ExportTransformer
func NewExportTransformer(assets catalog.AssetResolver) *ExportTransformer {
	return &ExportTransformer{assets: assets}
}

// Transform builds the external payload for a product under the active export
// mapping. record may be nil (first export of the pairing); mapping may be
// nil, which falls back to the minimal identifier+name selection. taxonomy
// may be nil when the selection carries no category field.
func (t *ExportTransformer) Transform(
	ctx context.Context,
	product *catalog.ProductSnapshot,
	mapping *integration.FieldMapping,
	record *integration.SyncRecord,
	taxonomy TaxonomyResolver,
	opts ExportOptions,
) (*TransformResult, error) {
	selection := effectiveSelection(mapping, opts)
	selection = applyPartialSuppression(selection, record, opts)

	payload := make(integration.ExternalPayload)
	attrs := product.AttributeIndex()

	for _, field := range selection {
		spec := integration.ResolveField(field)
		externalName := resolveExternalName(mapping, field, spec.DefaultExternalName)

		switch field {
		case integration.FieldSKU:
			payload.Set(externalName, product.SKU)
		case integration.FieldName:
			payload.Set(externalName, product.Name)
		case integration.FieldDescription:
			if includeDescription(product.Description, record, opts) {
				payload.Set(externalName, product.Description)
			}
		case integration.FieldPrice:
			payload.Set(externalName, resolveScalar(spec, catalog.NumberValue(product.Price), attrs, field))
		case integration.FieldWeight:
			payload.Set(externalName, resolveScalar(spec, catalog.NumberValue(product.Weight), attrs, field))
		case integration.FieldCategory, integration.FieldImages, integration.FieldVariants:
			// handled below
		default:
			value, ok := attrs.Lookup(field)
			if !ok {
				continue
			}
			payload.Set(externalName, spec.Render(value))
		}
	}

	imageURLs, err := t.resolveImages(ctx, product)
	if err != nil {
		return nil, err
	}
	assetURLs := extractAssetRefs(product.Description)

	if hasField(selection, integration.FieldImages) && includeMedia(imageURLs, priorImages(record), opts) {
		images := make([]integration.PayloadImage, 0, len(imageURLs))
		resolved, err := t.absoluteImages(ctx, product)
		if err != nil {
			return nil, err
		}
		for _, src := range resolved {
			images = append(images, integration.PayloadImage{Src: src, Alt: product.Name})
		}
		externalName := resolveExternalName(mapping, integration.FieldImages, "images")
		payload.Set(externalName, images)
	}

	if hasField(selection, integration.FieldCategory) && product.CategoryName != "" {
		if taxonomy == nil {
			return nil, integration.ErrPlatformNotConfigured
		}
		taxID, err := taxonomy.FindOrCreateTaxonomy(ctx, product.CategoryName)
		if err != nil {
			return nil, err
		}
		externalName := resolveExternalName(mapping, integration.FieldCategory, "categories")
		payload.Set(externalName, []integration.PayloadCategoryRef{{ID: taxID}})
	}

	collapsed := false
	if hasField(selection, integration.FieldVariants) && len(product.Variants) > 0 {
		variants := buildVariants(product)
		if len(variants) < 2 {
			// a single qualifying variant is not a real variant
			collapsed = true
		} else {
			externalName := resolveExternalName(mapping, integration.FieldVariants, "variations")
			payload.Set(externalName, variants)
		}
	}

	if err := validateRequired(payload, mapping); err != nil {
		return nil, err
	}

	return &TransformResult{
		Payload:   payload,
		FieldSet:  selection,
		ImageURLs: normalizeURLs(imageURLs),
		AssetURLs: normalizeURLs(assetURLs),
		Collapsed: collapsed,
	}, nil
}

// effectiveSelection picks the field set governing this export: caller
// override, then the active mapping, then the minimal identifier+name set.
// Required fields are always appended regardless of the source.
func effectiveSelection(mapping *integration.FieldMapping, opts ExportOptions) []string {
	var selection []string
	switch {
	case len(opts.FieldOverride) > 0:
		selection = append(selection, opts.FieldOverride...)
	case mapping != nil && len(mapping.SelectedFields) > 0:
		selection = append(selection, mapping.SelectedFields...)
	default:
		selection = append(selection, integration.RequiredFields()...)
	}
	for _, required := range integration.RequiredFields() {
		if !hasField(selection, required) {
			selection = append(selection, required)
		}
	}
	return selection
}

// applyPartialSuppression filters the selection against the prior export's
// field set so an incremental update never clobbers fields this system did
// not previously own. Required fields always survive.
func applyPartialSuppression(selection []string, record *integration.SyncRecord, opts ExportOptions) []string {
	if !opts.Partial || record == nil || record.LastExportedAt == nil {
		return selection
	}
	prior := make(map[string]struct{}, len(record.LastFieldSet))
	for _, f := range record.LastFieldSet {
		prior[f] = struct{}{}
	}
	_, bucketPresent := prior[AttributeBucket]

	out := make([]string, 0, len(selection))
	for _, field := range selection {
		if integration.ResolveField(field).Required {
			out = append(out, field)
			continue
		}
		if _, owned := prior[field]; owned {
			out = append(out, field)
			continue
		}
		if bucketPresent && opts.BucketPolicy == AttributeBucketLiteral && !integration.IsStandardField(field) {
			out = append(out, field)
		}
	}
	return out
}

// resolveExternalName prefers the mapping's correspondence, then the default
func resolveExternalName(mapping *integration.FieldMapping, internalName, defaultName string) string {
	if mapping == nil {
		return defaultName
	}
	return mapping.ExternalName(internalName, defaultName)
}

// resolveScalar prefers the snapshot's own value, falling back to the
// attribute index when the top-level value is zero
func resolveScalar(spec integration.FieldSpec, own catalog.AttributeValue, attrs catalog.AttributeMap, field string) string {
	if n, ok := own.AsNumber(); ok && !n.IsZero() {
		return spec.Render(own)
	}
	if v, ok := attrs.Lookup(field); ok {
		return spec.Render(v)
	}
	return spec.Render(own)
}

// includeDescription gates the rich-text description on asset change
// detection: a description whose referenced media set matches the last
// synced snapshot is not resent during a partial update, because resending
// triggers expensive media re-processing on the platform side.
func includeDescription(description string, record *integration.SyncRecord, opts ExportOptions) bool {
	if !opts.Partial || record == nil || record.LastExportedAt == nil {
		return true
	}
	current := extractAssetRefs(description)
	if len(current) == 0 {
		return true
	}
	return !equalNormalized(current, record.LastAssetURLs)
}

// includeMedia decides whether the image field goes into the payload:
// always on a first export, otherwise only when the normalized set differs
// from the last synced snapshot.
func includeMedia(current, prior []string, opts ExportOptions) bool {
	if !opts.Partial || prior == nil {
		return true
	}
	return !equalNormalized(current, prior)
}

func priorImages(record *integration.SyncRecord) []string {
	if record == nil || record.LastExportedAt == nil {
		return nil
	}
	if record.LastImageURLs == nil {
		return []string{}
	}
	return record.LastImageURLs
}

// resolveImages returns the product's image refs in display order, unresolved
func (t *ExportTransformer) resolveImages(_ context.Context, product *catalog.ProductSnapshot) ([]string, error) {
	return product.AllImageRefs(), nil
}

// absoluteImages resolves each image ref to an absolute URL for the payload
func (t *ExportTransformer) absoluteImages(ctx context.Context, product *catalog.ProductSnapshot) ([]string, error) {
	refs := product.AllImageRefs()
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		abs, err := t.assets.Resolve(ctx, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// buildVariants keeps only variants carrying at least one attribute value
// that differs from the parent's same-named attribute
func buildVariants(product *catalog.ProductSnapshot) []integration.PayloadVariant {
	parent := product.AttributeIndex()
	out := make([]integration.PayloadVariant, 0, len(product.Variants))
	for _, v := range product.Variants {
		diff := make(map[string]string)
		for _, attr := range v.Attributes {
			parentValue, exists := parent.Lookup(attr.Name)
			if exists && parentValue.Equal(attr.Value) {
				continue
			}
			diff[catalog.NormalizeName(attr.Name)] = attr.Value.AsString()
		}
		if len(diff) == 0 {
			continue
		}
		pv := integration.PayloadVariant{SKU: v.SKU, Attributes: diff}
		if !v.Price.IsZero() {
			pv.Price = v.Price.String()
		}
		out = append(out, pv)
	}
	return out
}

// validateRequired enforces the non-negotiable external requirements after
// all processing: the payload must carry non-empty identifier and name values.
func validateRequired(payload integration.ExternalPayload, mapping *integration.FieldMapping) error {
	for _, field := range integration.RequiredFields() {
		spec := integration.ResolveField(field)
		externalName := resolveExternalName(mapping, field, spec.DefaultExternalName)
		value, _ := payload.GetString(externalName)
		if strings.TrimSpace(value) == "" {
			return shared.NewValidationError(field, "is required for export")
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// URL normalization
// ---------------------------------------------------------------------------

// normalizeURL strips scheme and host so absolute and relative forms of the
// same resource compare equal
func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	normalized := u.Path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

// normalizeURLs normalizes every entry, dropping blanks
func normalizeURLs(raws []string) []string {
	out := make([]string, 0, len(raws))
	for _, r := range raws {
		if n := normalizeURL(r); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// equalNormalized compares two URL lists after normalization, order-sensitive
func equalNormalized(a, b []string) bool {
	na, nb := normalizeURLs(a), normalizeURLs(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

var assetRefPattern = regexp.MustCompile(`(?i)(?:src|href)="([^"]+)"`)

// extractAssetRefs pulls the media URLs referenced by a rich-text description
func extractAssetRefs(description string) []string {
	matches := assetRefPattern.FindAllStringSubmatch(description, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func hasField(selection []string, name string) bool {
	for _, f := range selection {
		if f == name {
			return true
		}
	}
	return false
}
