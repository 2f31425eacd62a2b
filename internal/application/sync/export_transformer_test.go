package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/domain/shared"
)

func widgetProduct(tenantID uuid.UUID) *catalog.ProductSnapshot {
	return &catalog.ProductSnapshot{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Name:            "Widget",
		SKU:             "W-1",
		PrimaryImageRef: "/u/1.jpg",
		Attributes: []catalog.Attribute{
			{Name: "price", Value: catalog.ParseAttributeValue("19.99")},
		},
	}
}

func widgetMapping(t *testing.T, tenantID, connectionID uuid.UUID) *integration.FieldMapping {
	m, err := integration.NewFieldMapping(tenantID, connectionID, integration.DirectionExport,
		[]string{"name", "sku", "price", "images"},
		map[string]string{"price": "regular_price"},
		nil,
	)
	require.NoError(t, err)
	return m
}

func TestExportTransformer_FirstExport(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	mapping := widgetMapping(t, tenantID, connectionID)

	assets := new(MockAssetResolver)
	assets.On("Resolve", mock.Anything, "/u/1.jpg").Return("https://cdn.example.com/u/1.jpg", nil)

	transformer := NewExportTransformer(assets)
	result, err := transformer.Transform(context.Background(), product, mapping, nil, nil, ExportOptions{})
	require.NoError(t, err)

	name, _ := result.Payload.GetString("name")
	sku, _ := result.Payload.GetString("sku")
	price, _ := result.Payload.GetString("regular_price")
	assert.Equal(t, "Widget", name)
	assert.Equal(t, "W-1", sku)
	assert.Equal(t, "19.99", price)

	images, ok := result.Payload["images"].([]integration.PayloadImage)
	require.True(t, ok)
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.example.com/u/1.jpg", images[0].Src)
	assert.Equal(t, "Widget", images[0].Alt)

	assert.Equal(t, []string{"name", "sku", "price", "images"}, result.FieldSet)
	assert.Equal(t, []string{"/u/1.jpg"}, result.ImageURLs)
	assets.AssertExpectations(t)
}

func TestExportTransformer_SecondPartialExportOmitsUnchangedImages(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	mapping := widgetMapping(t, tenantID, connectionID)

	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", []string{"name", "sku", "price", "images"}, []string{"/u/1.jpg"}, nil)

	assets := new(MockAssetResolver)
	transformer := NewExportTransformer(assets)

	result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{Partial: true})
	require.NoError(t, err)

	assert.False(t, result.Payload.Has("images"), "unchanged images must not be resent")
	assert.True(t, result.Payload.Has("name"))
	assert.True(t, result.Payload.Has("sku"))
	assert.True(t, result.Payload.Has("regular_price"))
	assets.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestExportTransformer_ChangedImagesAreResent(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	product.PrimaryImageRef = "/u/2.jpg"
	mapping := widgetMapping(t, tenantID, connectionID)

	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", []string{"name", "sku", "price", "images"}, []string{"/u/1.jpg"}, nil)

	assets := new(MockAssetResolver)
	assets.On("Resolve", mock.Anything, "/u/2.jpg").Return("https://cdn.example.com/u/2.jpg", nil)
	transformer := NewExportTransformer(assets)

	result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{Partial: true})
	require.NoError(t, err)
	assert.True(t, result.Payload.Has("images"))
}

func TestExportTransformer_AbsoluteVsRelativeURLNoFalsePositive(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	mapping := widgetMapping(t, tenantID, connectionID)

	// prior snapshot stored the absolute form of the same image
	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", []string{"name", "sku", "price", "images"}, []string{"https://cdn.example.com/u/1.jpg"}, nil)

	assets := new(MockAssetResolver)
	transformer := NewExportTransformer(assets)

	result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{Partial: true})
	require.NoError(t, err)
	assert.False(t, result.Payload.Has("images"), "scheme/host differences are not a change")
}

func TestExportTransformer_RequiredFieldsAlwaysIncluded(t *testing.T) {
	tenantID := uuid.New()
	product := widgetProduct(tenantID)

	assets := new(MockAssetResolver)
	transformer := NewExportTransformer(assets)

	result, err := transformer.Transform(context.Background(), product, nil, nil, nil, ExportOptions{
		FieldOverride: []string{"price"},
	})
	require.NoError(t, err)

	assert.True(t, result.Payload.Has("sku"))
	assert.True(t, result.Payload.Has("name"))
	assert.True(t, result.Payload.Has("regular_price"))
}

func TestExportTransformer_NoMappingFallsBackToMinimalSelection(t *testing.T) {
	product := widgetProduct(uuid.New())

	transformer := NewExportTransformer(new(MockAssetResolver))
	result, err := transformer.Transform(context.Background(), product, nil, nil, nil, ExportOptions{})
	require.NoError(t, err)

	assert.True(t, result.Payload.Has("sku"))
	assert.True(t, result.Payload.Has("name"))
	assert.False(t, result.Payload.Has("regular_price"))
}

func TestExportTransformer_PartialSuppressionDropsUnownedFields(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	product.Description = "plain text"

	mapping, err := integration.NewFieldMapping(tenantID, connectionID, integration.DirectionExport,
		[]string{"name", "sku", "price", "description"},
		map[string]string{"price": "regular_price"},
		nil,
	)
	require.NoError(t, err)

	// last export owned only name/sku/price; description belongs to the platform
	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", []string{"name", "sku", "price"}, nil, nil)

	transformer := NewExportTransformer(new(MockAssetResolver))
	result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{Partial: true})
	require.NoError(t, err)

	assert.False(t, result.Payload.Has("description"), "field outside the prior field set must not be clobbered")
	assert.True(t, result.Payload.Has("regular_price"))
}

func TestExportTransformer_AttributeBucketPolicy(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	product.Attributes = append(product.Attributes, catalog.Attribute{Name: "colour", Value: catalog.StringValue("red")})

	mapping, err := integration.NewFieldMapping(tenantID, connectionID, integration.DirectionExport,
		[]string{"name", "sku", "colour"}, nil, nil)
	require.NoError(t, err)

	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", []string{"name", "sku", AttributeBucket}, nil, nil)

	transformer := NewExportTransformer(new(MockAssetResolver))

	t.Run("literal policy covers attribute fields", func(t *testing.T) {
		result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{
			Partial:      true,
			BucketPolicy: AttributeBucketLiteral,
		})
		require.NoError(t, err)
		assert.True(t, result.Payload.Has("colour"))
	})

	t.Run("enumerated policy ignores the bucket marker", func(t *testing.T) {
		result, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{
			Partial:      true,
			BucketPolicy: AttributeBucketEnumerated,
		})
		require.NoError(t, err)
		assert.False(t, result.Payload.Has("colour"))
	})
}

func TestExportTransformer_CategoryResolvedThroughTaxonomy(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	product.CategoryName = "Tools"

	mapping, err := integration.NewFieldMapping(tenantID, connectionID, integration.DirectionExport,
		[]string{"name", "sku", "category"}, nil, nil)
	require.NoError(t, err)

	conn, err := integration.NewConnection(tenantID, integration.PlatformCodeWooCommerce, "https://shop.example.com", "k", "s")
	require.NoError(t, err)
	adapter := new(MockConnectorAdapter)
	adapter.On("FindOrCreateTaxonomy", mock.Anything, conn, "Tools").Return("42", nil)

	transformer := NewExportTransformer(new(MockAssetResolver))
	result, err := transformer.Transform(context.Background(), product, mapping, nil,
		&boundAdapter{adapter: adapter, conn: conn}, ExportOptions{})
	require.NoError(t, err)

	refs, ok := result.Payload["categories"].([]integration.PayloadCategoryRef)
	require.True(t, ok)
	require.Len(t, refs, 1)
	assert.Equal(t, "42", refs[0].ID)
	adapter.AssertExpectations(t)
}

func TestExportTransformer_VariantDifferencing(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()

	mapping, err := integration.NewFieldMapping(tenantID, connectionID, integration.DirectionExport,
		[]string{"name", "sku", "variants"}, nil, nil)
	require.NoError(t, err)

	transformer := NewExportTransformer(new(MockAssetResolver))

	t.Run("variants with differing attributes are emitted", func(t *testing.T) {
		product := widgetProduct(tenantID)
		product.Attributes = []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("red")}}
		product.Variants = []catalog.ProductVariant{
			{SKU: "W-1-R", Attributes: []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("red")}}},
			{SKU: "W-1-G", Attributes: []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("green")}, {Name: "size", Value: catalog.StringValue("L")}}},
			{SKU: "W-1-B", Attributes: []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("blue")}}},
		}

		result, err := transformer.Transform(context.Background(), product, mapping, nil, nil, ExportOptions{})
		require.NoError(t, err)

		variants, ok := result.Payload["variations"].([]integration.PayloadVariant)
		require.True(t, ok)
		// W-1-R matches the parent on every attribute and drops out
		require.Len(t, variants, 2)
		assert.Equal(t, "W-1-G", variants[0].SKU)
		assert.Equal(t, map[string]string{"colour": "green", "size": "L"}, variants[0].Attributes)
		assert.False(t, result.Collapsed)
	})

	t.Run("fewer than two qualifying variants collapse to a simple product", func(t *testing.T) {
		product := widgetProduct(tenantID)
		product.Attributes = []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("red")}}
		product.Variants = []catalog.ProductVariant{
			{SKU: "W-1-R", Attributes: []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("red")}}},
			{SKU: "W-1-G", Attributes: []catalog.Attribute{{Name: "colour", Value: catalog.StringValue("green")}}},
		}

		result, err := transformer.Transform(context.Background(), product, mapping, nil, nil, ExportOptions{})
		require.NoError(t, err)
		assert.False(t, result.Payload.Has("variations"))
		assert.True(t, result.Collapsed)
	})
}

func TestExportTransformer_MissingRequiredValueFails(t *testing.T) {
	product := widgetProduct(uuid.New())
	product.SKU = ""

	transformer := NewExportTransformer(new(MockAssetResolver))
	_, err := transformer.Transform(context.Background(), product, nil, nil, nil, ExportOptions{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Contains(t, err.Error(), "sku")
}

func TestExportTransformer_IdempotentSecondExportSnapshot(t *testing.T) {
	tenantID := uuid.New()
	connectionID := uuid.New()
	product := widgetProduct(tenantID)
	mapping := widgetMapping(t, tenantID, connectionID)

	assets := new(MockAssetResolver)
	assets.On("Resolve", mock.Anything, "/u/1.jpg").Return("https://cdn.example.com/u/1.jpg", nil)
	transformer := NewExportTransformer(assets)

	first, err := transformer.Transform(context.Background(), product, mapping, nil, nil, ExportOptions{Partial: true})
	require.NoError(t, err)

	record := integration.NewSyncRecord(tenantID, connectionID, product.ID)
	record.RecordExportSuccess("777", first.FieldSet, first.ImageURLs, first.AssetURLs)
	// make the prior export visibly older
	earlier := time.Now().Add(-time.Minute)
	record.LastExportedAt = &earlier

	second, err := transformer.Transform(context.Background(), product, mapping, record, nil, ExportOptions{Partial: true})
	require.NoError(t, err)

	assert.False(t, second.Payload.Has("images"))
	assert.Equal(t, first.FieldSet, second.FieldSet)
	assert.Equal(t, first.ImageURLs, second.ImageURLs, "snapshot stays stable across unchanged exports")
}
