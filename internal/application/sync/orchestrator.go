package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/domain/shared"
)

// Orchestrator fans a batch export or import across products, invoking the
// transformer, connector adapter and sync ledger per item. Items run
// sequentially in list order; a single item's failure is recorded and the
// batch continues.
type Orchestrator struct {
	products    catalog.ProductReader
	writer      catalog.CatalogWriter
	connRepo    integration.ConnectionRepository
	mappingRepo integration.FieldMappingReader
	recordRepo  integration.SyncRecordRepository
	workRepo    integration.WorkItemRepository
	connectors  integration.ConnectorRegistry
	exporter    *ExportTransformer
	importer    *ImportTransformer
	logger      *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	products catalog.ProductReader,
	writer catalog.CatalogWriter,
	connRepo integration.ConnectionRepository,
	mappingRepo integration.FieldMappingReader,
	recordRepo integration.SyncRecordRepository,
	workRepo integration.WorkItemRepository,
	connectors integration.ConnectorRegistry,
	exporter *ExportTransformer,
	importer *ImportTransformer,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		products:    products,
		writer:      writer,
		connRepo:    connRepo,
		mappingRepo: mappingRepo,
		recordRepo:  recordRepo,
		workRepo:    workRepo,
		connectors:  connectors,
		exporter:    exporter,
		importer:    importer,
		logger:      logger,
	}
}

// boundAdapter binds a connection to its adapter so the transformer can
// request taxonomy lookup-or-create without knowing the platform
type boundAdapter struct {
	adapter integration.ConnectorAdapter
	conn    *integration.Connection
}

func (b *boundAdapter) FindOrCreateTaxonomy(ctx context.Context, name string) (string, error) {
	return b.adapter.FindOrCreateTaxonomy(ctx, b.conn, name)
}

// resolveConnection loads a tenant-owned, active connection and its adapter
func (o *Orchestrator) resolveConnection(ctx context.Context, tenantID, connectionID uuid.UUID) (*integration.Connection, integration.ConnectorAdapter, error) {
	conn, err := o.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, nil, err
	}
	if conn.TenantID != tenantID {
		return nil, nil, integration.ErrConnectionNotFound
	}
	if !conn.IsActive {
		return nil, nil, shared.NewInvalidStateError("connection is deactivated")
	}
	adapter, err := o.connectors.Get(conn.PlatformCode)
	if err != nil {
		return nil, nil, err
	}
	return conn, adapter, nil
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// ExportBatch exports the listed products over one connection. The batch is
// rejected wholesale when it exceeds the platform's export cap.
func (o *Orchestrator) ExportBatch(ctx context.Context, tenantID, connectionID uuid.UUID, productIDs []uuid.UUID, opts ExportOptions) (*BatchReport, error) {
	conn, adapter, err := o.resolveConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	policy := integration.PolicyFor(conn.PlatformCode)
	if len(productIDs) > policy.MaxExportBatch {
		return nil, shared.NewValidationError("products",
			fmt.Sprintf("batch of %d exceeds the platform cap of %d", len(productIDs), policy.MaxExportBatch))
	}

	mapping, err := o.mappingRepo.FindActive(ctx, tenantID, connectionID, integration.DirectionExport)
	if err != nil && !errors.Is(err, integration.ErrMappingNoActive) {
		return nil, err
	}
	taxonomy := &boundAdapter{adapter: adapter, conn: conn}

	report := &BatchReport{}
	for _, productID := range productIDs {
		report.add(o.exportOne(ctx, tenantID, conn, adapter, mapping, taxonomy, productID, opts))
	}

	conn.TouchSynced()
	if err := o.connRepo.Save(ctx, conn); err != nil {
		o.logger.Warn("failed to stamp connection sync time", zap.Error(err))
	}

	o.logger.Info("export batch finished",
		zap.String("connection_id", connectionID.String()),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("pending", report.Pending),
		zap.Int("failed", report.Failed))
	return report, nil
}

// exportOne runs the transform -> submit -> ledger sequence for one product.
// Failures are captured into the result and the ledger, never propagated.
func (o *Orchestrator) exportOne(
	ctx context.Context,
	tenantID uuid.UUID,
	conn *integration.Connection,
	adapter integration.ConnectorAdapter,
	mapping *integration.FieldMapping,
	taxonomy TaxonomyResolver,
	productID uuid.UUID,
	opts ExportOptions,
) ItemResult {
	result := ItemResult{ProductID: productID}

	product, err := o.products.GetProductWithRelations(ctx, productID, tenantID)
	if err != nil {
		result.Status = ItemStatusFailed
		result.Message = SanitizeErrorMessage(err)
		return result
	}
	if product == nil {
		result.Status = ItemStatusFailed
		result.Message = "product not found"
		return result
	}
	result.SKU = product.SKU

	record, err := o.recordRepo.GetByProduct(ctx, conn.ID, productID)
	if err != nil {
		if !errors.Is(err, integration.ErrSyncRecordNotFound) {
			result.Status = ItemStatusFailed
			result.Message = SanitizeErrorMessage(err)
			return result
		}
		record = nil
	}

	transformed, err := o.exporter.Transform(ctx, product, mapping, record, taxonomy, opts)
	if err != nil {
		return o.recordItemFailure(ctx, tenantID, conn.ID, productID, record, result, err)
	}

	if record == nil {
		record = integration.NewSyncRecord(tenantID, conn.ID, productID)
	}

	if record.IsLinked() {
		if err := adapter.Update(ctx, conn, record.ExternalID, transformed.Payload); err != nil {
			return o.recordItemFailure(ctx, tenantID, conn.ID, productID, record, result, err)
		}
		record.RecordExportSuccess(record.ExternalID, transformed.FieldSet, transformed.ImageURLs, transformed.AssetURLs)
		result.Status = ItemStatusSucceeded
		result.ExternalID = record.ExternalID
	} else {
		created, err := adapter.Create(ctx, conn, transformed.Payload)
		if err != nil {
			return o.recordItemFailure(ctx, tenantID, conn.ID, productID, record, result, err)
		}
		if created.IsAsync() {
			item, err := o.trackWork(ctx, tenantID, conn.ID, created.WorkRef, integration.WorkKindExport, transformed.Payload, &productID)
			if err != nil {
				return o.recordItemFailure(ctx, tenantID, conn.ID, productID, record, result, err)
			}
			// the link lands when the work item completes; the ledger stays
			// pending with the owned field set recorded
			record.LastFieldSet = transformed.FieldSet
			record.LastImageURLs = transformed.ImageURLs
			record.LastAssetURLs = transformed.AssetURLs
			result.Status = ItemStatusPending
			result.WorkItemID = item.ID
		} else {
			record.RecordExportSuccess(created.ExternalID, transformed.FieldSet, transformed.ImageURLs, transformed.AssetURLs)
			result.Status = ItemStatusSucceeded
			result.ExternalID = created.ExternalID
		}
	}

	if err := o.recordRepo.Save(ctx, record); err != nil {
		result.Status = ItemStatusFailed
		result.Message = SanitizeErrorMessage(err)
	}
	return result
}

// recordItemFailure stores the sanitized error in the ledger and the result
func (o *Orchestrator) recordItemFailure(
	ctx context.Context,
	tenantID, connectionID, productID uuid.UUID,
	record *integration.SyncRecord,
	result ItemResult,
	cause error,
) ItemResult {
	result.Status = ItemStatusFailed
	result.Message = SanitizeErrorMessage(cause)

	if record == nil {
		record = integration.NewSyncRecord(tenantID, connectionID, productID)
	}
	record.RecordFailure(result.Message)
	if err := o.recordRepo.Save(ctx, record); err != nil {
		o.logger.Warn("failed to record sync failure",
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}
	return result
}

// trackWork parses the platform's work reference and stores a pending item
func (o *Orchestrator) trackWork(
	ctx context.Context,
	tenantID, connectionID uuid.UUID,
	workRef string,
	kind integration.WorkItemKind,
	payload any,
	productID *uuid.UUID,
) (*integration.WorkItem, error) {
	workID, err := integration.ParseWorkRef(workRef)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	item, err := integration.NewWorkItem(tenantID, connectionID, workID, kind, snapshot)
	if err != nil {
		return nil, err
	}
	if productID != nil {
		item.ForProduct(*productID)
	}
	if err := o.workRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

// ImportAll pulls the connection's products page by page and applies them to
// the internal catalog under the caller's collision policy.
func (o *Orchestrator) ImportAll(ctx context.Context, tenantID, connectionID uuid.UUID, opts ImportOptions) (*BatchReport, error) {
	if !opts.OnCollision.IsValid() {
		return nil, shared.NewValidationError("on_collision", "a collision policy is required")
	}
	conn, adapter, err := o.resolveConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}

	mapping, err := o.mappingRepo.FindActive(ctx, tenantID, connectionID, integration.DirectionImport)
	if err != nil && !errors.Is(err, integration.ErrMappingNoActive) {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	report := &BatchReport{}
	for page := 1; ; page++ {
		items, hasMore, err := adapter.FetchAll(ctx, conn, page, pageSize)
		if err != nil {
			return nil, err
		}
		for i := range items {
			report.add(o.importOne(ctx, tenantID, conn, mapping, &items[i], opts))
		}
		if !hasMore {
			break
		}
		if opts.MaxPages > 0 && page >= opts.MaxPages {
			break
		}
	}

	conn.TouchSynced()
	if err := o.connRepo.Save(ctx, conn); err != nil {
		o.logger.Warn("failed to stamp connection sync time", zap.Error(err))
	}

	o.logger.Info("import finished",
		zap.String("connection_id", connectionID.String()),
		zap.Int("total", report.Total),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}

// importOne applies one external product to the internal catalog
func (o *Orchestrator) importOne(
	ctx context.Context,
	tenantID uuid.UUID,
	conn *integration.Connection,
	mapping *integration.FieldMapping,
	external *integration.ExternalProduct,
	opts ImportOptions,
) ItemResult {
	result := ItemResult{ExternalID: external.ExternalID, SKU: external.SKU}

	transformed, err := o.importer.Transform(ctx, tenantID, external, mapping)
	if err != nil {
		result.Status = ItemStatusFailed
		result.Message = SanitizeErrorMessage(err)
		return result
	}

	existing, err := o.writer.FindBySKU(ctx, external.SKU, tenantID)
	if err != nil {
		result.Status = ItemStatusFailed
		result.Message = SanitizeErrorMessage(err)
		return result
	}

	var productID uuid.UUID
	switch {
	case existing == nil:
		productID, err = o.writer.CreateProduct(ctx, transformed.Draft)
		if err != nil {
			result.Status = ItemStatusFailed
			result.Message = SanitizeErrorMessage(err)
			return result
		}
		if err := o.writer.ApplyAttributes(ctx, productID, tenantID, transformed.Assignments); err != nil {
			result.Status = ItemStatusFailed
			result.Message = SanitizeErrorMessage(err)
			return result
		}
		result.Status = ItemStatusSucceeded
		result.ProductID = productID

	case opts.OnCollision == CollisionSkip:
		result.Status = ItemStatusConflict
		result.ProductID = existing.ID
		result.Message = "SKU already exists, skipped"
		return result

	case opts.OnCollision == CollisionUpdate:
		productID = existing.ID
		if err := o.writer.UpdateProduct(ctx, productID, transformed.Draft); err != nil {
			result.Status = ItemStatusFailed
			result.Message = SanitizeErrorMessage(err)
			return result
		}
		if err := o.writer.ApplyAttributes(ctx, productID, tenantID, transformed.Assignments); err != nil {
			result.Status = ItemStatusFailed
			result.Message = SanitizeErrorMessage(err)
			return result
		}
		result.Status = ItemStatusSucceeded
		result.ProductID = productID

	case opts.OnCollision == CollisionLink:
		// associate the external identity, leave the data untouched
		productID = existing.ID
		result.Status = ItemStatusSucceeded
		result.ProductID = productID
	}

	if err := o.linkImport(ctx, tenantID, conn.ID, productID, external.ExternalID); err != nil {
		result.Status = ItemStatusFailed
		result.Message = SanitizeErrorMessage(err)
	}
	return result
}

// linkImport upserts the sync ledger entry for an imported pairing
func (o *Orchestrator) linkImport(ctx context.Context, tenantID, connectionID, productID uuid.UUID, externalID string) error {
	record, err := o.recordRepo.GetByProduct(ctx, connectionID, productID)
	if err != nil {
		if !errors.Is(err, integration.ErrSyncRecordNotFound) {
			return err
		}
		record = integration.NewSyncRecord(tenantID, connectionID, productID)
	}
	record.RecordImportSuccess(externalID)
	return o.recordRepo.Save(ctx, record)
}

// ---------------------------------------------------------------------------
// Bulk price / listing updates
// ---------------------------------------------------------------------------

// UpdatePrices submits a bulk price/quantity update. A batch beyond the
// platform cap is rejected wholesale; nothing reaches the connector.
func (o *Orchestrator) UpdatePrices(ctx context.Context, tenantID, connectionID uuid.UUID, items []integration.PriceUpdate) (*integration.WorkItem, error) {
	conn, adapter, err := o.resolveConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	policy := integration.PolicyFor(conn.PlatformCode)
	if len(items) > policy.MaxPriceUpdateBatch {
		return nil, shared.NewValidationError("items",
			fmt.Sprintf("batch of %d exceeds the platform cap of %d", len(items), policy.MaxPriceUpdateBatch))
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "batch is empty")
	}

	result, err := adapter.UpdatePrices(ctx, conn, items)
	if err != nil {
		return nil, err
	}
	if !result.IsAsync() {
		return nil, nil
	}
	return o.trackWork(ctx, tenantID, connectionID, result.WorkRef, integration.WorkKindPriceUpdate, items, nil)
}

// UpdateListings submits a bulk listing-status update under the same
// wholesale cap rule.
func (o *Orchestrator) UpdateListings(ctx context.Context, tenantID, connectionID uuid.UUID, items []integration.ListingUpdate) (*integration.WorkItem, error) {
	conn, adapter, err := o.resolveConnection(ctx, tenantID, connectionID)
	if err != nil {
		return nil, err
	}
	policy := integration.PolicyFor(conn.PlatformCode)
	if len(items) > policy.MaxListingUpdateBatch {
		return nil, shared.NewValidationError("items",
			fmt.Sprintf("batch of %d exceeds the platform cap of %d", len(items), policy.MaxListingUpdateBatch))
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "batch is empty")
	}

	result, err := adapter.UpdateListings(ctx, conn, items)
	if err != nil {
		return nil, err
	}
	if !result.IsAsync() {
		return nil, nil
	}
	return o.trackWork(ctx, tenantID, connectionID, result.WorkRef, integration.WorkKindListingUpdate, items, nil)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

// DeleteExternal removes a product from the platform and unlinks the pairing
func (o *Orchestrator) DeleteExternal(ctx context.Context, tenantID, connectionID, productID uuid.UUID) error {
	conn, adapter, err := o.resolveConnection(ctx, tenantID, connectionID)
	if err != nil {
		return err
	}
	record, err := o.recordRepo.GetByProduct(ctx, connectionID, productID)
	if err != nil {
		return err
	}
	if !record.IsLinked() {
		return integration.ErrSyncRecordUnlinked
	}
	if err := adapter.Delete(ctx, conn, record.ExternalID); err != nil {
		record.RecordFailure(SanitizeErrorMessage(err))
		if saveErr := o.recordRepo.Save(ctx, record); saveErr != nil {
			o.logger.Warn("failed to record delete failure", zap.Error(saveErr))
		}
		return err
	}
	return o.recordRepo.Unlink(ctx, connectionID, productID)
}
