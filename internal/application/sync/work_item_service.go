package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pimsync/backend/internal/domain/integration"
	"github.com/pimsync/backend/internal/domain/shared"
)

// WorkItemService tracks asynchronous platform operations. Submission stores
// a pending item; resolution happens only through explicit, caller-driven
// polls. Re-polling a terminal item returns the stored outcome and never
// touches the external platform again.
type WorkItemService interface {
	// Get retrieves a work item owned by the tenant
	Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.WorkItem, error)

	// ListPending lists the tenant's unresolved work items, oldest first
	ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]integration.WorkItem, error)

	// Poll asks the external platform for the item's state and applies the
	// resulting transition. Terminal items short-circuit without an external
	// call; concurrent polls on the same item collapse to one external call.
	Poll(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.WorkItem, error)
}

// WorkItemServiceImpl implements WorkItemService
type WorkItemServiceImpl struct {
	workRepo   integration.WorkItemRepository
	recordRepo integration.SyncRecordRepository
	connRepo   integration.ConnectionReader
	connectors integration.ConnectorRegistry
	pollGuard  shared.IdempotencyStore
	logger     *zap.Logger
}

// NewWorkItemService creates a new WorkItemServiceImpl
func NewWorkItemService(
	workRepo integration.WorkItemRepository,
	recordRepo integration.SyncRecordRepository,
	connRepo integration.ConnectionReader,
	connectors integration.ConnectorRegistry,
	pollGuard shared.IdempotencyStore,
	logger *zap.Logger,
) *WorkItemServiceImpl {
	return &WorkItemServiceImpl{
		workRepo:   workRepo,
		recordRepo: recordRepo,
		connRepo:   connRepo,
		connectors: connectors,
		pollGuard:  pollGuard,
		logger:     logger,
	}
}

// Get retrieves a work item by ID
func (s *WorkItemServiceImpl) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.WorkItem, error) {
	item, err := s.workRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.TenantID != tenantID {
		return nil, integration.ErrWorkItemNotFound
	}
	return item, nil
}

// ListPending lists the tenant's unresolved work items
func (s *WorkItemServiceImpl) ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]integration.WorkItem, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.workRepo.FindPending(ctx, tenantID, limit)
}

// Poll resolves an item's state against the external platform
func (s *WorkItemServiceImpl) Poll(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.WorkItem, error) {
	item, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item.IsTerminal() {
		return item, nil
	}

	guardKey := "workitem:poll:" + item.ID.String()
	acquired, err := s.pollGuard.MarkProcessed(ctx, guardKey, shared.DefaultIdempotencyTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		// a concurrent poll already holds the item; report its current state
		return item, nil
	}
	defer func() {
		if releaseErr := s.pollGuard.Release(ctx, guardKey); releaseErr != nil {
			s.logger.Warn("failed to release poll guard", zap.String("work_item_id", item.ID.String()), zap.Error(releaseErr))
		}
	}()

	conn, err := s.connRepo.FindByID(ctx, item.ConnectionID)
	if err != nil {
		return nil, err
	}
	adapter, err := s.connectors.Get(conn.PlatformCode)
	if err != nil {
		return nil, err
	}

	report, err := adapter.PollWork(ctx, conn, item.ExternalWorkID)
	if err != nil {
		return nil, err
	}

	switch report.State {
	case integration.WorkStateInProgress:
		if item.Status == integration.WorkStatusPending {
			if err := item.MarkProcessing(); err != nil {
				return nil, err
			}
			if err := s.workRepo.Save(ctx, item); err != nil {
				return nil, err
			}
		}
	case integration.WorkStateCompleted:
		if err := item.MarkCompleted(report.Data, report.ExternalProductID, report.ExternalSKU); err != nil {
			return nil, err
		}
		if err := s.workRepo.Save(ctx, item); err != nil {
			return nil, err
		}
		if err := s.linkSyncRecord(ctx, item); err != nil {
			s.logger.Warn("work item completed but ledger link failed",
				zap.String("work_item_id", item.ID.String()),
				zap.Error(err))
		}
		s.logger.Info("work item completed",
			zap.String("work_item_id", item.ID.String()),
			zap.String("external_product_id", item.ExternalProductID))
	case integration.WorkStateFailed:
		if err := item.MarkFailed(report.Errors); err != nil {
			return nil, err
		}
		if err := s.workRepo.Save(ctx, item); err != nil {
			return nil, err
		}
		if err := s.failSyncRecord(ctx, item); err != nil {
			s.logger.Warn("work item failed but ledger update failed",
				zap.String("work_item_id", item.ID.String()),
				zap.Error(err))
		}
	default:
		return nil, integration.ErrPlatformInvalidResponse
	}

	return item, nil
}

// linkSyncRecord carries a completed async export's external id into the
// sync ledger so later syncs issue updates instead of creates
func (s *WorkItemServiceImpl) linkSyncRecord(ctx context.Context, item *integration.WorkItem) error {
	if item.ProductID == nil || item.ExternalProductID == "" {
		return nil
	}
	record, err := s.recordRepo.GetByProduct(ctx, item.ConnectionID, *item.ProductID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncRecordNotFound) {
			record = integration.NewSyncRecord(item.TenantID, item.ConnectionID, *item.ProductID)
		} else {
			return err
		}
	}
	record.RecordExportSuccess(item.ExternalProductID, record.LastFieldSet, record.LastImageURLs, record.LastAssetURLs)
	return s.recordRepo.Save(ctx, record)
}

// failSyncRecord records the consolidated platform error in the ledger
func (s *WorkItemServiceImpl) failSyncRecord(ctx context.Context, item *integration.WorkItem) error {
	if item.ProductID == nil {
		return nil
	}
	record, err := s.recordRepo.GetByProduct(ctx, item.ConnectionID, *item.ProductID)
	if err != nil {
		if errors.Is(err, integration.ErrSyncRecordNotFound) {
			return nil
		}
		return err
	}
	record.RecordFailure(SanitizeErrorMessage(errors.New(item.ErrorMessage)))
	return s.recordRepo.Save(ctx, record)
}

// Ensure WorkItemServiceImpl implements WorkItemService
var _ WorkItemService = (*WorkItemServiceImpl)(nil)
