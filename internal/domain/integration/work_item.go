package integration

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// WorkItemKind / WorkItemStatus
// ---------------------------------------------------------------------------

// WorkItemKind is the operation a work item tracks
type WorkItemKind string

const (
	WorkKindExport        WorkItemKind = "EXPORT"
	WorkKindUpdate        WorkItemKind = "UPDATE"
	WorkKindDelete        WorkItemKind = "DELETE"
	WorkKindPriceUpdate   WorkItemKind = "PRICE_UPDATE"
	WorkKindListingUpdate WorkItemKind = "LISTING_UPDATE"
)

// IsValid returns true if the kind is valid
func (k WorkItemKind) IsValid() bool {
	switch k {
	case WorkKindExport, WorkKindUpdate, WorkKindDelete, WorkKindPriceUpdate, WorkKindListingUpdate:
		return true
	default:
		return false
	}
}

// WorkItemStatus is the lifecycle state of a work item
type WorkItemStatus string

const (
	WorkStatusPending    WorkItemStatus = "PENDING"
	WorkStatusProcessing WorkItemStatus = "PROCESSING"
	WorkStatusCompleted  WorkItemStatus = "COMPLETED"
	WorkStatusFailed     WorkItemStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s WorkItemStatus) IsValid() bool {
	switch s {
	case WorkStatusPending, WorkStatusProcessing, WorkStatusCompleted, WorkStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is final. Terminal items are
// immutable except for administrative cleanup.
func (s WorkItemStatus) IsTerminal() bool {
	return s == WorkStatusCompleted || s == WorkStatusFailed
}

// ---------------------------------------------------------------------------
// WorkItem Entity
// ---------------------------------------------------------------------------

// WorkItem tracks one asynchronous call to an external platform: phase one
// submits and stores pending, phase two polls the platform with the parsed
// work identifier and transitions the state. There is no hidden background
// timer; polls are always caller-driven.
type WorkItem struct {
	// ID is the unique identifier of this work item
	ID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// ConnectionID is the connection the operation ran over
	ConnectionID uuid.UUID
	// ExternalWorkID is the platform-assigned identifier, parsed from the
	// asynchronous-acceptance response
	ExternalWorkID string
	// ProductID is the internal product, when the operation targets one
	ProductID *uuid.UUID
	// Kind is the tracked operation
	Kind WorkItemKind
	// Status is the lifecycle state
	Status WorkItemStatus
	// RequestPayload is the submitted payload snapshot
	RequestPayload json.RawMessage
	// ResponsePayload is the platform's final response, set on completion
	ResponsePayload json.RawMessage
	// ErrorMessage consolidates the platform's error list, set on failure
	ErrorMessage string
	// ExternalProductID is the platform product id, once known
	ExternalProductID string
	// ExternalSKU is the externally visible SKU, once known
	ExternalSKU string
	// CompletedAt is when the item reached a terminal state
	CompletedAt *time.Time
	// CreatedAt is when this item was created
	CreatedAt time.Time
	// UpdatedAt is when this item was last updated
	UpdatedAt time.Time
}

// NewWorkItem creates a pending work item for a submitted operation
func NewWorkItem(tenantID, connectionID uuid.UUID, externalWorkID string, kind WorkItemKind, requestPayload json.RawMessage) (*WorkItem, error) {
	if tenantID == uuid.Nil {
		return nil, ErrConnectionInvalidTenantID
	}
	if externalWorkID == "" {
		return nil, ErrWorkRefUnparseable
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("kind", "invalid work item kind")
	}

	now := time.Now()
	return &WorkItem{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ConnectionID:   connectionID,
		ExternalWorkID: externalWorkID,
		Kind:           kind,
		Status:         WorkStatusPending,
		RequestPayload: requestPayload,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ForProduct attaches the internal product this item targets
func (w *WorkItem) ForProduct(productID uuid.UUID) *WorkItem {
	w.ProductID = &productID
	return w
}

// IsTerminal reports whether the item has reached a final state
func (w *WorkItem) IsTerminal() bool {
	return w.Status.IsTerminal()
}

// MarkProcessing transitions pending -> processing
func (w *WorkItem) MarkProcessing() error {
	if w.Status != WorkStatusPending {
		return shared.NewInvalidStateError("work item is not pending")
	}
	w.Status = WorkStatusProcessing
	w.UpdatedAt = time.Now()
	return nil
}

// MarkCompleted transitions a non-terminal item to completed, storing the
// final response payload. Allowed directly from pending when the platform
// resolved synchronously.
func (w *WorkItem) MarkCompleted(response json.RawMessage, externalProductID, externalSKU string) error {
	if w.IsTerminal() {
		return shared.NewInvalidStateError("work item already resolved")
	}
	now := time.Now()
	w.Status = WorkStatusCompleted
	w.ResponsePayload = response
	w.ExternalProductID = externalProductID
	w.ExternalSKU = externalSKU
	w.ErrorMessage = ""
	w.CompletedAt = &now
	w.UpdatedAt = now
	return nil
}

// MarkFailed transitions a non-terminal item to failed with a consolidated
// error message.
func (w *WorkItem) MarkFailed(errs []string) error {
	if w.IsTerminal() {
		return shared.NewInvalidStateError("work item already resolved")
	}
	now := time.Now()
	w.Status = WorkStatusFailed
	w.ErrorMessage = strings.Join(errs, "; ")
	w.CompletedAt = &now
	w.UpdatedAt = now
	return nil
}

// ---------------------------------------------------------------------------
// Work reference parsing
// ---------------------------------------------------------------------------

// ParseWorkRef extracts the platform work identifier from an
// asynchronous-acceptance response. Platforms typically return a
// callback-style status URI whose last path segment is the identifier;
// a bare identifier passes through unchanged.
func ParseWorkRef(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", ErrWorkRefUnparseable
	}
	if !strings.Contains(trimmed, "/") {
		return trimmed, nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrWorkRefUnparseable
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "", ErrWorkRefUnparseable
	}
	return last, nil
}

// ---------------------------------------------------------------------------
// WorkItemRepository Interface
// ---------------------------------------------------------------------------

// WorkItemRepository defines the interface for work item persistence
type WorkItemRepository interface {
	// FindByID finds a work item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*WorkItem, error)

	// FindByExternalWorkID finds a work item by the platform identifier
	FindByExternalWorkID(ctx context.Context, tenantID uuid.UUID, externalWorkID string) (*WorkItem, error)

	// FindPending lists non-terminal items for a tenant, oldest first
	FindPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]WorkItem, error)

	// Save creates or updates a work item. Implementations refuse to
	// overwrite a terminal row with a different terminal outcome.
	Save(ctx context.Context, item *WorkItem) error

	// DeleteOlderThan removes terminal items older than the cutoff
	// (administrative cleanup)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
