package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncStatus
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization status of a record
type SyncStatus string

const (
	// SyncStatusPending indicates a sync has been initiated but not resolved
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusSynced indicates the last sync succeeded
	SyncStatusSynced SyncStatus = "SYNCED"
	// SyncStatusError indicates the last sync failed; the stored error
	// message is the signal for explicit resubmission
	SyncStatusError SyncStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusSynced, SyncStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// UnlinkedExternalID is the placeholder meaning "not yet created upstream".
// A record carrying it must never be used to issue an update call.
const UnlinkedExternalID = ""

// ---------------------------------------------------------------------------
// SyncRecord Entity
// ---------------------------------------------------------------------------

// SyncRecord is the durable link between one internal product and one
// external product within one connection, with sync history. It is keyed by
// (connection, product) and independently by (connection, external id); both
// paths resolve to the same row once the link is established.
type SyncRecord struct {
	// ID is the unique identifier of this record
	ID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// ConnectionID is the connection this record belongs to
	ConnectionID uuid.UUID
	// ProductID is the internal product
	ProductID uuid.UUID
	// ExternalID is the platform product id; UnlinkedExternalID while the
	// upstream record does not exist yet
	ExternalID string
	// LastExportedAt is when the product was last exported
	LastExportedAt *time.Time
	// LastImportedAt is when the product was last imported
	LastImportedAt *time.Time
	// LastFieldSet is the field selection of the last successful export,
	// consulted by partial-update suppression
	LastFieldSet []string
	// LastImageURLs is the normalized image set of the last successful
	// export, consulted by image change detection
	LastImageURLs []string
	// LastAssetURLs is the asset set referenced by the description at the
	// last successful export
	LastAssetURLs []string
	// Status is the current sync status
	Status SyncStatus
	// ErrorMessage holds the sanitized message of the last failure
	ErrorMessage string
	// CreatedAt is when this record was created
	CreatedAt time.Time
	// UpdatedAt is when this record was last updated
	UpdatedAt time.Time
}

// NewSyncRecord creates a pending record for a (connection, product) pairing
func NewSyncRecord(tenantID, connectionID, productID uuid.UUID) *SyncRecord {
	now := time.Now()
	return &SyncRecord{
		ID:           uuid.New(),
		TenantID:     tenantID,
		ConnectionID: connectionID,
		ProductID:    productID,
		ExternalID:   UnlinkedExternalID,
		Status:       SyncStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsLinked distinguishes "record exists and is linked" from "record exists
// but the upstream create has not succeeded yet".
func (r *SyncRecord) IsLinked() bool {
	return r.ExternalID != UnlinkedExternalID && r.ExternalID != "0"
}

// RecordExportSuccess stores the outcome of a successful export: the new
// link, the exported field set and the media snapshots the next partial
// export compares against.
func (r *SyncRecord) RecordExportSuccess(externalID string, fieldSet, imageURLs, assetURLs []string) {
	now := time.Now()
	if externalID != "" {
		r.ExternalID = externalID
	}
	r.LastExportedAt = &now
	r.LastFieldSet = append([]string(nil), fieldSet...)
	r.LastImageURLs = append([]string(nil), imageURLs...)
	r.LastAssetURLs = append([]string(nil), assetURLs...)
	r.Status = SyncStatusSynced
	r.ErrorMessage = ""
	r.UpdatedAt = now
}

// RecordImportSuccess stores the outcome of a successful import
func (r *SyncRecord) RecordImportSuccess(externalID string) {
	now := time.Now()
	if externalID != "" {
		r.ExternalID = externalID
	}
	r.LastImportedAt = &now
	r.Status = SyncStatusSynced
	r.ErrorMessage = ""
	r.UpdatedAt = now
}

// RecordFailure stores a sanitized failure message. The external link, field
// set and media snapshots are left as they were.
func (r *SyncRecord) RecordFailure(message string) {
	r.Status = SyncStatusError
	r.ErrorMessage = message
	r.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// SyncRecordRepository Interface
// ---------------------------------------------------------------------------

// SyncRecordRepository is the sync ledger's persistence contract
type SyncRecordRepository interface {
	// GetByProduct finds the record for a (connection, product) pairing
	GetByProduct(ctx context.Context, connectionID, productID uuid.UUID) (*SyncRecord, error)

	// GetByExternalID finds the record for a (connection, external id)
	// pairing. Lookups by the unlinked placeholder always fail with
	// ErrSyncRecordUnlinked.
	GetByExternalID(ctx context.Context, connectionID uuid.UUID, externalID string) (*SyncRecord, error)

	// FindByConnection lists records for a connection filtered by status
	FindByConnection(ctx context.Context, connectionID uuid.UUID, status *SyncStatus) ([]SyncRecord, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *SyncRecord) error

	// DeleteByConnection deletes all records for a connection
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error

	// Unlink explicitly removes the record for a pairing
	Unlink(ctx context.Context, connectionID, productID uuid.UUID) error
}
