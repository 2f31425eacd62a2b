package sync

import (
	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Export options
// ---------------------------------------------------------------------------

// AttributeBucketPolicy controls how the generic "attributes" entry in a
// prior export's field set is interpreted during partial-update suppression.
type AttributeBucketPolicy int

const (
	// AttributeBucketLiteral treats a literal "attributes" entry in the prior
	// field set as covering every non-standard field. Default.
	AttributeBucketLiteral AttributeBucketPolicy = iota
	// AttributeBucketEnumerated ignores the bucket marker; a non-standard
	// field is covered only when its own name appears in the prior field set.
	AttributeBucketEnumerated
)

// AttributeBucket is the generic field-set entry covering all attribute fields
const AttributeBucket = "attributes"

// ExportOptions tunes one outbound transform/export invocation
type ExportOptions struct {
	// FieldOverride replaces the active mapping's selection when non-empty
	FieldOverride []string
	// Partial enables partial-update suppression against the prior sync record
	Partial bool
	// BucketPolicy selects the attributes-bucket interpretation under Partial
	BucketPolicy AttributeBucketPolicy
}

// ---------------------------------------------------------------------------
// Import options
// ---------------------------------------------------------------------------

// CollisionPolicy decides what happens when an imported product's SKU already
// exists in the internal catalog. The caller must always choose one; there is
// no implicit default.
type CollisionPolicy string

const (
	// CollisionSkip leaves the existing product untouched and reports a conflict
	CollisionSkip CollisionPolicy = "SKIP"
	// CollisionUpdate overwrites the existing product with the imported data
	CollisionUpdate CollisionPolicy = "UPDATE"
	// CollisionLink associates the external identity with the existing
	// product without altering its data
	CollisionLink CollisionPolicy = "LINK"
)

// IsValid returns true if the policy is valid
func (p CollisionPolicy) IsValid() bool {
	switch p {
	case CollisionSkip, CollisionUpdate, CollisionLink:
		return true
	default:
		return false
	}
}

// ImportOptions tunes one inbound import invocation
type ImportOptions struct {
	// OnCollision is the mandatory SKU-collision policy
	OnCollision CollisionPolicy
	// PageSize bounds each pull from the platform; 0 uses the default
	PageSize int
	// MaxPages bounds how many pages are pulled; 0 means all
	MaxPages int
}

// ---------------------------------------------------------------------------
// Batch report
// ---------------------------------------------------------------------------

// ItemStatus is the per-item outcome within a batch
type ItemStatus string

const (
	ItemStatusSucceeded ItemStatus = "SUCCEEDED"
	ItemStatusPending   ItemStatus = "PENDING"
	ItemStatusFailed    ItemStatus = "FAILED"
	ItemStatusConflict  ItemStatus = "CONFLICT"
	ItemStatusSkipped   ItemStatus = "SKIPPED"
)

// ItemResult is the outcome of one product within a batch
type ItemResult struct {
	ProductID  uuid.UUID  `json:"product_id,omitempty"`
	ExternalID string     `json:"external_id,omitempty"`
	SKU        string     `json:"sku,omitempty"`
	Status     ItemStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	WorkItemID uuid.UUID  `json:"work_item_id,omitempty"`
}

// BatchReport aggregates the outcome of a batch operation. Items preserve
// submission order.
type BatchReport struct {
	Total     int          `json:"total"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Pending   int          `json:"pending"`
	Items     []ItemResult `json:"items"`
}

func (r *BatchReport) add(item ItemResult) {
	r.Total++
	switch item.Status {
	case ItemStatusSucceeded, ItemStatusSkipped:
		r.Succeeded++
	case ItemStatusPending:
		r.Pending++
	default:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// ---------------------------------------------------------------------------
// Transform output
// ---------------------------------------------------------------------------

// TransformResult is the outbound transformer's output for one product
type TransformResult struct {
	// Payload is the platform-facing document
	Payload integration.ExternalPayload
	// FieldSet is the effective field selection this export owns; stored in
	// the sync ledger for the next partial-update decision
	FieldSet []string
	// ImageURLs is the normalized image set; stored for change detection
	ImageURLs []string
	// AssetURLs is the normalized set of assets referenced by the
	// description; stored for change detection
	AssetURLs []string
	// Collapsed reports that the variant set collapsed to a simple product
	Collapsed bool
}

// ImportDraftResult is the inbound transformer's output for one external product
type ImportDraftResult struct {
	// Draft holds the core scalar fields
	Draft *catalog.ProductDraft
	// Assignments are applied after the product row exists
	Assignments []catalog.AttributeAssignment
}
