package integration

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")

	// Connection errors
	ErrConnectionNotFound        = errors.New("integration: connection not found")
	ErrConnectionInvalidTenantID = errors.New("integration: invalid tenant ID")
	ErrConnectionInvalidPlatform = errors.New("integration: invalid platform code")
	ErrConnectionInvalidBaseURL  = errors.New("integration: invalid base URL")
	ErrConnectionDuplicateURL    = errors.New("integration: connection with this URL already exists")

	// Mapping errors
	ErrMappingNotFound         = errors.New("integration: field mapping not found")
	ErrMappingInvalidDirection = errors.New("integration: invalid mapping direction")
	ErrMappingNoActive         = errors.New("integration: no active mapping for this direction")

	// Sync record errors
	ErrSyncRecordNotFound = errors.New("integration: sync record not found")
	ErrSyncRecordUnlinked = errors.New("integration: sync record has no external link")

	// Work item errors
	ErrWorkItemNotFound   = errors.New("integration: work item not found")
	ErrWorkItemTerminal   = errors.New("integration: work item already resolved")
	ErrWorkRefUnparseable = errors.New("integration: work reference cannot be parsed")
)

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies an external marketplace platform
type PlatformCode string

const (
	// PlatformCodeWooCommerce represents a WooCommerce store (REST v3)
	PlatformCodeWooCommerce PlatformCode = "WOOCOMMERCE"
	// PlatformCodeMyDeal represents the MyDeal marketplace
	PlatformCodeMyDeal PlatformCode = "MYDEAL"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeWooCommerce, PlatformCodeMyDeal:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeWooCommerce:
		return "WooCommerce"
	case PlatformCodeMyDeal:
		return "MyDeal"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// Batch policy
// ---------------------------------------------------------------------------

// BatchPolicy caps the number of items a single bulk call may carry.
// Exceeding a cap rejects the whole batch before any item is submitted.
type BatchPolicy struct {
	MaxExportBatch        int
	MaxPriceUpdateBatch   int
	MaxListingUpdateBatch int
}

// PolicyFor returns the batch policy for a platform
func PolicyFor(code PlatformCode) BatchPolicy {
	switch code {
	case PlatformCodeMyDeal:
		return BatchPolicy{
			MaxExportBatch:        100,
			MaxPriceUpdateBatch:   250,
			MaxListingUpdateBatch: 100,
		}
	default:
		return BatchPolicy{
			MaxExportBatch:        100,
			MaxPriceUpdateBatch:   250,
			MaxListingUpdateBatch: 100,
		}
	}
}

// ---------------------------------------------------------------------------
// Payload value objects
// ---------------------------------------------------------------------------

// ExternalPayload is the platform-facing product document produced by the
// outbound transformer. Keys are external field names; values are scalars,
// []PayloadImage, []PayloadVariant or []PayloadCategoryRef.
type ExternalPayload map[string]any

// Set assigns a field; empty names are ignored
func (p ExternalPayload) Set(name string, value any) {
	if name == "" {
		return
	}
	p[name] = value
}

// Has reports whether the payload carries the field
func (p ExternalPayload) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// GetString returns the field as a string if it is one
func (p ExternalPayload) GetString(name string) (string, bool) {
	v, ok := p[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// PayloadImage is an image entry in an external payload
type PayloadImage struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// PayloadCategoryRef references an external taxonomy entry by its platform id
type PayloadCategoryRef struct {
	ID string `json:"id"`
}

// PayloadAttribute is a custom/dynamic attribute entry in an external payload
type PayloadAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
	Visible bool     `json:"visible"`
}

// PayloadVariant is a variant line in an external payload. Attributes hold
// only the values that differ from the parent product.
type PayloadVariant struct {
	SKU        string            `json:"sku"`
	Price      string            `json:"price,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

// ---------------------------------------------------------------------------
// Connector results
// ---------------------------------------------------------------------------

// CreateResult is the outcome of submitting a create/update to a platform.
// Synchronous platforms return ExternalID; asynchronous platforms return a
// WorkRef to be polled later. Exactly one of the two is set.
type CreateResult struct {
	ExternalID string
	WorkRef    string
}

// IsAsync reports whether the platform acknowledged asynchronously
func (r *CreateResult) IsAsync() bool {
	return r.WorkRef != ""
}

// WorkState is the platform-reported state of an asynchronous operation
type WorkState string

const (
	WorkStateInProgress WorkState = "IN_PROGRESS"
	WorkStateCompleted  WorkState = "COMPLETED"
	WorkStateFailed     WorkState = "FAILED"
)

// WorkStatusReport is the decoded result of polling an asynchronous operation
type WorkStatusReport struct {
	// State is the discriminated platform state
	State WorkState
	// Data is the final response payload, present when completed
	Data json.RawMessage
	// Errors holds the platform's error list, present when failed
	Errors []string
	// ExternalProductID is the product id assigned by the platform, if any
	ExternalProductID string
	// ExternalSKU is the externally visible SKU, if reported
	ExternalSKU string
}

// ExternalAttribute is a custom attribute on an external product
type ExternalAttribute struct {
	Name   string
	Values []string
}

// ExternalProduct is a product pulled from an external platform
type ExternalProduct struct {
	ExternalID  string
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	Weight      decimal.Decimal
	Categories  []string
	Tags        []string
	Images      []PayloadImage
	Attributes  []ExternalAttribute
	// Raw is the original platform document for diagnostics
	Raw json.RawMessage
}

// PriceUpdate is one line of a bulk price/quantity update
type PriceUpdate struct {
	ExternalID string
	SKU        string
	Price      decimal.Decimal
	Quantity   *int
}

// ListingUpdate is one line of a bulk listing-status update
type ListingUpdate struct {
	ExternalID string
	SKU        string
	Live       bool
}

// ---------------------------------------------------------------------------
// ConnectorAdapter port
// ---------------------------------------------------------------------------

// ConnectorAdapter is the uniform contract each external platform fulfils.
// Implementations live in the infrastructure layer and must build an
// immutable request configuration per call from the Connection - never
// shared mutable client state across tenants.
type ConnectorAdapter interface {
	// PlatformCode returns the platform this adapter handles
	PlatformCode() PlatformCode

	// Ping validates the connection's credentials against the platform
	Ping(ctx context.Context, conn *Connection) error

	// Create creates a product on the platform
	Create(ctx context.Context, conn *Connection, payload ExternalPayload) (*CreateResult, error)

	// Update updates an existing product. externalID must be a real platform
	// id; callers must never pass the unlinked placeholder.
	Update(ctx context.Context, conn *Connection, externalID string, payload ExternalPayload) error

	// Delete removes a product from the platform
	Delete(ctx context.Context, conn *Connection, externalID string) error

	// FetchAll pulls a page of products; hasMore signals further pages
	FetchAll(ctx context.Context, conn *Connection, page, pageSize int) (items []ExternalProduct, hasMore bool, err error)

	// PollWork resolves the state of an asynchronous operation
	PollWork(ctx context.Context, conn *Connection, workRef string) (*WorkStatusReport, error)

	// FindOrCreateTaxonomy resolves a category/tag name to the platform's
	// taxonomy id, creating the entry when absent
	FindOrCreateTaxonomy(ctx context.Context, conn *Connection, name string) (string, error)

	// FindOrCreateAttribute resolves an attribute definition on the platform
	FindOrCreateAttribute(ctx context.Context, conn *Connection, name string, options []string) (string, error)

	// UpdatePrices submits a bulk price/quantity update
	UpdatePrices(ctx context.Context, conn *Connection, items []PriceUpdate) (*CreateResult, error)

	// UpdateListings submits a bulk listing-status update
	UpdateListings(ctx context.Context, conn *Connection, items []ListingUpdate) (*CreateResult, error)
}

// ConnectorRegistry provides access to the configured platform adapters
type ConnectorRegistry interface {
	// Get returns the adapter for the given platform code
	Get(code PlatformCode) (ConnectorAdapter, error)

	// List returns all registered adapters
	List() []ConnectorAdapter
}
