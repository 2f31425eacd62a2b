package integration

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Connection Entity
// ---------------------------------------------------------------------------

// Connection is a tenant's credential/endpoint bundle for one external
// marketplace instance. Deleting a connection cascades to its mappings and
// sync records.
type Connection struct {
	// ID is the unique identifier of this connection
	ID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// PlatformCode identifies the platform this connection targets
	PlatformCode PlatformCode
	// BaseURL is the platform endpoint (store URL for WooCommerce,
	// API root for MyDeal)
	BaseURL string
	// ConsumerKey is the API key (WooCommerce consumer key / MyDeal seller id)
	ConsumerKey string
	// ConsumerSecret is the API secret or token
	ConsumerSecret string
	// IsActive indicates whether the connection may be used for syncs
	IsActive bool
	// IsDefault marks the tenant's default connection for the platform.
	// At most one default per tenant per platform.
	IsDefault bool
	// LastSyncedAt is when any sync last ran over this connection
	LastSyncedAt *time.Time
	// CreatedAt is when this connection was created
	CreatedAt time.Time
	// UpdatedAt is when this connection was last updated
	UpdatedAt time.Time
}

// NewConnection creates a new connection after validating its inputs
func NewConnection(tenantID uuid.UUID, code PlatformCode, baseURL, consumerKey, consumerSecret string) (*Connection, error) {
	if tenantID == uuid.Nil {
		return nil, ErrConnectionInvalidTenantID
	}
	if !code.IsValid() {
		return nil, ErrConnectionInvalidPlatform
	}
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Connection{
		ID:             uuid.New(),
		TenantID:       tenantID,
		PlatformCode:   code,
		BaseURL:        normalized,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// normalizeBaseURL validates the endpoint and strips any trailing slash
func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrConnectionInvalidBaseURL
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrConnectionInvalidBaseURL
	}
	return strings.TrimRight(trimmed, "/"), nil
}

// Validate validates the connection
func (c *Connection) Validate() error {
	if c.TenantID == uuid.Nil {
		return ErrConnectionInvalidTenantID
	}
	if !c.PlatformCode.IsValid() {
		return ErrConnectionInvalidPlatform
	}
	if _, err := normalizeBaseURL(c.BaseURL); err != nil {
		return err
	}
	return nil
}

// MarkDefault flags this connection as the tenant's default for its platform
func (c *Connection) MarkDefault() {
	c.IsDefault = true
	c.UpdatedAt = time.Now()
}

// ClearDefault removes the default flag
func (c *Connection) ClearDefault() {
	c.IsDefault = false
	c.UpdatedAt = time.Now()
}

// Deactivate disables the connection for syncs
func (c *Connection) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
}

// TouchSynced records that a sync ran over this connection
func (c *Connection) TouchSynced() {
	now := time.Now()
	c.LastSyncedAt = &now
	c.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// ConnectionRepository Interface
// ---------------------------------------------------------------------------

// ConnectionReader defines the interface for reading connections
type ConnectionReader interface {
	// FindByID finds a connection by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindByTenant finds all connections for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]Connection, error)

	// FindDefault finds the tenant's default connection for a platform
	FindDefault(ctx context.Context, tenantID uuid.UUID, code PlatformCode) (*Connection, error)

	// ExistsByBaseURL checks whether the tenant already has a connection
	// with this base URL on this platform
	ExistsByBaseURL(ctx context.Context, tenantID uuid.UUID, code PlatformCode, baseURL string) (bool, error)
}

// ConnectionWriter defines the interface for persisting connections
type ConnectionWriter interface {
	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// SetDefault atomically marks the connection as default and clears the
	// flag on every sibling of the same tenant and platform
	SetDefault(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// Delete deletes a connection together with its mappings and sync records
	Delete(ctx context.Context, id uuid.UUID) error
}

// ConnectionRepository defines the full interface for connection persistence
type ConnectionRepository interface {
	ConnectionReader
	ConnectionWriter
}
