package integration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// MappingDirection
// ---------------------------------------------------------------------------

// MappingDirection identifies which way a field mapping applies
type MappingDirection string

const (
	// DirectionExport maps internal fields onto the platform schema
	DirectionExport MappingDirection = "EXPORT"
	// DirectionImport maps platform fields onto internal attributes
	DirectionImport MappingDirection = "IMPORT"
)

// IsValid returns true if the direction is valid
func (d MappingDirection) IsValid() bool {
	return d == DirectionExport || d == DirectionImport
}

// String returns the string representation of MappingDirection
func (d MappingDirection) String() string {
	return string(d)
}

// WildcardAttribute is the sentinel marker in an import mapping's attribute
// correspondence. When present as both key and value, every external custom
// attribute is auto-mapped under its own name.
const WildcardAttribute = "all"

// ---------------------------------------------------------------------------
// FieldMapping Entity
// ---------------------------------------------------------------------------

// FieldMapping is the per-connection, versioned field/attribute
// correspondence configuration for one sync direction. At most one mapping
// per (connection, direction) is active at any time; activating one
// deactivates its siblings atomically.
type FieldMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// ConnectionID is the connection this mapping belongs to
	ConnectionID uuid.UUID
	// Direction is export or import
	Direction MappingDirection
	// SelectedFields is the ordered set of internal field names selected
	// for this direction
	SelectedFields []string
	// FieldCorrespondence maps internal name to external name for export,
	// external name to internal name for import
	FieldCorrespondence map[string]string
	// AttributeCorrespondence maps external attribute names to internal
	// attribute names (import only). The wildcard marker auto-maps all.
	AttributeCorrespondence map[string]string
	// IsActive indicates whether this mapping governs its direction
	IsActive bool
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
	// UpdatedAt is when this mapping was last updated
	UpdatedAt time.Time
}

// Fields an export mapping can never omit: the external platform requires
// them to key the record.
var requiredExportFields = []string{FieldSKU, FieldName}

// NewFieldMapping creates a new field mapping after validating its inputs
func NewFieldMapping(
	tenantID uuid.UUID,
	connectionID uuid.UUID,
	direction MappingDirection,
	selectedFields []string,
	fieldCorrespondence map[string]string,
	attributeCorrespondence map[string]string,
) (*FieldMapping, error) {
	if tenantID == uuid.Nil {
		return nil, ErrConnectionInvalidTenantID
	}
	if connectionID == uuid.Nil {
		return nil, shared.NewValidationError("connection_id", "is required")
	}
	if !direction.IsValid() {
		return nil, ErrMappingInvalidDirection
	}

	m := &FieldMapping{
		ID:                      uuid.New(),
		TenantID:                tenantID,
		ConnectionID:            connectionID,
		Direction:               direction,
		SelectedFields:          dedupeFields(selectedFields),
		FieldCorrespondence:     copyCorrespondence(fieldCorrespondence),
		AttributeCorrespondence: copyCorrespondence(attributeCorrespondence),
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate validates the mapping, including the export required-field rule
func (m *FieldMapping) Validate() error {
	if !m.Direction.IsValid() {
		return ErrMappingInvalidDirection
	}
	if m.Direction == DirectionExport {
		for _, required := range requiredExportFields {
			if !m.HasField(required) {
				return shared.NewValidationError(required, "must be included in the selected fields of an export mapping")
			}
		}
	}
	return nil
}

// HasField reports whether the field is part of the selection
func (m *FieldMapping) HasField(name string) bool {
	for _, f := range m.SelectedFields {
		if f == name {
			return true
		}
	}
	return false
}

// ExternalName resolves the external name for an internal field, falling
// back to the given default when the correspondence has no entry.
func (m *FieldMapping) ExternalName(internalName, defaultName string) string {
	if mapped, ok := m.FieldCorrespondence[internalName]; ok && mapped != "" {
		return mapped
	}
	return defaultName
}

// InternalName resolves the internal name for an external field (import
// direction); ok is false when the field is not mapped.
func (m *FieldMapping) InternalName(externalName string) (string, bool) {
	mapped, ok := m.FieldCorrespondence[externalName]
	if !ok || mapped == "" {
		return "", false
	}
	return mapped, true
}

// MapsAllAttributes reports whether the attribute correspondence carries the
// universal wildcard marker.
func (m *FieldMapping) MapsAllAttributes() bool {
	v, ok := m.AttributeCorrespondence[WildcardAttribute]
	return ok && v == WildcardAttribute
}

// MapAttribute resolves the internal name for an external attribute. Under
// the wildcard every attribute maps to its own name; otherwise only
// explicitly listed attributes map.
func (m *FieldMapping) MapAttribute(externalName string) (string, bool) {
	if m.MapsAllAttributes() {
		return externalName, true
	}
	mapped, ok := m.AttributeCorrespondence[externalName]
	if !ok || mapped == "" {
		return "", false
	}
	return mapped, true
}

// Activate flags this mapping as the active one for its direction. The
// repository enforces sibling deactivation in the same transaction.
func (m *FieldMapping) Activate() {
	m.IsActive = true
	m.UpdatedAt = time.Now()
}

// Deactivate clears the active flag
func (m *FieldMapping) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = time.Now()
}

// UpdateSelection replaces the selected fields and correspondences
func (m *FieldMapping) UpdateSelection(selectedFields []string, fieldCorrespondence, attributeCorrespondence map[string]string) error {
	prev := m.SelectedFields
	m.SelectedFields = dedupeFields(selectedFields)
	if err := m.Validate(); err != nil {
		m.SelectedFields = prev
		return err
	}
	m.FieldCorrespondence = copyCorrespondence(fieldCorrespondence)
	m.AttributeCorrespondence = copyCorrespondence(attributeCorrespondence)
	m.UpdatedAt = time.Now()
	return nil
}

// dedupeFields preserves order while dropping duplicates and blanks
func dedupeFields(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

func copyCorrespondence(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// FieldMappingRepository Interface
// ---------------------------------------------------------------------------

// FieldMappingReader defines the interface for reading field mappings
type FieldMappingReader interface {
	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FieldMapping, error)

	// FindByConnection finds all mappings of a direction for a connection
	FindByConnection(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction MappingDirection) ([]FieldMapping, error)

	// FindActive finds the single active mapping of a direction for a
	// connection; ErrMappingNoActive when none is active.
	FindActive(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction MappingDirection) (*FieldMapping, error)
}

// FieldMappingWriter defines the interface for persisting field mappings
type FieldMappingWriter interface {
	// Save creates or updates a mapping
	Save(ctx context.Context, mapping *FieldMapping) error

	// ActivateExclusive atomically activates the mapping and deactivates
	// every sibling of the same connection and direction. There is no
	// window in which two mappings of one direction are active.
	ActivateExclusive(ctx context.Context, mapping *FieldMapping) error

	// Delete deletes a mapping
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByConnection deletes all mappings for a connection
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error
}

// FieldMappingRepository defines the full interface for mapping persistence
type FieldMappingRepository interface {
	FieldMappingReader
	FieldMappingWriter
}
