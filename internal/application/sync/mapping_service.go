package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/pimsync/backend/internal/domain/integration"
)

// MappingService manages per-connection field mappings
type MappingService interface {
	// Create validates connection ownership and the mapping's field rules,
	// then persists it inactive
	Create(ctx context.Context, tenantID, connectionID uuid.UUID, direction integration.MappingDirection, selectedFields []string, fieldCorrespondence, attributeCorrespondence map[string]string) (*integration.FieldMapping, error)

	// Get retrieves a mapping owned by the tenant
	Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.FieldMapping, error)

	// List lists a connection's mappings for one direction
	List(ctx context.Context, tenantID, connectionID uuid.UUID, direction integration.MappingDirection) ([]integration.FieldMapping, error)

	// GetActive returns the single active mapping for a direction
	GetActive(ctx context.Context, tenantID, connectionID uuid.UUID, direction integration.MappingDirection) (*integration.FieldMapping, error)

	// Update replaces a mapping's selection and correspondences
	Update(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, selectedFields []string, fieldCorrespondence, attributeCorrespondence map[string]string) (*integration.FieldMapping, error)

	// Activate makes the mapping the active one for its direction,
	// atomically deactivating its siblings
	Activate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// Delete deletes a mapping
	Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
}

// MappingServiceImpl implements MappingService
type MappingServiceImpl struct {
	mappingRepo integration.FieldMappingRepository
	connRepo    integration.ConnectionReader
}

// NewMappingService creates a new MappingServiceImpl
func NewMappingService(mappingRepo integration.FieldMappingRepository, connRepo integration.ConnectionReader) *MappingServiceImpl {
	return &MappingServiceImpl{
		mappingRepo: mappingRepo,
		connRepo:    connRepo,
	}
}

// Create creates a new inactive mapping for a connection the tenant owns
func (s *MappingServiceImpl) Create(
	ctx context.Context,
	tenantID, connectionID uuid.UUID,
	direction integration.MappingDirection,
	selectedFields []string,
	fieldCorrespondence, attributeCorrespondence map[string]string,
) (*integration.FieldMapping, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.TenantID != tenantID {
		return nil, integration.ErrConnectionNotFound
	}

	mapping, err := integration.NewFieldMapping(tenantID, connectionID, direction, selectedFields, fieldCorrespondence, attributeCorrespondence)
	if err != nil {
		return nil, err
	}
	if err := s.mappingRepo.Save(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Get retrieves a mapping by ID
func (s *MappingServiceImpl) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.FieldMapping, error) {
	mapping, err := s.mappingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mapping.TenantID != tenantID {
		return nil, integration.ErrMappingNotFound
	}
	return mapping, nil
}

// List lists a connection's mappings for one direction
func (s *MappingServiceImpl) List(ctx context.Context, tenantID, connectionID uuid.UUID, direction integration.MappingDirection) ([]integration.FieldMapping, error) {
	return s.mappingRepo.FindByConnection(ctx, tenantID, connectionID, direction)
}

// GetActive returns the single active mapping for a direction
func (s *MappingServiceImpl) GetActive(ctx context.Context, tenantID, connectionID uuid.UUID, direction integration.MappingDirection) (*integration.FieldMapping, error) {
	return s.mappingRepo.FindActive(ctx, tenantID, connectionID, direction)
}

// Update replaces the mapping's selection and correspondences
func (s *MappingServiceImpl) Update(
	ctx context.Context,
	tenantID uuid.UUID,
	id uuid.UUID,
	selectedFields []string,
	fieldCorrespondence, attributeCorrespondence map[string]string,
) (*integration.FieldMapping, error) {
	mapping, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := mapping.UpdateSelection(selectedFields, fieldCorrespondence, attributeCorrespondence); err != nil {
		return nil, err
	}
	if err := s.mappingRepo.Save(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Activate makes the mapping active, deactivating its siblings atomically
func (s *MappingServiceImpl) Activate(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	mapping, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	mapping.Activate()
	return s.mappingRepo.ActivateExclusive(ctx, mapping)
}

// Delete deletes a mapping
func (s *MappingServiceImpl) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.mappingRepo.Delete(ctx, id)
}

// Ensure MappingServiceImpl implements MappingService
var _ MappingService = (*MappingServiceImpl)(nil)
