package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pimsync/backend/internal/domain/integration"
)

// ConnectionService manages a tenant's platform connections
type ConnectionService interface {
	// Create validates the credentials against the platform and persists the
	// connection. The tenant's first connection for a platform becomes the
	// default automatically.
	Create(ctx context.Context, tenantID uuid.UUID, code integration.PlatformCode, baseURL, consumerKey, consumerSecret string) (*integration.Connection, error)

	// Get retrieves a connection owned by the tenant
	Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.Connection, error)

	// List lists the tenant's connections
	List(ctx context.Context, tenantID uuid.UUID) ([]integration.Connection, error)

	// SetDefault atomically marks a connection as the tenant's default for
	// its platform
	SetDefault(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// Verify re-validates a stored connection's credentials
	Verify(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error

	// Delete removes a connection together with its mappings and sync records
	Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error
}

// ConnectionServiceImpl implements ConnectionService
type ConnectionServiceImpl struct {
	connRepo    integration.ConnectionRepository
	mappingRepo integration.FieldMappingRepository
	recordRepo  integration.SyncRecordRepository
	connectors  integration.ConnectorRegistry
	logger      *zap.Logger
}

// NewConnectionService creates a new ConnectionServiceImpl
func NewConnectionService(
	connRepo integration.ConnectionRepository,
	mappingRepo integration.FieldMappingRepository,
	recordRepo integration.SyncRecordRepository,
	connectors integration.ConnectorRegistry,
	logger *zap.Logger,
) *ConnectionServiceImpl {
	return &ConnectionServiceImpl{
		connRepo:    connRepo,
		mappingRepo: mappingRepo,
		recordRepo:  recordRepo,
		connectors:  connectors,
		logger:      logger,
	}
}

// Create validates credentials against the platform before persisting
func (s *ConnectionServiceImpl) Create(
	ctx context.Context,
	tenantID uuid.UUID,
	code integration.PlatformCode,
	baseURL, consumerKey, consumerSecret string,
) (*integration.Connection, error) {
	input := connectionInput{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
	}
	if err := checkInput(input); err != nil {
		return nil, err
	}

	conn, err := integration.NewConnection(tenantID, code, baseURL, consumerKey, consumerSecret)
	if err != nil {
		return nil, err
	}

	exists, err := s.connRepo.ExistsByBaseURL(ctx, tenantID, code, conn.BaseURL)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, integration.ErrConnectionDuplicateURL
	}

	adapter, err := s.connectors.Get(code)
	if err != nil {
		return nil, err
	}
	if err := adapter.Ping(ctx, conn); err != nil {
		s.logger.Warn("connection credential check failed",
			zap.String("platform", code.String()),
			zap.String("base_url", conn.BaseURL),
			zap.Error(err))
		return nil, err
	}

	// first connection for the platform becomes the default
	if _, err := s.connRepo.FindDefault(ctx, tenantID, code); err != nil {
		if !errors.Is(err, integration.ErrConnectionNotFound) {
			return nil, err
		}
		conn.MarkDefault()
	}

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform", code.String()))
	return conn, nil
}

// Get retrieves a connection by ID
func (s *ConnectionServiceImpl) Get(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*integration.Connection, error) {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.TenantID != tenantID {
		return nil, integration.ErrConnectionNotFound
	}
	return conn, nil
}

// List lists the tenant's connections
func (s *ConnectionServiceImpl) List(ctx context.Context, tenantID uuid.UUID) ([]integration.Connection, error) {
	return s.connRepo.FindByTenant(ctx, tenantID)
}

// SetDefault marks a connection as the tenant's default for its platform
func (s *ConnectionServiceImpl) SetDefault(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	return s.connRepo.SetDefault(ctx, tenantID, id)
}

// Verify re-validates a stored connection's credentials
func (s *ConnectionServiceImpl) Verify(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	conn, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	adapter, err := s.connectors.Get(conn.PlatformCode)
	if err != nil {
		return err
	}
	return adapter.Ping(ctx, conn)
}

// Delete removes the connection and cascades to its mappings and sync records
func (s *ConnectionServiceImpl) Delete(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	conn, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.mappingRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.recordRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.connRepo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	s.logger.Info("connection deleted",
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform", conn.PlatformCode.String()))
	return nil
}

// Ensure ConnectionServiceImpl implements ConnectionService
var _ ConnectionService = (*ConnectionServiceImpl)(nil)
