package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pimsync/backend/internal/domain/catalog"
	"github.com/pimsync/backend/internal/domain/integration"
)

// MockProductReader is a mock implementation of catalog.ProductReader
type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) GetProductWithRelations(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*catalog.ProductSnapshot, error) {
	args := m.Called(ctx, id, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductSnapshot), args.Error(1)
}

// MockAssetResolver is a mock implementation of catalog.AssetResolver
type MockAssetResolver struct {
	mock.Mock
}

func (m *MockAssetResolver) Resolve(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindOrCreate(ctx context.Context, name string, tenantID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, name, tenantID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockCatalogWriter is a mock implementation of catalog.CatalogWriter
type MockCatalogWriter struct {
	mock.Mock
}

func (m *MockCatalogWriter) FindBySKU(ctx context.Context, sku string, tenantID uuid.UUID) (*catalog.ProductSnapshot, error) {
	args := m.Called(ctx, sku, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductSnapshot), args.Error(1)
}

func (m *MockCatalogWriter) CreateProduct(ctx context.Context, draft *catalog.ProductDraft) (uuid.UUID, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockCatalogWriter) UpdateProduct(ctx context.Context, id uuid.UUID, draft *catalog.ProductDraft) error {
	args := m.Called(ctx, id, draft)
	return args.Error(0)
}

func (m *MockCatalogWriter) ApplyAttributes(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, assignments []catalog.AttributeAssignment) error {
	args := m.Called(ctx, id, tenantID, assignments)
	return args.Error(0)
}

// MockConnectionRepository is a mock implementation of integration.ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) ([]integration.Connection, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindDefault(ctx context.Context, tenantID uuid.UUID, code integration.PlatformCode) (*integration.Connection, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) ExistsByBaseURL(ctx context.Context, tenantID uuid.UUID, code integration.PlatformCode, baseURL string) (bool, error) {
	args := m.Called(ctx, tenantID, code, baseURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *integration.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) SetDefault(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFieldMappingRepository is a mock implementation of integration.FieldMappingRepository
type MockFieldMappingRepository struct {
	mock.Mock
}

func (m *MockFieldMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.FieldMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.FieldMapping), args.Error(1)
}

func (m *MockFieldMappingRepository) FindByConnection(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction integration.MappingDirection) ([]integration.FieldMapping, error) {
	args := m.Called(ctx, tenantID, connectionID, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.FieldMapping), args.Error(1)
}

func (m *MockFieldMappingRepository) FindActive(ctx context.Context, tenantID uuid.UUID, connectionID uuid.UUID, direction integration.MappingDirection) (*integration.FieldMapping, error) {
	args := m.Called(ctx, tenantID, connectionID, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.FieldMapping), args.Error(1)
}

func (m *MockFieldMappingRepository) Save(ctx context.Context, mapping *integration.FieldMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockFieldMappingRepository) ActivateExclusive(ctx context.Context, mapping *integration.FieldMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockFieldMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFieldMappingRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

// MockSyncRecordRepository is a mock implementation of integration.SyncRecordRepository
type MockSyncRecordRepository struct {
	mock.Mock
}

func (m *MockSyncRecordRepository) GetByProduct(ctx context.Context, connectionID, productID uuid.UUID) (*integration.SyncRecord, error) {
	args := m.Called(ctx, connectionID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncRecord), args.Error(1)
}

func (m *MockSyncRecordRepository) GetByExternalID(ctx context.Context, connectionID uuid.UUID, externalID string) (*integration.SyncRecord, error) {
	args := m.Called(ctx, connectionID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncRecord), args.Error(1)
}

func (m *MockSyncRecordRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID, status *integration.SyncStatus) ([]integration.SyncRecord, error) {
	args := m.Called(ctx, connectionID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncRecord), args.Error(1)
}

func (m *MockSyncRecordRepository) Save(ctx context.Context, record *integration.SyncRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSyncRecordRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockSyncRecordRepository) Unlink(ctx context.Context, connectionID, productID uuid.UUID) error {
	args := m.Called(ctx, connectionID, productID)
	return args.Error(0)
}

// MockWorkItemRepository is a mock implementation of integration.WorkItemRepository
type MockWorkItemRepository struct {
	mock.Mock
}

func (m *MockWorkItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.WorkItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WorkItem), args.Error(1)
}

func (m *MockWorkItemRepository) FindByExternalWorkID(ctx context.Context, tenantID uuid.UUID, externalWorkID string) (*integration.WorkItem, error) {
	args := m.Called(ctx, tenantID, externalWorkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WorkItem), args.Error(1)
}

func (m *MockWorkItemRepository) FindPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]integration.WorkItem, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.WorkItem), args.Error(1)
}

func (m *MockWorkItemRepository) Save(ctx context.Context, item *integration.WorkItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockWorkItemRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockConnectorAdapter is a mock implementation of integration.ConnectorAdapter
type MockConnectorAdapter struct {
	mock.Mock
	code integration.PlatformCode
}

func (m *MockConnectorAdapter) PlatformCode() integration.PlatformCode {
	if m.code != "" {
		return m.code
	}
	return integration.PlatformCodeWooCommerce
}

func (m *MockConnectorAdapter) Ping(ctx context.Context, conn *integration.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectorAdapter) Create(ctx context.Context, conn *integration.Connection, payload integration.ExternalPayload) (*integration.CreateResult, error) {
	args := m.Called(ctx, conn, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CreateResult), args.Error(1)
}

func (m *MockConnectorAdapter) Update(ctx context.Context, conn *integration.Connection, externalID string, payload integration.ExternalPayload) error {
	args := m.Called(ctx, conn, externalID, payload)
	return args.Error(0)
}

func (m *MockConnectorAdapter) Delete(ctx context.Context, conn *integration.Connection, externalID string) error {
	args := m.Called(ctx, conn, externalID)
	return args.Error(0)
}

func (m *MockConnectorAdapter) FetchAll(ctx context.Context, conn *integration.Connection, page, pageSize int) ([]integration.ExternalProduct, bool, error) {
	args := m.Called(ctx, conn, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]integration.ExternalProduct), args.Bool(1), args.Error(2)
}

func (m *MockConnectorAdapter) PollWork(ctx context.Context, conn *integration.Connection, workRef string) (*integration.WorkStatusReport, error) {
	args := m.Called(ctx, conn, workRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.WorkStatusReport), args.Error(1)
}

func (m *MockConnectorAdapter) FindOrCreateTaxonomy(ctx context.Context, conn *integration.Connection, name string) (string, error) {
	args := m.Called(ctx, conn, name)
	return args.String(0), args.Error(1)
}

func (m *MockConnectorAdapter) FindOrCreateAttribute(ctx context.Context, conn *integration.Connection, name string, options []string) (string, error) {
	args := m.Called(ctx, conn, name, options)
	return args.String(0), args.Error(1)
}

func (m *MockConnectorAdapter) UpdatePrices(ctx context.Context, conn *integration.Connection, items []integration.PriceUpdate) (*integration.CreateResult, error) {
	args := m.Called(ctx, conn, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CreateResult), args.Error(1)
}

func (m *MockConnectorAdapter) UpdateListings(ctx context.Context, conn *integration.Connection, items []integration.ListingUpdate) (*integration.CreateResult, error) {
	args := m.Called(ctx, conn, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CreateResult), args.Error(1)
}

// stubRegistry returns the same adapter for every platform code
type stubRegistry struct {
	adapter integration.ConnectorAdapter
}

func (r *stubRegistry) Get(integration.PlatformCode) (integration.ConnectorAdapter, error) {
	return r.adapter, nil
}

func (r *stubRegistry) List() []integration.ConnectorAdapter {
	return []integration.ConnectorAdapter{r.adapter}
}

// memoryGuard is an in-process idempotency store for tests
type memoryGuard struct {
	keys map[string]struct{}
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{keys: make(map[string]struct{})}
}

func (g *memoryGuard) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = struct{}{}
	return true, nil
}

func (g *memoryGuard) IsProcessed(_ context.Context, key string) (bool, error) {
	_, ok := g.keys[key]
	return ok, nil
}

func (g *memoryGuard) Release(_ context.Context, key string) error {
	delete(g.keys, key)
	return nil
}

func (g *memoryGuard) Close() error { return nil }

// Ensure mocks implement their interfaces
var (
	_ catalog.ProductReader             = (*MockProductReader)(nil)
	_ catalog.AssetResolver             = (*MockAssetResolver)(nil)
	_ catalog.CategoryRepository        = (*MockCategoryRepository)(nil)
	_ catalog.CatalogWriter             = (*MockCatalogWriter)(nil)
	_ integration.ConnectionRepository  = (*MockConnectionRepository)(nil)
	_ integration.FieldMappingRepository = (*MockFieldMappingRepository)(nil)
	_ integration.SyncRecordRepository  = (*MockSyncRecordRepository)(nil)
	_ integration.WorkItemRepository    = (*MockWorkItemRepository)(nil)
	_ integration.ConnectorAdapter      = (*MockConnectorAdapter)(nil)
	_ integration.ConnectorRegistry     = (*stubRegistry)(nil)
)
