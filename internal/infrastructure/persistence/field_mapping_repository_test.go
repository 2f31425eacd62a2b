package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pimsync/backend/internal/domain/integration"
)

// newMockFieldMappingRepository creates a GormFieldMappingRepository with a mocked SQL connection
func newMockFieldMappingRepository(t *testing.T) (*GormFieldMappingRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormFieldMappingRepository(gormDB), mock, mockDB
}

func fieldMappingRows(id, tenantID, connectionID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "connection_id", "direction",
		"selected_fields", "field_correspondence", "attribute_correspondence",
		"is_active", "created_at", "updated_at",
	}).AddRow(id, tenantID, connectionID, "EXPORT",
		`["sku","name","price"]`, `{"price":"regular_price"}`, `{"colour":"pa_colour"}`,
		true, now, now)
}

func TestGormFieldMappingRepository_FindActive(t *testing.T) {
	t.Run("parses the JSON columns into the domain mapping", func(t *testing.T) {
		repo, mock, mockDB := newMockFieldMappingRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()
		connectionID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "field_mappings" WHERE tenant_id = \$1 AND connection_id = \$2 AND direction = \$3 AND is_active = \$4 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, connectionID, "EXPORT", true, 1).
			WillReturnRows(fieldMappingRows(id, tenantID, connectionID))

		mapping, err := repo.FindActive(context.Background(), tenantID, connectionID, integration.DirectionExport)

		require.NoError(t, err)
		assert.Equal(t, []string{"sku", "name", "price"}, mapping.SelectedFields)
		assert.Equal(t, "regular_price", mapping.FieldCorrespondence["price"])
		assert.Equal(t, "pa_colour", mapping.AttributeCorrespondence["colour"])
		assert.True(t, mapping.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active mapping yields the dedicated sentinel", func(t *testing.T) {
		repo, mock, mockDB := newMockFieldMappingRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		connectionID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "field_mappings"`).
			WillReturnError(gorm.ErrRecordNotFound)

		mapping, err := repo.FindActive(context.Background(), tenantID, connectionID, integration.DirectionExport)

		assert.Nil(t, mapping)
		assert.ErrorIs(t, err, integration.ErrMappingNoActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormFieldMappingRepository_ActivateExclusive(t *testing.T) {
	repo, mock, mockDB := newMockFieldMappingRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mapping, err := integration.NewFieldMapping(tenantID, uuid.New(), integration.DirectionExport,
		[]string{"sku", "name"}, nil, nil)
	require.NoError(t, err)
	mapping.Activate()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "field_mappings" SET .* WHERE connection_id = \$\d+ AND direction = \$\d+ AND id <> \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "field_mappings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.ActivateExclusive(context.Background(), mapping)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
