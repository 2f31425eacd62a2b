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

// newMockConnectionRepository creates a GormConnectionRepository with a mocked SQL connection
func newMockConnectionRepository(t *testing.T) (*GormConnectionRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormConnectionRepository(gormDB), mock, mockDB
}

func connectionRows(id, tenantID uuid.UUID, isDefault bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "platform_code", "base_url", "consumer_key", "consumer_secret",
		"is_active", "is_default", "last_synced_at", "created_at", "updated_at",
	}).AddRow(id, tenantID, "WOOCOMMERCE", "https://shop.example.com", "ck", "cs",
		true, isDefault, nil, now, now)
}

func TestGormConnectionRepository_FindByID(t *testing.T) {
	t.Run("finds existing connection", func(t *testing.T) {
		repo, mock, mockDB := newMockConnectionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "platform_connections" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(connectionRows(id, tenantID, true))

		conn, err := repo.FindByID(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, id, conn.ID)
		assert.Equal(t, integration.PlatformCodeWooCommerce, conn.PlatformCode)
		assert.True(t, conn.IsDefault)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to the domain sentinel", func(t *testing.T) {
		repo, mock, mockDB := newMockConnectionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "platform_connections" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		conn, err := repo.FindByID(context.Background(), id)

		assert.Nil(t, conn)
		assert.ErrorIs(t, err, integration.ErrConnectionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormConnectionRepository_ExistsByBaseURL(t *testing.T) {
	repo, mock, mockDB := newMockConnectionRepository(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "platform_connections"`).
		WithArgs(tenantID, "WOOCOMMERCE", "https://shop.example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByBaseURL(context.Background(), tenantID,
		integration.PlatformCodeWooCommerce, "https://shop.example.com")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormConnectionRepository_SetDefault(t *testing.T) {
	t.Run("clears siblings and marks the target in one transaction", func(t *testing.T) {
		repo, mock, mockDB := newMockConnectionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "platform_connections" WHERE id = \$1 AND tenant_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(id, tenantID, 1).
			WillReturnRows(connectionRows(id, tenantID, false))
		mock.ExpectExec(`UPDATE "platform_connections" SET .* WHERE tenant_id = \$\d+ AND platform_code = \$\d+ AND id <> \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE "platform_connections" SET .* WHERE id = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.SetDefault(context.Background(), tenantID, id)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the connection does not belong to the tenant", func(t *testing.T) {
		repo, mock, mockDB := newMockConnectionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		tenantID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "platform_connections" WHERE id = \$1 AND tenant_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(id, tenantID, 1).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectRollback()

		err := repo.SetDefault(context.Background(), tenantID, id)

		assert.ErrorIs(t, err, integration.ErrConnectionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormConnectionRepository_Delete(t *testing.T) {
	t.Run("deleting an unknown connection reports not found", func(t *testing.T) {
		repo, mock, mockDB := newMockConnectionRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM "platform_connections" WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), id)

		assert.ErrorIs(t, err, integration.ErrConnectionNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
