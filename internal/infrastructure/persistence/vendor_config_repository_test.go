package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/erp/vatchallan/internal/domain/challan"
)

func TestGormVendorConfigRepository_FindCurrent(t *testing.T) {
	t.Run("returns the configuration", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVendorConfigRepository(db)

		rows := sqlmock.NewRows([]string{"id", "base_url", "client_id", "client_secret", "disabled"}).
			AddRow(uuid.New(), "https://vat.example.gov", "client-1", "secret-1", false)

		mock.ExpectQuery(`SELECT \* FROM "vendor_configurations" ORDER BY created_at ASC,.* LIMIT .*`).
			WithArgs(1).
			WillReturnRows(rows)

		cfg, err := repo.FindCurrent(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, "client-1", cfg.ClientID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to domain error", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVendorConfigRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "vendor_configurations" ORDER BY created_at ASC,.* LIMIT .*`).
			WithArgs(1).
			WillReturnError(gorm.ErrRecordNotFound)

		cfg, err := repo.FindCurrent(context.Background())

		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, challan.ErrConfigNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormVendorConfigRepository_SaveToken(t *testing.T) {
	t.Run("updates only token fields", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVendorConfigRepository(db)

		id := uuid.New()
		mock.ExpectExec(`UPDATE "vendor_configurations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveToken(context.Background(), id, "tok", "COMP-1", time.Now().Add(time.Hour))

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing configuration surfaces as domain error", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormVendorConfigRepository(db)

		mock.ExpectExec(`UPDATE "vendor_configurations" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SaveToken(context.Background(), uuid.New(), "tok", "", time.Now())

		assert.ErrorIs(t, err, challan.ErrConfigNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
