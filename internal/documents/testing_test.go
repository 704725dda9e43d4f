package documents

import (
	"testing"

	"github.com/domeo/domeo-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var documentTables = []any{
	&models.Quote{},
	&models.Invoice{},
	&models.Order{},
	&models.SupplierOrder{},
	&models.StatusHistory{},
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrator().DropTable(documentTables...))
	require.NoError(t, db.AutoMigrate(documentTables...))
	return db
}
