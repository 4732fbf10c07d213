package database

import (
	"os"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/voltlabs/credmarket/internal/models"
)

func TestConnectWithMissingEnvVars(t *testing.T) {
	vars := []string{"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT"}
	saved := map[string]string{}
	for _, v := range vars {
		saved[v] = os.Getenv(v)
		os.Unsetenv(v)
	}
	defer func() {
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}()

	db, err := Connect()
	assert.Error(t, err, "Connect() should fail without database environment variables")
	assert.Nil(t, db)
}

func TestMigrateSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, MigrateSchema(db))

	// All ledger tables exist after migration
	for _, model := range []any{
		&models.Wallet{},
		&models.VentureToken{},
		&models.LiquidityPool{},
		&models.TokenHolding{},
		&models.LiquidityPosition{},
		&models.Trade{},
		&models.LiquidityEvent{},
	} {
		assert.True(t, db.Migrator().HasTable(model), "missing table for %T", model)
	}

	// Migration is idempotent
	require.NoError(t, MigrateSchema(db))
}
