package database

import (
	"fmt"
	"os"
	"time"

	"github.com/voltlabs/credmarket/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect() (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		PrepareStmt:    true,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := MigrateSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

// MigrateSchema creates the ledger tables and the indexes behind the common
// query paths. Exported so tests can run the same schema against an in-memory
// store.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Wallet{},
		&models.VentureToken{},
		&models.LiquidityPool{},
		&models.TokenHolding{},
		&models.LiquidityPosition{},
		&models.Trade{},
		&models.LiquidityEvent{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Composite indexes for the audit-trail read paths
	db.Exec("CREATE INDEX IF NOT EXISTS idx_trades_pool_created ON trades(pool_id, created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_liquidity_events_pool_created ON liquidity_events(pool_id, created_at)")

	return nil
}
