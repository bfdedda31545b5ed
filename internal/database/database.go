package database

import (
	"fmt"
	"strings"

	"investment-platform/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

var DB *gorm.DB

// Connect opens the database for the given driver and stores it in DB.
// For sqlite the dsn is a file path or a "file:...?mode=memory" URI.
func Connect(driver, dsn string) error {
	db, err := Open(driver, dsn)
	if err != nil {
		return err
	}
	DB = db

	zap.L().Info("Database connection established", zap.String("driver", driver))
	return nil
}

// Open returns a new gorm handle without touching the package global
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqliteDialector{Dialector: sqlite.Dialector{DSN: dsn}}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows a single writer; one connection keeps transactions serialized
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// sqliteDialector stores decimal columns as TEXT. With SQLite's NUMERIC
// affinity they would be read and summed as float64.
type sqliteDialector struct {
	sqlite.Dialector
}

func (d sqliteDialector) DataTypeOf(field *schema.Field) string {
	if strings.HasPrefix(strings.ToLower(string(field.DataType)), "decimal") {
		return "text"
	}
	return d.Dialector.DataTypeOf(field)
}

func (d sqliteDialector) Migrator(db *gorm.DB) gorm.Migrator {
	return sqlite.Migrator{Migrator: migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   d,
		CreateIndexAfterCreateTable: true,
	}}}
}

// AllModels lists every table the service owns, grouped in migration order
func AllModels() [][]interface{} {
	return [][]interface{}{
		// core
		{
			&models.User{},
			&models.Transaction{},
			&models.AdminLog{},
		},
		// investments
		{
			&models.InvestmentPlan{},
			&models.Investment{},
			&models.InvestmentValuePoint{},
			&models.InvestmentTransaction{},
		},
		// rewards and referrals
		{
			&models.Reward{},
			&models.RewardPointsEntry{},
			&models.RewardRedemption{},
			&models.Referral{},
			&models.ReferralSetting{},
		},
		// crypto wallet
		{
			&models.AssetConfig{},
			&models.UserAssetBalance{},
			&models.DepositAddress{},
			&models.WithdrawalRequest{},
			&models.CryptoDeposit{},
		},
	}
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate(db *gorm.DB) error {
	for _, group := range AllModels() {
		for _, model := range group {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("migration failed for %T: %w", model, err)
			}
		}
	}

	zap.L().Info("Database migrations completed successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
