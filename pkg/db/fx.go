package db

import (
	"fmt"
	"time"

	"github.com/domaehub/settle/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects gorm using the configured dialect and pool settings.
func Open(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)

	return conn, nil
}

// LockSuffix returns the row-lock clause for read-modify-write queries.
// SQLite has a single writer and rejects FOR UPDATE, so it gets none.
func LockSuffix(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	if conn.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE"
}
