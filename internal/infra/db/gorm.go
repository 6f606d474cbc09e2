package db

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"shopapp/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
// 起動直後にDBが立ち上がっていない場合があるので少しだけリトライする。
func Connect(cfg config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dsn := buildDSN(cfg)

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			return gormDB, nil
		}
		lastErr = err
		logger.Warn("db connect failed", "attempt", attempt, "error", err)
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, lastErr
}

func buildDSN(cfg config.Config) string {
	// DATABASE_URL があれば最優先で使う
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB,
	)
}
