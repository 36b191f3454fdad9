package db

import (
	"fmt"

	"app/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect はDBに接続して *gorm.DB を返す。
// DATABASE_URLがあればそれを使い、なければPOSTGRES_*から組み立てる。
func Connect(cfg config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.PostgresHost, cfg.PostgresPort,
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB,
		)
	}

	// TranslateError: unique違反をgorm.ErrDuplicatedKeyとして受けるため
	return gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
}
