package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定。起動時に1回だけ作り、以後は不変。
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // 完全なDSN。設定時はPOSTGRES_*より優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）

	RedisAddr     string // 共有キャッシュ（host:port）
	RedisPassword string
	RedisDB       int

	// アクセス用とリフレッシュ用は必ず別のシークレット
	JWTAccessSecret  string
	JWTRefreshSecret string

	AccessTokenTTL  time.Duration // アクセストークン有効期限（15m）
	RefreshTokenTTL time.Duration // リフレッシュトークン有効期限（168h）

	MaxLoginAttempts int           // ロックアウト発動のしきい値（5）
	LockoutDuration  time.Duration // ロックアウト継続時間（15m）

	GoEnv    string // dev/prod
	LogLevel string // info/warn/error
}

// Loadは環境変数からConfigを作る
func Load() (Config, error) {
	pgPort, err := atoiEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	redisDB, err := atoiEnv("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}

	maxAttempts, err := atoiEnv("MAX_LOGIN_ATTEMPTS", 5)
	if err != nil {
		return Config{}, err
	}
	lockout, err := durationEnv("LOCKOUT_DURATION", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTAccessSecret:  os.Getenv("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),

		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		MaxLoginAttempts: maxAttempts,
		LockoutDuration:  lockout,

		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),
	}

	//必須チェック
	if cfg.JWTAccessSecret == "" {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}
	// 同じ値だとアクセストークンをリフレッシュとして使い回せてしまう
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return Config{}, fmt.Errorf("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.MaxLoginAttempts <= 0 {
		return Config{}, fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration (e.g. 15m): %w", key, err)
	}
	return d, nil
}
