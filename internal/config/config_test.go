package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

// Test: 必須だけ与えればデフォルトで埋まる
func TestLoad_Defaults(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
}

// Test: 環境変数で上書きできる
func TestLoad_Overrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "3")
	t.Setenv("LOCKOUT_DURATION", "30m")
	t.Setenv("DATABASE_URL", "postgres://app:secret@db:5432/app?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, 30*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, "postgres://app:secret@db:5432/app?sslmode=disable", cfg.DatabaseURL)
}

// Test: シークレット未設定・同値はエラー
func TestLoad_SecretValidation(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_ACCESS_SECRET")

	t.Setenv("JWT_ACCESS_SECRET", "same-secret")
	t.Setenv("JWT_REFRESH_SECRET", "same-secret")
	_, err = Load()
	assert.ErrorContains(t, err, "must differ")
}

// Test: 壊れた値は起動時に弾く
func TestLoad_InvalidValues(t *testing.T) {
	setRequiredSecrets(t)

	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	_, err := Load()
	assert.ErrorContains(t, err, "ACCESS_TOKEN_TTL")

	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "MAX_LOGIN_ATTEMPTS")
}
