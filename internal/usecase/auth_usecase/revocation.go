package auth

import (
	"context"
	"time"

	"app/internal/repository"
)

const (
	revokedAccessPrefix  = "revoked:access:"
	revokedRefreshPrefix = "revoked:refresh:"
)

// RevocationCacheは署名上まだ有効なトークンの失効マーカーを持つ。
// TTL=トークンの残り寿命。自然失効後はマーカー自体が不要なので
// 明示削除はしない。
// 認証ミドルウェアは毎リクエストIsAccessRevokedを呼ぶこと。
type RevocationCache struct {
	cache repository.TTLCache
}

func NewRevocationCache(cache repository.TTLCache) *RevocationCache {
	return &RevocationCache{cache: cache}
}

// アクセストークン（jtiで識別）を失効させる。
func (r *RevocationCache) BlacklistAccess(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// すでに自然失効している。マーカー不要
		return nil
	}
	if err := r.cache.SetWithTTL(ctx, revokedAccessPrefix+jti, "1", ttl); err != nil {
		return internalErr(err)
	}
	return nil
}

func (r *RevocationCache) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok, err := r.cache.Get(ctx, revokedAccessPrefix+jti)
	if err != nil {
		// 判定不能は呼び出し側で拒否（fail closed）
		return false, internalErr(err)
	}
	return ok, nil
}

// リフレッシュトークン（保存ハッシュで識別）を失効させる。
// ローテーション前に明示失効されたトークンを塞ぐ。
func (r *RevocationCache) BlacklistRefresh(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.cache.SetWithTTL(ctx, revokedRefreshPrefix+tokenHash, "1", ttl); err != nil {
		return internalErr(err)
	}
	return nil
}

func (r *RevocationCache) IsRefreshRevoked(ctx context.Context, tokenHash string) (bool, error) {
	_, ok, err := r.cache.Get(ctx, revokedRefreshPrefix+tokenHash)
	if err != nil {
		return false, internalErr(err)
	}
	return ok, nil
}
