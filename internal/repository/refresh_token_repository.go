package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// リフレッシュトークンの保存・取得・失効
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	// is_active=trueの行だけをfalseに反転する。
	// 0件更新ならErrRefreshTokenNotFound（すでに使用済み/存在しない）。
	Deactivate(ctx context.Context, tokenID string) error
	// 指定ユーザーの有効なトークンを全て無効化する。
	DeactivateAllByUserID(ctx context.Context, userID string) error
	// 期限切れレコードの掃除。削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
