package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// RefreshTokenStoreはリフレッシュトークンの永続化と
// 1回限りのローテーションを担う。
// 書き込みは全てTransactionManager越し＝途中失敗は全体ロールバック。
type RefreshTokenStore struct {
	tx    repository.TransactionManager
	idGen IDGenerator
	clock Clock
}

func NewRefreshTokenStore(tx repository.TransactionManager, idGen IDGenerator, clock Clock) *RefreshTokenStore {
	return &RefreshTokenStore{
		tx:    tx,
		idGen: idGen,
		clock: clock,
	}
}

// Storeは有効なレコードを1件作る（ログイン/登録時）。
func (s *RefreshTokenStore) Store(ctx context.Context, userID string, tokenValue string, ttl time.Duration) error {
	now := s.clock.Now()

	record := &model.RefreshToken{
		ID:        s.idGen.NewID(),
		UserID:    userID,
		TokenHash: HashToken(tokenValue),
		ExpiresAt: now.Add(ttl),
		IsActive:  true,
		CreatedAt: now,
	}

	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		return r.RefreshTokens().Create(ctx, record)
	})
	if err != nil {
		return internalErr(err)
	}
	return nil
}

// ValidateAndRotateは提示トークンを検証し、同一トランザクションで
// (a)旧レコードの無効化と(b)新レコードの作成を行う。両方commitされるか、
// どちらもされないか。
// 同じトークンで同時に2回呼ばれたら、is_activeの条件付き反転に
// 勝った1回だけが成功し、もう1回はErrInvalidRefreshToken。
func (s *RefreshTokenStore) ValidateAndRotate(ctx context.Context, tokenValue string, newTokenValue string, newTTL time.Duration) (string, error) {
	now := s.clock.Now()

	var userID string

	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		record, err := r.RefreshTokens().FindByTokenHash(ctx, HashToken(tokenValue))
		if err != nil {
			return err
		}

		if !record.IsActive {
			return repository.ErrRefreshTokenNotFound
		}
		if !record.ExpiresAt.After(now) {
			return repository.ErrRefreshTokenNotFound
		}

		// 競争したリクエストはここで負ける（0件更新）
		if err := r.RefreshTokens().Deactivate(ctx, record.ID); err != nil {
			return err
		}

		replacement := &model.RefreshToken{
			ID:        s.idGen.NewID(),
			UserID:    record.UserID,
			TokenHash: HashToken(newTokenValue),
			ExpiresAt: now.Add(newTTL),
			IsActive:  true,
			CreatedAt: now,
		}
		if err := r.RefreshTokens().Create(ctx, replacement); err != nil {
			return err
		}

		userID = record.UserID
		return nil
	})

	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// 不存在/無効/期限切れは1種類に畳む（どれかは漏らさない）
			return "", ErrInvalidRefreshToken
		}
		return "", internalErr(err)
	}

	return userID, nil
}

// RevokeAllは指定ユーザーの有効レコードを全て無効化する。
// ログアウトと「全端末からサインアウト」で使う。
func (s *RefreshTokenStore) RevokeAll(ctx context.Context, userID string) error {
	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		return r.RefreshTokens().DeactivateAllByUserID(ctx, userID)
	})
	if err != nil {
		return internalErr(err)
	}
	return nil
}

// CleanupExpiredは期限切れレコードを掃除する。失敗しても致命ではない。
func (s *RefreshTokenStore) CleanupExpired(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		n, err := r.RefreshTokens().DeleteExpired(ctx, s.clock.Now())
		deleted = n
		return err
	})
	if err != nil {
		return 0, internalErr(err)
	}
	return deleted, nil
}

// HashTokenは保存用ハッシュを作る（平文トークンはDBに置かない）。
func HashToken(tokenValue string) string {
	sum := sha256.Sum256([]byte(tokenValue))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
