package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// emailのunique制約違反
var ErrDuplicateEmail = errors.New("email already taken")

// ユーザーディレクトリとの約束。
// 認証で使う範囲だけを切り出している（CRUD本体は外部）。
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID string) (*model.User, error)
	//メールからユーザーを一件取得する。見つからなければErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ユーザー情報の更新=>最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１（発行済みアクセストークンの一括無効化）
	IncrementTokenVersion(ctx context.Context, userID string) error
}
