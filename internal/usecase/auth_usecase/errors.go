package auth

import (
	"errors"
	"fmt"
)

var (
	//401 emailまたはパスワードが違う（どちらかは区別しない）
	ErrInvalidCredentials = errors.New("invalid credentials")
	//423 連続失敗でロックアウト中
	ErrAccountLocked = errors.New("account locked")
	//409 emailが使用済み
	ErrUserAlreadyExists = errors.New("user already exists")
	//401 リフレッシュトークンが無効（不存在/期限切れ/使用済み/失効のどれかは区別しない）
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	//401 アクセストークンの署名・期限が不正（ミドルウェア用）
	ErrInvalidAccessToken = errors.New("invalid access token")
	//500 DB/キャッシュ到達不能・署名失敗など
	ErrInternal = errors.New("internal error")
)

// 内部要因のエラーをErrInternalに畳む。
// 呼び出し元にはerrors.Is(err, ErrInternal)だけ見せ、詳細は返さない。
func internalErr(err error) error {
	return fmt.Errorf("%w: %v", ErrInternal, err)
}
