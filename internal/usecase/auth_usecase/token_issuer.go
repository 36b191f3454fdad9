package auth

import (
	"errors"
	"time"

	"app/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// アクセストークンのclaims
type AccessClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tv"`
	jwt.RegisteredClaims
}

// リフレッシュトークンのclaims
type RefreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

const refreshTokenType = "refresh"

// IssuePairの戻り
type TokenPair struct {
	AccessToken      string
	AccessJTI        string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// TokenIssuerはアクセス/リフレッシュのトークン対を署名発行する。
// アクセス用とリフレッシュ用でシークレットを分ける。
// ネットワークに出ない（署名はプロセス内で完結）。
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	idGen         IDGenerator
	clock         Clock
}

func NewTokenIssuer(
	accessSecret string,
	refreshSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	idGen IDGenerator,
	clock Clock,
) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		idGen:         idGen,
		clock:         clock,
	}
}

// IssuePairはユーザーにトークン対を発行する。
// 署名失敗は内部エラー（業務エラーではない）。
func (i *TokenIssuer) IssuePair(user *model.User) (TokenPair, error) {
	now := i.clock.Now()

	accessExp := now.Add(i.accessTTL)
	accessJTI := i.idGen.NewID()

	accessClaims := AccessClaims{
		Email:        user.Email,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        accessJTI,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).
		SignedString(i.accessSecret)
	if err != nil {
		return TokenPair{}, internalErr(err)
	}

	refreshExp := now.Add(i.refreshTTL)

	refreshClaims := RefreshClaims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        i.idGen.NewID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	}

	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).
		SignedString(i.refreshSecret)
	if err != nil {
		return TokenPair{}, internalErr(err)
	}

	return TokenPair{
		AccessToken:      accessToken,
		AccessJTI:        accessJTI,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccessはアクセストークンを検証してclaimsを返す。
func (i *TokenIssuer) ParseAccess(tokenValue string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenValue, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.accessSecret, nil
	}, jwt.WithTimeFunc(i.clock.Now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// ParseRefreshはリフレッシュトークンを検証してclaimsを返す。
// 署名不正・期限切れ・typ違いはすべてErrInvalidRefreshTokenに畳む。
func (i *TokenIssuer) ParseRefresh(tokenValue string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}

	token, err := jwt.ParseWithClaims(tokenValue, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.refreshSecret, nil
	}, jwt.WithTimeFunc(i.clock.Now))

	if err != nil || !token.Valid {
		return nil, ErrInvalidRefreshToken
	}
	if claims.TokenType != refreshTokenType {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

// DecodeAccessMetaはアクセストークンのjtiとexpを署名検証なしで取り出す。
// ログアウト時は上流ミドルウェアで検証済みなので再検証しない。
func (i *TokenIssuer) DecodeAccessMeta(tokenValue string) (jti string, expiresAt time.Time, err error) {
	claims := &AccessClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(tokenValue, claims); err != nil {
		return "", time.Time{}, internalErr(err)
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, internalErr(errors.New("access token missing jti or exp"))
	}
	return claims.ID, claims.ExpiresAt.Time, nil
}
