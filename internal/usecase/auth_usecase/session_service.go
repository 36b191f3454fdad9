package auth

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

// APIに返すユーザー像（パスワードハッシュは含めない）
type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ログイン/登録/リフレッシュの戻り
type SessionResult struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	AccessExpiresAt  time.Time   `json:"access_expires_at"`
	RefreshExpiresAt time.Time   `json:"refresh_expires_at"`
	User             UserSummary `json:"user"`
}

// 会員登録の入力
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// SessionServiceは認証とセッションのライフサイクルをまとめる。
// 依存は全てコンストラクタ注入。内部でグローバルは見ない。
type SessionService struct {
	users      repository.UserRepository
	verifier   PasswordVerifier
	hasher     PasswordHasher
	lockout    *LockoutPolicy
	issuer     *TokenIssuer
	store      *RefreshTokenStore
	revocation *RevocationCache
	idGen      IDGenerator
	clock      Clock
	refreshTTL time.Duration
	dummyHash  string // ユーザー不在時の時間合わせ用
}

func NewSessionService(
	users repository.UserRepository,
	verifier PasswordVerifier,
	hasher PasswordHasher,
	lockout *LockoutPolicy,
	issuer *TokenIssuer,
	store *RefreshTokenStore,
	revocation *RevocationCache,
	idGen IDGenerator,
	clock Clock,
	refreshTTL time.Duration,
	dummyHash string,
) *SessionService {
	return &SessionService{
		users:      users,
		verifier:   verifier,
		hasher:     hasher,
		lockout:    lockout,
		issuer:     issuer,
		store:      store,
		revocation: revocation,
		idGen:      idGen,
		clock:      clock,
		refreshTTL: refreshTTL,
		dummyHash:  dummyHash,
	}
}

// Loginはパスワード認証してトークン対を発行する。
// 「emailが存在しない」と「パスワード違い」は同じエラー・同等の
// 所要時間で返す（存在の探りを許さない）。
func (s *SessionService) Login(ctx context.Context, email string, password string) (*SessionResult, error) {
	//ロックアウト確認（キャッシュ不達はfail closed）
	if err := s.lockout.CheckLocked(ctx, email); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// 実在ハッシュと同コストで1回照合して時間を揃える
			_, _ = s.verifier.Verify(password, s.dummyHash)

			if err := s.lockout.RecordFailure(ctx, email); err != nil {
				return nil, err
			}
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr(err)
	}

	//停止ユーザーも「認証失敗」に畳む（理由は漏らさない）。
	//失敗カウントも他の経路と同じに進める（ロック挙動の差で実在が割れる）
	if !user.IsActive {
		_, _ = s.verifier.Verify(password, s.dummyHash)
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	ok, verr := s.verifier.Verify(password, user.PasswordHash)
	if verr != nil {
		return nil, internalErr(verr)
	}
	if !ok {
		if err := s.lockout.RecordFailure(ctx, email); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	//成功したらカウンタを消す（フラグは対象外）
	if err := s.lockout.ClearOnSuccess(ctx, email); err != nil {
		return nil, err
	}

	//期限切れレコードのついで掃除。失敗してもログイン継続
	_, _ = s.store.CleanupExpired(ctx)

	return s.issueSession(ctx, user)
}

// Registerはユーザーを作ってそのままセッションを開始する。
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*SessionResult, error) {
	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, internalErr(err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalErr(err)
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           s.idGen.NewID(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// 事前チェックとCreateの間に同じemailで先を越された場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrUserAlreadyExists
		}
		return nil, internalErr(err)
	}

	return s.issueSession(ctx, user)
}

// Refreshは提示トークンを1回限りで使い潰し、新しい対を発行する。
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*SessionResult, error) {
	//署名と期限の検証（この時点でDBは見ない）
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	//ローテーション前に明示失効されたトークンを塞ぐ
	revoked, err := s.revocation.IsRefreshRevoked(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, internalErr(err)
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, err
	}

	//旧の無効化と新の保存は同一トランザクション
	if _, err := s.store.ValidateAndRotate(ctx, refreshToken, pair.RefreshToken, s.refreshTTL); err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             toUserSummary(user),
	}, nil
}

// Logoutはアクセストークンを残り寿命ぶん失効マーカーに載せ、
// ユーザーの有効なリフレッシュレコードを全て無効化する。
// アクセストークンは上流で検証済みなのでここでは再検証しない。
// refreshトークンの提示があればそのハッシュも失効マーカーに載せる
// （DBの無効化が正。マーカーはレプリカの読み遅れを塞ぐ保険）。
func (s *SessionService) Logout(ctx context.Context, accessToken string, refreshToken string, userID string) error {
	jti, expiresAt, err := s.issuer.DecodeAccessMeta(accessToken)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if err := s.revocation.BlacklistAccess(ctx, jti, expiresAt.Sub(now)); err != nil {
		return err
	}

	if refreshToken != "" {
		//壊れたトークンの提示はマーカー不要（DB側で元々無効）
		if claims, perr := s.issuer.ParseRefresh(refreshToken); perr == nil && claims.ExpiresAt != nil {
			remaining := claims.ExpiresAt.Time.Sub(now)
			if err := s.revocation.BlacklistRefresh(ctx, HashToken(refreshToken), remaining); err != nil {
				return err
			}
		}
	}

	return s.store.RevokeAll(ctx, userID)
}

// RevokeAllSessionsは「全端末からサインアウト」。
// 特定のアクセストークンには依存しない。
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID string) error {
	return s.store.RevokeAll(ctx, userID)
}

// ForceLogoutは管理者操作。リフレッシュを全無効化した上で
// token_versionを+1し、発行済みアクセストークンも巻き添えにする。
func (s *SessionService) ForceLogout(ctx context.Context, targetUserID string) error {
	if err := s.store.RevokeAll(ctx, targetUserID); err != nil {
		return err
	}

	if err := s.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return internalErr(err)
	}
	return nil
}

// Meは認証済みユーザーの要約を返す。
func (s *SessionService) Me(ctx context.Context, userID string) (*UserSummary, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, internalErr(err)
	}

	summary := toUserSummary(user)
	return &summary, nil
}

// トークン発行とリフレッシュレコード保存の共通経路（ログイン/登録）
func (s *SessionService) issueSession(ctx context.Context, user *model.User) (*SessionResult, error) {
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.store.Store(ctx, user.ID, pair.RefreshToken, s.refreshTTL); err != nil {
		return nil, err
	}

	//最終ログイン時刻更新。失敗しても致命ではない
	now := s.clock.Now()
	user.LastLoginAt = &now
	_ = s.users.Update(ctx, user)

	return &SessionResult{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		User:             toUserSummary(user),
	}, nil
}

func toUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}
}
