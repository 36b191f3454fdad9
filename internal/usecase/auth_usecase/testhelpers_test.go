package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"app/internal/domain/model"
	"app/internal/repository"
)

// =====================
// テスト用の時計とID生成
// =====================

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGen) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

// =====================
// Fake: RefreshTokenRepository（インメモリ）
// =====================

type memRefreshRepo struct {
	mu      sync.Mutex
	records map[string]*model.RefreshToken // key = ID
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{records: make(map[string]*model.RefreshToken)}
}

func (r *memRefreshRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *token
	r.records[token.ID] = &cp
	return nil
}

func (r *memRefreshRepo) FindByTokenHash(_ context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.TokenHash == tokenHash {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrRefreshTokenNotFound
}

func (r *memRefreshRepo) Deactivate(_ context.Context, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[tokenID]
	if !ok || !rec.IsActive {
		return repository.ErrRefreshTokenNotFound
	}
	rec.IsActive = false
	return nil
}

func (r *memRefreshRepo) DeactivateAllByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.UserID == userID {
			rec.IsActive = false
		}
	}
	return nil
}

func (r *memRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, rec := range r.records {
		if rec.ExpiresAt.Before(now) {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) activeCountByUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.UserID == userID && rec.IsActive {
			n++
		}
	}
	return n
}

// =====================
// Fake: TransactionManager
// =====================

// トランザクション境界だけを模したフェイク。
// ロールバックの実証はinfra側のsqliteテストで行う。
type fakeTxManager struct {
	users   repository.UserRepository
	refresh repository.RefreshTokenRepository
}

func (m *fakeTxManager) Users() repository.UserRepository                 { return m.users }
func (m *fakeTxManager) RefreshTokens() repository.RefreshTokenRepository { return m.refresh }

func (m *fakeTxManager) WithinTx(_ context.Context, fn func(r repository.TxRepos) error) error {
	return fn(m)
}

// =====================
// Fake: UserRepository（インメモリ）
// =====================

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key = ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*model.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, userID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) IncrementTokenVersion(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

// =====================
// Fake: 常に失敗するTTLCache（fail closed確認用）
// =====================

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("cache unreachable")
}

func (brokenCache) SetWithTTL(context.Context, string, string, time.Duration) error {
	return fmt.Errorf("cache unreachable")
}

func (brokenCache) Delete(context.Context, string) error {
	return fmt.Errorf("cache unreachable")
}

func (brokenCache) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, fmt.Errorf("cache unreachable")
}
