package auth

import (
	"context"
	"strings"
	"time"

	"app/internal/repository"
)

const (
	lockoutCountPrefix = "lockout:count:"
	lockoutFlagPrefix  = "lockout:flag:"
)

// LockoutPolicyは連続ログイン失敗のカウントと一時ロックを行う。
// カウンタもフラグも共有キャッシュに置き、TTLで自然に消える
// （明示的な解除なしに永久ロックはしない）。
type LockoutPolicy struct {
	cache       repository.TTLCache
	maxAttempts int
	duration    time.Duration
}

func NewLockoutPolicy(cache repository.TTLCache, maxAttempts int, duration time.Duration) *LockoutPolicy {
	return &LockoutPolicy{
		cache:       cache,
		maxAttempts: maxAttempts,
		duration:    duration,
	}
}

// CheckLockedはフラグが立っていればErrAccountLocked。
// キャッシュ到達不能は通さない（fail closed）。
func (p *LockoutPolicy) CheckLocked(ctx context.Context, identity string) error {
	_, ok, err := p.cache.Get(ctx, lockoutFlagPrefix+normalizeIdentity(identity))
	if err != nil {
		return internalErr(err)
	}
	if ok {
		return ErrAccountLocked
	}
	return nil
}

// RecordFailureは失敗カウンタを+1し、しきい値に達したらフラグを立てる。
// カウントは同一identityの並行失敗で多少ぶれてよいが、
// 一度立ったフラグはTTL満了まで絶対（正しいパスワードでも弾く）。
func (p *LockoutPolicy) RecordFailure(ctx context.Context, identity string) error {
	id := normalizeIdentity(identity)

	count, err := p.cache.Increment(ctx, lockoutCountPrefix+id, p.duration)
	if err != nil {
		return internalErr(err)
	}

	if count < int64(p.maxAttempts) {
		return nil
	}

	if err := p.cache.SetWithTTL(ctx, lockoutFlagPrefix+id, "1", p.duration); err != nil {
		return internalErr(err)
	}
	// フラグを立てたらカウンタは役目を終える
	if err := p.cache.Delete(ctx, lockoutCountPrefix+id); err != nil {
		return internalErr(err)
	}
	return nil
}

// ClearOnSuccessはカウンタだけを消す。
// フラグは消さない（立った後のログイン成功はそもそも起きない）。
func (p *LockoutPolicy) ClearOnSuccess(ctx context.Context, identity string) error {
	if err := p.cache.Delete(ctx, lockoutCountPrefix+normalizeIdentity(identity)); err != nil {
		return internalErr(err)
	}
	return nil
}

// カウンタとフラグでキーの形を揃える
func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
