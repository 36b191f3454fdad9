package auth

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

// Test: ハッシュと照合の往復
func TestBcryptPassword_HashAndVerify(t *testing.T) {
	hasher := NewBcryptPasswordHasher(bcrypt.MinCost)
	verifier := NewBcryptPasswordVerifier()

	hashed, err := hasher.Hash("Str0ngPass!")
	require.NoError(t, err)
	require.NotEqual(t, "Str0ngPass!", hashed)

	ok, err := verifier.Verify("Str0ngPass!", hashed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifier.Verify("wrong", hashed)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Test: 壊れたハッシュは「照合失敗」ではなく故障として返る
func TestBcryptPassword_MalformedHash(t *testing.T) {
	verifier := NewBcryptPasswordVerifier()

	ok, err := verifier.Verify("whatever", "not-a-bcrypt-hash")
	assert.False(t, ok)
	assert.Error(t, err)
}

// Test: ダミーハッシュは毎回違う値で、照合は必ず失敗する
func TestNewDummyHash(t *testing.T) {
	h1, err := NewDummyHash(bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := NewDummyHash(bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	verifier := NewBcryptPasswordVerifier()
	ok, err := verifier.Verify("any password", h1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Test: 「実在ハッシュへの照合失敗」と「ダミーへの照合」の所要時間が
// 同じオーダーに収まる（メール実在の有無が時間に出ない）。
// 厳密な等時間ではなく中央値の比で見る。
func TestBcryptPassword_DummyTimingComparable(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test skipped in short mode")
	}

	const cost = 10 // 本番相当のコストでないと差が測れない
	hasher := NewBcryptPasswordHasher(cost)
	verifier := NewBcryptPasswordVerifier()

	realHash, err := hasher.Hash("CorrectHorseBattery")
	require.NoError(t, err)
	dummyHash, err := NewDummyHash(cost)
	require.NoError(t, err)

	measure := func(hash string) time.Duration {
		const rounds = 7
		samples := make([]time.Duration, 0, rounds)
		for i := 0; i < rounds; i++ {
			start := time.Now()
			_, _ = verifier.Verify("definitely wrong password", hash)
			samples = append(samples, time.Since(start))
		}
		sort.Slice(samples, func(a, b int) bool { return samples[a] < samples[b] })
		return samples[len(samples)/2]
	}

	realMedian := measure(realHash)
	dummyMedian := measure(dummyHash)

	ratio := float64(realMedian) / float64(dummyMedian)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	assert.Less(t, ratio, 3.0, "real=%v dummy=%v", realMedian, dummyMedian)
}
