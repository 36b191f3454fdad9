package repository

import (
	"context"
	"time"
)

// TTL付きKey/Valueキャッシュとの約束。
// 失効マーカーとロックアウトのカウンタ/フラグを同じ基盤に載せる
// （名前空間はキー側で分ける）。
type TTLCache interface {
	// 見つからなければ ("", false, nil)。エラーは到達不能など。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// カウンタを+1して現在値を返す。キー新規作成時だけttlを設定する。
	// 同一キーへの並行Incrementで取りこぼしが出ないこと。
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
