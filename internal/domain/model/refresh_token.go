package model

import "time"

// RefreshTokenはリフレッシュトークン1本の保存形。
// Userは埋め込まず、UserIDだけ持つ（循環参照を作らない）。
// 平文トークンは保存しない。token_hash = SHA-256(平文)。
type RefreshToken struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"userId" gorm:"type:uuid;not null;index:idx_refresh_user_active"`
	TokenHash string    `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true;index:idx_refresh_user_active"`
	CreatedAt time.Time `json:"createdAt"`
}
