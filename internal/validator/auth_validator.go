package validator

import (
	"net/mail"
	"strings"
)

// 1項目ぶんの違反（field + 理由）
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// usecaseに入る前のリクエスト検証。
// 違反は全件まとめて返す（最初の1件で止めない）。

// サインアップの入力を検証
func ValidateRegister(email string, name string, password string) []FieldViolation {
	var violations []FieldViolation

	if !isValidEmailFormat(email) {
		violations = append(violations, FieldViolation{Field: "email", Reason: "invalid format"})
	}

	if strings.TrimSpace(name) == "" {
		violations = append(violations, FieldViolation{Field: "name", Reason: "required"})
	}

	if len(password) < 8 {
		violations = append(violations, FieldViolation{Field: "password", Reason: "too short"})
	} else if isWeakPassword(password) {
		violations = append(violations, FieldViolation{Field: "password", Reason: "too common"})
	}

	return violations
}

// ログインの入力を検証（中身の正しさはusecaseが判断する）
func ValidateLogin(email string, password string) []FieldViolation {
	var violations []FieldViolation

	if strings.TrimSpace(email) == "" {
		violations = append(violations, FieldViolation{Field: "email", Reason: "required"})
	}
	if password == "" {
		violations = append(violations, FieldViolation{Field: "password", Reason: "required"})
	}

	return violations
}

// リフレッシュの入力を検証
func ValidateRefresh(refreshToken string) []FieldViolation {
	if strings.TrimSpace(refreshToken) == "" {
		return []FieldViolation{{Field: "refresh_token", Reason: "required"}}
	}
	return nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	_, err := mail.ParseAddress(trimmed)
	return err == nil
}

// よくある弱いパスワードの拒否
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":    {},
		"password123": {},
		"123456789":   {},
		"1234567890":  {},
		"12345678":    {},
		"qwertyui":    {},
		"qwertyuiop":  {},
		"letmein1":    {},
		"admin123":    {},
	}

	_, ok := weak[normalized]
	return ok
}
