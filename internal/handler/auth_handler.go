package handler

import (
	"errors"
	"net/http"
	"time"

	"app/internal/logging"
	mw "app/internal/middleware"
	auth "app/internal/usecase/auth_usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refresh_token"

type AuthHandler struct {
	sessions     *auth.SessionService
	refreshTTL   time.Duration // refresh cookieの有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(sessions *auth.SessionService, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		sessions:     sessions,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/refresh のリクエストボディ（cookie優先、なければbody）。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Error      string                     `json:"error"`
	Violations []validator.FieldViolation `json:"violations"`
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	if v := validator.ValidateRegister(req.Email, req.Name, req.Password); len(v) > 0 {
		return c.JSON(http.StatusBadRequest, validationErrorResponse{Error: "VALIDATION_ERROR", Violations: v})
	}

	result, err := h.sessions.Register(c.Request().Context(), auth.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusCreated, result)
}

// LoginはPOST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	if v := validator.ValidateLogin(req.Email, req.Password); len(v) > 0 {
		return c.JSON(http.StatusBadRequest, validationErrorResponse{Error: "VALIDATION_ERROR", Violations: v})
	}

	result, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusOK, result)
}

// RefreshはPOST /auth/refreshのハンドラ。
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}

	if v := validator.ValidateRefresh(token); len(v) > 0 {
		return c.JSON(http.StatusBadRequest, validationErrorResponse{Error: "VALIDATION_ERROR", Violations: v})
	}

	result, err := h.sessions.Refresh(c.Request().Context(), token)
	if err != nil {
		return h.writeError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)
	return c.JSON(http.StatusOK, result)
}

// LogoutはPOST /auth/logoutのハンドラ（要認証）。
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _ := c.Get(mw.CtxUserIDKey).(string)
	rawToken, _ := c.Get(mw.CtxAccessTokenKey).(string)
	if userID == "" || rawToken == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	//cookieにrefreshトークンがあればそれも失効対象に含める
	refreshToken := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}

	if err := h.sessions.Logout(c.Request().Context(), rawToken, refreshToken, userID); err != nil {
		return h.writeError(c, err)
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logout success"})
}

// LogoutAllはPOST /auth/logout_allのハンドラ（要認証）。
// 「全端末からサインアウト」。
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, _ := c.Get(mw.CtxUserIDKey).(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	if err := h.sessions.RevokeAllSessions(c.Request().Context(), userID); err != nil {
		return h.writeError(c, err)
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "all sessions revoked"})
}

// MeはGET /auth/meのハンドラ（要認証）。
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get(mw.CtxUserIDKey).(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	}

	summary, err := h.sessions.Me(c.Request().Context(), userID)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ForceLogoutはPOST /admin/users/:id/force_logoutのハンドラ（ADMINのみ）。
func (h *AuthHandler) ForceLogout(c echo.Context) error {
	targetID := c.Param("id")
	if targetID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "VALIDATION_ERROR"})
	}

	if err := h.sessions.ForceLogout(c.Request().Context(), targetID); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user sessions revoked"})
}

// usecaseのエラーをHTTPへ変換。内部エラーの詳細は返さない。
func (h *AuthHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "UNAUTHORIZED"})
	case errors.Is(err, auth.ErrAccountLocked):
		return c.JSON(http.StatusLocked, errorResponse{Error: "ACCOUNT_LOCKED"})
	case errors.Is(err, auth.ErrUserAlreadyExists):
		return c.JSON(http.StatusConflict, errorResponse{Error: "CONFLICT"})
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "INVALID_REFRESH_TOKEN"})
	default:
		logging.FromContext(c.Request().Context()).Error("auth request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "INTERNAL"})
	}
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plainRefresh string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plainRefresh,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
