package server

import (
	"log/slog"

	"app/internal/handler"
	mw "app/internal/middleware"
	"app/internal/repository"
	auth "app/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

// ルーティングとミドルウェアチェーンを組む。
// 認証必須ルートは AuthJWT（署名+失効確認）→ TokenVersionGuard の順。
func NewRouter(
	logger *slog.Logger,
	authH *handler.AuthHandler,
	issuer *auth.TokenIssuer,
	revocation *auth.RevocationCache,
	userRepo repository.UserRepository,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(mw.RequestLogger(logger))

	g := e.Group("/auth")
	g.POST("/register", authH.Register)
	g.POST("/login", authH.Login)
	g.POST("/refresh", authH.Refresh)

	authed := g.Group("", mw.AuthJWT(issuer, revocation), mw.TokenVersionGuard(userRepo))
	authed.POST("/logout", authH.Logout)
	authed.POST("/logout_all", authH.LogoutAll)
	authed.GET("/me", authH.Me)

	admin := e.Group("/admin", mw.AuthJWT(issuer, revocation), mw.TokenVersionGuard(userRepo), mw.AdminRoleGuard())
	admin.POST("/users/:id/force_logout", authH.ForceLogout)

	return e
}
