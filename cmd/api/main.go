package main

import (
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/cache"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/server"
	auth "app/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	// .envは任意（本番は環境変数だけ）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
	); err != nil {
		logger.Error("migrate failed", "error", err)
		panic(err)
	}

	//共有キャッシュ（失効マーカー + ロックアウト）
	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ttlCache := cache.NewRedisCache(redisClient)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	verifier := auth.NewBcryptPasswordVerifier()

	//ユーザー不在時の時間合わせ用ハッシュ（起動時に1回だけ作る）
	dummyHash, err := auth.NewDummyHash(bcrypt.DefaultCost)
	if err != nil {
		logger.Error("dummy hash generation failed", "error", err)
		panic(err)
	}

	issuer := auth.NewTokenIssuer(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		idGen,
		clock,
	)
	lockout := auth.NewLockoutPolicy(ttlCache, cfg.MaxLoginAttempts, cfg.LockoutDuration)
	store := auth.NewRefreshTokenStore(txManager, idGen, clock)
	revocation := auth.NewRevocationCache(ttlCache)

	sessions := auth.NewSessionService(
		userRepo,
		verifier,
		hasher,
		lockout,
		issuer,
		store,
		revocation,
		idGen,
		clock,
		cfg.RefreshTokenTTL,
		dummyHash,
	)

	//Handler生成
	authH := handler.NewAuthHandler(sessions, cfg.RefreshTokenTTL, cfg.GoEnv != "dev")

	//Server起動
	e := server.NewRouter(logger, authH, issuer, revocation, userRepo)

	logger.Info("server starting", "port", cfg.Port, "env", cfg.GoEnv)
	if err := server.Start(e, ":"+cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		panic(err)
	}
}
