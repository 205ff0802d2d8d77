package main // Entry point package

import (
    "context"
    "log"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/Nakul-Jaglan/sunlighter-backend/internal/config"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/database"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/handler"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/middleware"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/queue"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/repository"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/router"
    "github.com/Nakul-Jaglan/sunlighter-backend/internal/service"
)

func main() {
    // Load .env if present; real environments set variables directly.
    if err := godotenv.Load(); err == nil {
        log.Println("loaded configuration from .env")
    }

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Repositories share the single pooled handle.
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    employments := repository.NewEmploymentRepo(db)
    codes := repository.NewVerificationCodeRepo(db)
    logs := repository.NewAccessLogRepo(db)

    verifier := service.NewVerifier(codes, logs)

    // Redis backs the rate limiter on /v1/verify. A missing Redis simply
    // disables limiting rather than blocking startup.
    rlCfg := config.LoadRateLimitConfig()
    rdb := config.NewRedisClient()
    if rlCfg.Enabled && rdb == nil {
        log.Println("redis unavailable, rate limiting disabled")
    }
    rateLimiter := middleware.NewTokenBucket(rlCfg, rdb)

    publishEvents := !strings.EqualFold(os.Getenv("DISABLE_EVENTS"), "true")
    if publishEvents {
        go func() {
            if err := queue.StartVerificationConsumer(); err != nil {
                log.Printf("verification consumer stopped: %v", err)
            }
        }()
    }

    // Periodic sweep keeps code listings honest between redemptions; the
    // engine also flips expired codes lazily on each attempt.
    go func() {
        ticker := time.NewTicker(cfg.SweepInterval)
        defer ticker.Stop()
        for range ticker.C {
            ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
            n, err := codes.ExpireDue(ctx)
            cancel()
            if err != nil {
                log.Printf("code expiry sweep failed: %v", err)
                continue
            }
            if n > 0 {
                log.Printf("code expiry sweep: %d codes expired", n)
            }
        }
    }()

    authHandler := handler.NewAuthHandler(cfg, users, tokens)
    employmentHandler := handler.NewEmploymentHandler(employments)
    codeHandler := handler.NewVerificationCodeHandler(codes)
    logHandler := handler.NewAccessLogHandler(logs)
    verifyHandler := handler.NewVerifyHandler(verifier, publishEvents)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterEmployee(e, employmentHandler, codeHandler, logHandler, cfg.JWTSecret)
    router.RegisterEmployer(e, verifyHandler, cfg.JWTSecret, rateLimiter)
    router.RegisterAccessLogs(e, logHandler, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
