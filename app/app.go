package app

import (
	"equipment_lending_tool/db"
	"equipment_lending_tool/session"
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Log    *zap.Logger
	Config Config

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	RedisAddr  string
	RedisPwd   string
	WebOrigin  string
	SessionTTL time.Duration

	// SeenThrottle 限制 last_seen_at 的写入频率
	SeenThrottle time.Duration

	SeedAdminEmail    string
	SeedAdminPassword string
	SeedCourses       []string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis", zap.Error(err))
	}

	// --- Seed (idempotent) ---
	if err := db.Seed(context.Background(), dbConn, db.SeedConfig{
		AdminEmail:    cfg.SeedAdminEmail,
		AdminPassword: cfg.SeedAdminPassword,
		Courses:       cfg.SeedCourses,
	}, logger); err != nil {
		logger.Fatal("seed", zap.Error(err))
	}

	// --- Gin ---
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())
	useCORS(r, cfg.WebOrigin)

	a := &App{
		Router: r, DB: dbConn, RDB: rdb, Log: logger, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
	return a
}

func (a *App) Close() {
	_ = a.RDB.Close()
	_ = a.Log.Sync()
}

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	ttlSec := get("SESSION_TTL_SECONDS", "86400")
	ttl := 24 * time.Hour
	if d, err := time.ParseDuration(ttlSec + "s"); err == nil {
		ttl = d
	}

	seenSec := get("SEEN_THROTTLE_SECONDS", "300")
	seen := 5 * time.Minute
	if d, err := time.ParseDuration(seenSec + "s"); err == nil {
		seen = d
	}

	coursesCSV := get("SEED_COURSES",
		"Graphic Design,Interior Design,Fashion Design,Photography,Cinema e Audiovisivi")
	var courses []string
	for _, cname := range strings.Split(coursesCSV, ",") {
		if s := strings.TrimSpace(cname); s != "" {
			courses = append(courses, s)
		}
	}

	return Config{
		RedisAddr:    get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:     os.Getenv("REDIS_PASSWORD"),
		WebOrigin:    get("WEB_ORIGIN", "http://localhost:5173"),
		SessionTTL:   ttl,
		SeenThrottle: seen,

		SeedAdminEmail:    get("SEED_ADMIN_EMAIL", "admin"),
		SeedAdminPassword: get("SEED_ADMIN_PASSWORD", "laba2025"),
		SeedCourses:       courses,
	}
}
