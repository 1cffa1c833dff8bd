package app

import (
	"go-timetrack/internal/correction"
	"go-timetrack/internal/messaging/kafka"
	"go-timetrack/internal/middleware"
	"go-timetrack/internal/rbac"
	"go-timetrack/internal/session"
	"go-timetrack/internal/shared/clock"
	"go-timetrack/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	sessionRepo := session.NewRepository(gormDB)
	correctionRepo := correction.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- RBAC Core ---
	rbacService, err := rbac.NewService()
	if err != nil {
		return err
	}

	// --- Services ---
	clk := clock.Real{}
	sessionService := session.NewService(gormDB, sessionRepo, clk, rdb)
	correctionService := correction.NewService(gormDB, correctionRepo, sessionRepo, counterRepo, outboxRepo, clk)

	// --- Handlers ---
	sessionHandler := session.NewHandlerWithRedis(sessionService, rdb)
	correctionHandler := correction.NewHandlerWithRedis(correctionService, rdb)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Global middleware ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		session.RegisterRoutes(api, sessionHandler, rbacService, rdb)
		correction.RegisterRoutes(api, correctionHandler, rbacService, rdb)
		rbac.RegisterRoutes(api, rbacHandler)
	}

	return nil
}
