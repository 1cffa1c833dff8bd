package session

import (
	"go-timetrack/internal/middleware"
	"go-timetrack/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	trackLimit := middleware.RateLimitByEmployee(rate.Limit(1), 10)

	tracker := r.Group("/tracker")
	tracker.Use(middleware.AuthMiddleware())
	{
		if redisClient != nil {
			tracker.POST(
				"/clock-in",
				trackLimit,
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "session", "track"),
				handler.ClockIn,
			)
		} else {
			tracker.POST("/clock-in", trackLimit, middleware.RBACAuthorize(rbacService, "session", "track"), handler.ClockIn)
		}
		tracker.POST("/pause", trackLimit, middleware.RBACAuthorize(rbacService, "session", "track"), handler.Pause)
		tracker.POST("/resume", trackLimit, middleware.RBACAuthorize(rbacService, "session", "track"), handler.Resume)
		tracker.POST("/clock-out", trackLimit, middleware.RBACAuthorize(rbacService, "session", "track"), handler.ClockOut)

		tracker.GET("/current", middleware.RBACAuthorize(rbacService, "session", "read"), handler.Current)
		tracker.GET("/my-history", middleware.RBACAuthorize(rbacService, "session", "read"), handler.MyHistory)
		tracker.GET("/by-date", middleware.RBACAuthorize(rbacService, "session", "read"), handler.ByDate)
		tracker.GET("/statistics", middleware.RBACAuthorize(rbacService, "session", "read"), handler.Statistics)

		tracker.GET("/all", middleware.RBACAuthorize(rbacService, "session", "read_all"), handler.AllSessions)
	}
}
