package correction

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

	createLimit := middleware.RateLimitByEmployee(rate.Limit(0.5), 5)

	corrections := r.Group("/corrections")
	corrections.Use(middleware.AuthMiddleware())
	{
		if redisClient != nil {
			corrections.POST(
				"",
				createLimit,
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "correction", "create"),
				handler.Create,
			)
		} else {
			corrections.POST("", createLimit, middleware.RBACAuthorize(rbacService, "correction", "create"), handler.Create)
		}
		corrections.GET("/my", middleware.RBACAuthorize(rbacService, "correction", "read"), handler.ListMine)
		corrections.GET("/:id", middleware.RBACAuthorize(rbacService, "correction", "read"), handler.GetById)
		corrections.GET("/:id/audit-log", middleware.RBACAuthorize(rbacService, "correction", "read"), handler.AuditLog)

		corrections.GET("", middleware.RBACAuthorize(rbacService, "correction", "read_all"), handler.ListAll)
		corrections.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "correction", "review"), handler.Approve)
		corrections.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "correction", "review"), handler.Reject)
	}
}
