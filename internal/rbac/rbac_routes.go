package rbac

import (
	"go-timetrack/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	rbacGroup := r.Group("/rbac")
	rbacGroup.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware("super_admin"))
	{
		rbacGroup.POST("/enforce", handler.Enforce)
	}
}
