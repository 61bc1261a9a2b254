package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles chỉ cho các vai trò được liệt kê đi tiếp; dùng sau AuthMiddleware
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được vai trò người dùng"})
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Bạn không có quyền truy cập tài nguyên này",
		})
	}
}
