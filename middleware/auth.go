package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/models"
	"github.com/hilman45/ai-exam-prep-tutor/services"
)

// AuthMiddleware xác thực bearer token qua verifier. Nếu db khác nil (tài khoản nội bộ),
// kiểm tra thêm người dùng còn tồn tại và chưa bị khoá.
func AuthMiddleware(verifier services.IdentityVerifier, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Thử Authorization header trước
		authHeader := c.GetHeader("Authorization")

		// Nếu không có, thử X-Auth-Token (cho iOS)
		if authHeader == "" {
			authHeader = c.GetHeader("X-Auth-Token")
		}

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thiếu Authorization header"})
			return
		}

		// Tách token khỏi chuỗi "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header không hợp lệ"})
			return
		}

		ident, err := verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
				return
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Không xác thực được người dùng, vui lòng thử lại"})
			return
		}

		if db != nil {
			var user models.User
			if err := db.Select("status").First(&user, "id = ?", ident.UserID).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Không tìm thấy người dùng"})
				return
			}
			if user.Status != nil && !*user.Status {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
				return
			}
		}

		// Lưu thông tin vào context để controller dùng
		c.Set("user_id", ident.UserID.String())
		c.Set("display_name", ident.DisplayName)
		c.Set("role", ident.Role)
		c.Next()
	}
}

// DBMiddleware gắn *gorm.DB vào context
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}
