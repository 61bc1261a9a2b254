package controllers

import (
	"errors"
	"net/http"
	"strings"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/models"
	"github.com/hilman45/ai-exam-prep-tutor/utils"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

// ====== HANDLERS ======
func Register(c *gin.Context) {
	db := c.MustGet("db").(*gorm.DB)

	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check email tồn tại
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email đã được sử dụng"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể mã hoá mật khẩu"})
		return
	}

	newUser := models.User{
		FullName: strings.TrimSpace(input.FullName),
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleStudent,
	}
	if err := db.Create(&newUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tạo người dùng"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Đăng ký thành công",
		"user":    newUser,
	})
}

func Login(jwtm *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := c.MustGet("db").(*gorm.DB)

		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
			return
		}
		if user.Password == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Tài khoản này đăng nhập bằng Google"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email hoặc mật khẩu không đúng"})
			return
		}
		if user.Status != nil && !*user.Status {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
			return
		}

		respondWithToken(c, jwtm, user)
	}
}

// GoogleLogin xác minh Google ID token rồi cấp JWT nội bộ, tạo tài khoản nếu chưa có
func GoogleLogin(jwtm *utils.JWTManager, clientID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := c.MustGet("db").(*gorm.DB)

		var input GoogleLoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		payload, err := idtoken.Validate(c.Request.Context(), input.IDToken, clientID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không hợp lệ"})
			return
		}
		email, _ := payload.Claims["email"].(string)
		fullName, _ := payload.Claims["name"].(string)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token Google không có email"})
			return
		}
		email = strings.ToLower(email)

		var user models.User
		err = db.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Password để trống vì login Google
			user = models.User{Email: email, FullName: fullName, Role: models.RoleStudent}
			err = db.Create(&user).Error
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo user Google"})
			return
		}
		if user.Status != nil && !*user.Status {
			c.JSON(http.StatusForbidden, gin.H{"error": "Tài khoản đã bị tạm khóa"})
			return
		}

		respondWithToken(c, jwtm, user)
	}
}

func respondWithToken(c *gin.Context, jwtm *utils.JWTManager, user models.User) {
	token, err := jwtm.GenerateToken(user.ID.String(), string(user.Role), user.FullName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Đăng nhập thành công",
		"token":   token,
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"full_name": user.FullName,
			"role":      user.Role,
		},
	})
}
