package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

// GetUsers: danh sách người dùng cho admin, ?search theo email hoặc họ tên
func GetUsers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.List(c.Request.Context(), c.Query("search"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": list, "total": len(list)})
	}
}

func GetUserDetail(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		u, err := users.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

func ActivateUser(users *services.UserService) gin.HandlerFunc {
	return setUserStatus(users, true, "Đã mở khóa tài khoản")
}

func DeactivateUser(users *services.UserService) gin.HandlerFunc {
	return setUserStatus(users, false, "Đã khóa tài khoản")
}

func setUserStatus(users *services.UserService, active bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		u, err := users.SetActive(c.Request.Context(), actorID, id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message, "user": u})
	}
}
