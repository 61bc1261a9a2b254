package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized:
		return http.StatusForbidden
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindUnprocessableContent:
		return http.StatusUnprocessableEntity
	case services.KindAllProvidersFailed:
		return http.StatusBadGateway
	case services.KindValidationFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusServiceUnavailable
	}
}

// respondError chuyển lỗi service thành JSON {"error", "code"}
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	body := gin.H{"code": kind}

	var appErr *services.AppError
	switch {
	case kind == services.KindAllProvidersFailed:
		body["error"] = "Không thể sinh nội dung lúc này, vui lòng thử lại sau"
	case kind == services.KindPersistence:
		body["error"] = "Lỗi hệ thống, vui lòng thử lại"
		body["retryable"] = true
	case errors.As(err, &appErr):
		body["error"] = appErr.Message
	default:
		body["error"] = err.Error()
	}
	c.JSON(statusFor(kind), body)
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được người dùng"})
		return uuid.Nil, false
	}
	return id, true
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID không hợp lệ"})
		return uuid.Nil, false
	}
	return id, true
}
