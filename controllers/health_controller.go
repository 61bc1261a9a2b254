package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/services"
	"github.com/hilman45/ai-exam-prep-tutor/ws"
)

func HealthCheck(db *gorm.DB, hub *ws.Hub, cascade *services.Cascade) gin.HandlerFunc {
	return func(c *gin.Context) {
		providers := gin.H{}
		for _, p := range cascade.Providers() {
			providers[p.Name()] = p.Configured()
		}

		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"db":        "ok",
			"providers": providers,
			"websocket": gin.H{
				"enabled": true,
				"stats":   hub.GetStats(),
			},
		}

		sqlDB, err := db.DB()
		if err != nil {
			response["db"] = "error: cannot get DB instance"
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			response["db"] = "error: cannot connect to DB"
			response["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}

		c.JSON(http.StatusOK, response)
	}
}
