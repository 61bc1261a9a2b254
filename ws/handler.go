package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: giới hạn origin theo CORS_ORIGINS khi triển khai production
	},
}

// HandleDocumentWebSocket: /ws/documents/:id?token=...
func HandleDocumentWebSocket(h *Hub, verifier services.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID := c.Param("id")
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu token"})
			return
		}
		ident, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			return
		}
		userID := ident.UserID.String()

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("WebSocket upgrade thất bại", "error", err)
			return
		}
		client := h.Register(docID, userID, conn)
		defer h.Unregister(docID, userID, conn)
		h.log.Debug("Document WS connected", "document_id", docID, "user_id", userID)

		if hello, err := json.Marshal(gin.H{"type": "connected", "document_id": docID}); err == nil {
			select {
			case client.Send <- hello:
			default:
			}
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.log.Debug("Document WS disconnected", "document_id", docID, "user_id", userID)
	}
}
