package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

// queryCount đọc ?count, mặc định 10; giá trị ngoài [3,50] được kẹp lại
func queryCount(c *gin.Context) (int, bool) {
	raw := c.Query("count")
	if raw == "" {
		return services.DefaultItemCount, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count phải là số nguyên"})
		return 0, false
	}
	return services.ClampCount(n), true
}

func GenerateSummary(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		style := c.DefaultQuery("style", services.StyleNormal)
		res, err := gen.GenerateSummary(c.Request.Context(), docID, userID, style)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func GenerateQuiz(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		count, ok := queryCount(c)
		if !ok {
			return
		}
		res, err := gen.GenerateQuiz(c.Request.Context(), docID, userID, count)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func GenerateFlashcards(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		count, ok := queryCount(c)
		if !ok {
			return
		}
		res, err := gen.GenerateFlashcards(c.Request.Context(), docID, userID, count)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func GetDocumentArtifacts(docs *services.DocumentService, gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		if _, err := docs.Get(c.Request.Context(), docID, userID); err != nil {
			respondError(c, err)
			return
		}
		list, err := gen.ListArtifacts(c.Request.Context(), docID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"artifacts": list, "total": len(list)})
	}
}

func GetArtifact(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		a, err := gen.GetArtifact(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"artifact": a})
	}
}

type UpdateArtifactInput struct {
	Payload     json.RawMessage `json:"payload"`
	DisplayName *string         `json:"display_name"`
}

func UpdateArtifact(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		var input UpdateArtifactInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := gen.UpdateArtifact(c.Request.Context(), id, userID, services.ArtifactUpdate{
			Payload:     input.Payload,
			DisplayName: input.DisplayName,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Đã cập nhật", "artifact": a})
	}
}

func DeleteArtifact(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		if err := gen.DeleteArtifact(c.Request.Context(), id, userID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Đã xoá artifact"})
	}
}

func ExportArtifact(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		id, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		filename, content, err := gen.ExportArtifact(c.Request.Context(), id, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
	}
}

type ChatNotesInput struct {
	Message string `json:"message" binding:"required"`
	Notes   string `json:"notes" binding:"required"`
}

func ChatWithNotes(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ChatNotesInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		reply, provider, err := gen.ChatWithNotes(c.Request.Context(), input.Message, input.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply, "provider": provider})
	}
}

// ChatQuizInput nhận ngữ cảnh câu hỏi trực tiếp, hoặc artifact_id để lấy từ quiz đã lưu
type ChatQuizInput struct {
	Message       string   `json:"message" binding:"required"`
	ArtifactID    string   `json:"artifact_id"`
	QuestionIndex *int     `json:"question_index"`
	QuizName      string   `json:"quiz_name"`
	TopicName     string   `json:"topic_name"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	UserAnswer    string   `json:"user_answer"`
	Explanation   string   `json:"explanation"`
}

func ChatWithQuiz(gen *services.GenerationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var input ChatQuizInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		quiz := services.QuizChatContext{
			QuizName:      input.QuizName,
			TopicName:     input.TopicName,
			Question:      input.Question,
			Options:       input.Options,
			CorrectAnswer: input.CorrectAnswer,
			UserAnswer:    input.UserAnswer,
			Explanation:   input.Explanation,
		}
		if input.ArtifactID != "" {
			artifactID, err := uuid.Parse(input.ArtifactID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "artifact_id không hợp lệ"})
				return
			}
			fromArtifact, err := gen.QuizChatFromArtifact(c.Request.Context(), artifactID, userID, input.QuestionIndex, input.UserAnswer)
			if err != nil {
				respondError(c, err)
				return
			}
			if input.TopicName != "" {
				fromArtifact.TopicName = input.TopicName
			}
			if input.Explanation != "" {
				fromArtifact.Explanation = input.Explanation
			}
			quiz = fromArtifact
		}

		reply, provider, err := gen.ChatWithQuiz(c.Request.Context(), input.Message, quiz)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply, "provider": provider})
	}
}
