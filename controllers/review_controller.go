package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

type ReviewCardInput struct {
	Rating    string `json:"rating" binding:"required"`
	TimeTaken int    `json:"time_taken"`
}

func paramIndex(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index không hợp lệ"})
		return 0, false
	}
	return idx, true
}

func ReviewCard(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		artifactID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		index, ok := paramIndex(c)
		if !ok {
			return
		}
		var input ReviewCardInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		state, err := reviews.RecordReview(c.Request.Context(), services.ReviewInput{
			UserID:     userID,
			ArtifactID: artifactID,
			CardIndex:  index,
			Rating:     input.Rating,
			TimeTaken:  input.TimeTaken,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": state})
	}
}

func GetDueCards(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		artifactID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		due, err := reviews.DueCards(c.Request.Context(), userID, artifactID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cards": due, "total": len(due)})
	}
}

type AnswerQuestionInput struct {
	SelectedIndex *int `json:"selected_index" binding:"required"`
}

func AnswerQuestion(reviews *services.ReviewService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		artifactID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		index, ok := paramIndex(c)
		if !ok {
			return
		}
		var input AnswerQuestionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		interaction, question, err := reviews.RecordQuizAnswer(c.Request.Context(), services.QuizAnswerInput{
			UserID:        userID,
			ArtifactID:    artifactID,
			QuestionIndex: index,
			SelectedIndex: *input.SelectedIndex,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"is_correct":    interaction.IsCorrect,
			"correct_index": question.CorrectIndex,
			"interaction":   interaction,
		})
	}
}
