package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

type CreateDocumentInput struct {
	Name string `json:"name" binding:"required"`
	Text string `json:"text" binding:"required"`
}

func CreateDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var input CreateDocumentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, err := docs.Create(c.Request.Context(), userID, input.Name, input.Text)
		if err != nil {
			respondError(c, err)
			return
		}
		doc.ExtractedText = ""
		c.JSON(http.StatusCreated, gin.H{"message": "Đã lưu tài liệu", "document": doc})
	}
}

func GetDocuments(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		list, err := docs.List(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": list, "total": len(list)})
	}
}

func GetDocumentDetail(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		doc, err := docs.Get(c.Request.Context(), docID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		text, err := docs.GetText(c.Request.Context(), docID, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		doc.ExtractedText = text
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

func DeleteDocument(docs *services.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		docID, ok := paramUUID(c, "id")
		if !ok {
			return
		}
		if err := docs.Delete(c.Request.Context(), docID, userID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Đã xoá tài liệu"})
	}
}
