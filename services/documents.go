package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
	"github.com/hilman45/ai-exam-prep-tutor/utils"
)

// DocumentStore cung cấp văn bản đã trích xuất của tài liệu, có kiểm tra quyền sở hữu
type DocumentStore interface {
	GetText(ctx context.Context, documentID, ownerID uuid.UUID) (string, error)
}

// TextStorage là nơi lưu văn bản ngoài database (Supabase Storage)
type TextStorage interface {
	UploadText(objectPath, text string) error
	DownloadText(objectPath string) (string, error)
	Remove(objectPath string) error
}

// DocumentService quản lý tài liệu; văn bản nằm trong database hoặc trong TextStorage nếu có
type DocumentService struct {
	db      *gorm.DB
	storage TextStorage
	log     *logger.Logger
}

func NewDocumentService(db *gorm.DB, storage TextStorage, log *logger.Logger) *DocumentService {
	return &DocumentService{db: db, storage: storage, log: log}
}

func (s *DocumentService) Create(ctx context.Context, ownerID uuid.UUID, name, text string) (*models.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidInput("tên tài liệu không được để trống")
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput("nội dung tài liệu không được để trống")
	}

	doc := &models.Document{
		ID:           uuid.New(),
		UserID:       ownerID,
		OriginalName: name,
		FileType:     "text/plain",
	}
	if s.storage != nil {
		if err := s.storage.UploadText(utils.TextObjectPath(ownerID.String(), doc.ID.String()), text); err != nil {
			return nil, ErrPersistence(err, "không lưu được nội dung tài liệu")
		}
	} else {
		doc.ExtractedText = text
	}

	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, ErrPersistence(err, "không lưu được tài liệu")
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "original_name", "file_type", "created_at", "updated_at").
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được danh sách tài liệu")
	}
	return docs, nil
}

// Get trả NotFound nếu không tồn tại, Unauthorized nếu không thuộc về ownerID
func (s *DocumentService) Get(ctx context.Context, documentID, ownerID uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound("không tìm thấy tài liệu")
	}
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được tài liệu")
	}
	if doc.UserID != ownerID {
		return nil, ErrUnauthorized("bạn không có quyền truy cập tài liệu này")
	}
	return &doc, nil
}

func (s *DocumentService) GetText(ctx context.Context, documentID, ownerID uuid.UUID) (string, error) {
	doc, err := s.Get(ctx, documentID, ownerID)
	if err != nil {
		return "", err
	}
	if s.storage == nil || doc.ExtractedText != "" {
		return doc.ExtractedText, nil
	}
	text, err := s.storage.DownloadText(utils.TextObjectPath(ownerID.String(), documentID.String()))
	if err != nil {
		return "", ErrPersistence(err, "không tải được nội dung tài liệu")
	}
	return text, nil
}

// Delete xoá tài liệu cùng mọi artifact, trạng thái thẻ và lịch sử ôn tập liên quan
func (s *DocumentService) Delete(ctx context.Context, documentID, ownerID uuid.UUID) error {
	if _, err := s.Get(ctx, documentID, ownerID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var artifactIDs []uuid.UUID
		if err := tx.Model(&models.Artifact{}).Where("document_id = ?", documentID).Pluck("id", &artifactIDs).Error; err != nil {
			return err
		}
		if err := deleteArtifactsTx(tx, artifactIDs); err != nil {
			return err
		}
		return tx.Delete(&models.Document{}, "id = ?", documentID).Error
	})
	if err != nil {
		return ErrPersistence(err, "không xoá được tài liệu")
	}
	if s.storage != nil {
		if err := s.storage.Remove(utils.TextObjectPath(ownerID.String(), documentID.String())); err != nil {
			s.log.Warn("Không xoá được file văn bản trên storage", "document_id", documentID, "error", err)
		}
	}
	return nil
}

func deleteArtifactsTx(tx *gorm.DB, artifactIDs []uuid.UUID) error {
	if len(artifactIDs) == 0 {
		return nil
	}
	for _, model := range []any{&models.CardState{}, &models.ReviewEvent{}, &models.QuizInteraction{}} {
		if err := tx.Where("artifact_id IN ?", artifactIDs).Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", artifactIDs).Delete(&models.Artifact{}).Error
}
