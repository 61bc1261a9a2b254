package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// UserService cho admin xem và khoá/mở tài khoản nội bộ
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService { return &UserService{db: db} }

// List tìm theo email hoặc họ tên (không phân biệt hoa thường), mới nhất trước
func (s *UserService) List(ctx context.Context, search string) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{}).Order("created_at DESC")
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, ErrPersistence(err, "không đọc được danh sách người dùng")
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound("không tìm thấy người dùng")
	}
	if err != nil {
		return models.User{}, ErrPersistence(err, "không đọc được người dùng")
	}
	return u, nil
}

// SetActive mở hoặc khoá tài khoản; admin không tự khoá chính mình
func (s *UserService) SetActive(ctx context.Context, actorID, id uuid.UUID, active bool) (models.User, error) {
	if !active && actorID == id {
		return models.User{}, ErrInvalidInput("không thể tự khoá tài khoản của chính mình")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	if err := s.db.WithContext(ctx).Model(&u).Update("status", active).Error; err != nil {
		return models.User{}, ErrPersistence(err, "không cập nhật được trạng thái tài khoản")
	}
	u.Status = &active
	return u, nil
}
