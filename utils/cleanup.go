package utils

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// CleanupOrphans xoá trạng thái thẻ, lịch sử ôn và câu trả lời quiz của artifact đã bị xoá.
// Trả về tổng số dòng đã xoá.
func CleanupOrphans(db *gorm.DB, log *logger.Logger) (int64, error) {
	var total int64
	for _, m := range []any{&models.CardState{}, &models.ReviewEvent{}, &models.QuizInteraction{}} {
		artifacts := db.Model(&models.Artifact{}).Select("id")
		result := db.Where("artifact_id NOT IN (?)", artifacts).Delete(m)
		if result.Error != nil {
			log.Error("Lỗi khi dọn dữ liệu mồ côi", "error", result.Error)
			return total, result.Error
		}
		total += result.RowsAffected
	}
	if total > 0 {
		log.Info("Đã dọn dữ liệu mồ côi", "rows", total)
	}
	return total, nil
}

// StartCleanupJob chạy cleanup ngay lần đầu rồi lặp theo lịch cron (mặc định mỗi 6 giờ)
func StartCleanupJob(db *gorm.DB, log *logger.Logger, spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = "@every 6h"
	}

	log.Info("Đang chạy cleanup lần đầu...")
	if _, err := CleanupOrphans(db, log); err != nil {
		log.Warn("Cleanup lần đầu thất bại", "error", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		log.Debug("Cleanup job được kích hoạt...")
		_, _ = CleanupOrphans(db, log)
	}); err != nil {
		return nil, err
	}
	c.Start()

	log.Info("Cleanup job đã được khởi động", "schedule", spec)
	return c, nil
}
