package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hilman45/ai-exam-prep-tutor/models"
)

type ArtifactKey struct {
	DocumentID uuid.UUID
	UserID     uuid.UUID
	Kind       models.ArtifactKind
}

func (k ArtifactKey) String() string {
	return fmt.Sprintf("artifact:%s:%s:%s", k.DocumentID, k.UserID, k.Kind)
}

// GeneratedContent là kết quả của hàm sinh khi cache chưa có
type GeneratedContent struct {
	Payload   datatypes.JSON
	Providers string
}

// ArtifactGate đảm bảo mỗi (tài liệu, người dùng, loại) chỉ sinh một lần
type ArtifactGate struct {
	db     *gorm.DB
	locker KeyLocker
	// thời gian tối đa chờ khoá; sinh nội dung lâu hơn vẫn được bảo vệ bởi unique index
	lockWait time.Duration
}

func NewArtifactGate(db *gorm.DB, locker KeyLocker) *ArtifactGate {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &ArtifactGate{db: db, locker: locker, lockWait: 10 * time.Minute}
}

// GetOrCreate trả artifact đã có (wasCached=true) hoặc gọi generate và lưu.
// Hai lời gọi đồng thời cùng khoá chỉ tạo một bản ghi.
func (g *ArtifactGate) GetOrCreate(ctx context.Context, key ArtifactKey, generate func(context.Context) (GeneratedContent, error)) (*models.Artifact, bool, error) {
	if existing, err := g.find(ctx, key); err != nil {
		return nil, false, err
	} else if existing != nil {
		artifactRequests.WithLabelValues(string(key.Kind), "true").Inc()
		return existing, true, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, g.lockWait)
	unlock, err := g.locker.Lock(lockCtx, key.String())
	cancel()
	if err != nil {
		return nil, false, ErrPersistence(err, "không lấy được khoá sinh artifact")
	}
	defer unlock()

	if existing, err := g.find(ctx, key); err != nil {
		return nil, false, err
	} else if existing != nil {
		artifactRequests.WithLabelValues(string(key.Kind), "true").Inc()
		return existing, true, nil
	}

	content, err := generate(ctx)
	if err != nil {
		return nil, false, err
	}

	artifact := &models.Artifact{
		DocumentID: key.DocumentID,
		UserID:     key.UserID,
		Kind:       key.Kind,
		Payload:    content.Payload,
		Providers:  content.Providers,
	}
	res := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "user_id"}, {Name: "kind"}},
			DoNothing: true,
		}).
		Create(artifact)
	if res.Error != nil {
		return nil, false, ErrPersistence(res.Error, "không lưu được artifact")
	}
	if res.RowsAffected == 0 {
		// tiến trình khác đã ghi trước
		winner, err := g.find(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if winner == nil {
			return nil, false, ErrPersistence(nil, "artifact vừa được tạo nhưng không đọc lại được")
		}
		artifactRequests.WithLabelValues(string(key.Kind), "true").Inc()
		return winner, true, nil
	}

	artifactRequests.WithLabelValues(string(key.Kind), "false").Inc()
	return artifact, false, nil
}

func (g *ArtifactGate) find(ctx context.Context, key ArtifactKey) (*models.Artifact, error) {
	var a models.Artifact
	err := g.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ? AND kind = ?", key.DocumentID, key.UserID, key.Kind).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được artifact")
	}
	return &a, nil
}
