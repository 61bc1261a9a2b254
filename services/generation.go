package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hilman45/ai-exam-prep-tutor/logger"
	"github.com/hilman45/ai-exam-prep-tutor/models"
)

// ProgressEvent báo tiến độ sinh artifact cho client (qua websocket)
type ProgressEvent struct {
	DocumentID string              `json:"document_id"`
	UserID     string              `json:"-"`
	Kind       models.ArtifactKind `json:"kind"`
	Stage      string              `json:"stage"` // started | chunk_done | completed | failed
	Progress   int                 `json:"progress"`
	Error      string              `json:"error,omitempty"`
}

type ProgressNotifier interface {
	NotifyProgress(ev ProgressEvent)
}

type GenerationOptions struct {
	ChunkSize   int
	ChunkWindow int
}

type GenerationService struct {
	db       *gorm.DB
	gate     *ArtifactGate
	docs     DocumentStore
	cascade  *Cascade
	notifier ProgressNotifier
	log      *logger.Logger
	opts     GenerationOptions
}

func NewGenerationService(db *gorm.DB, gate *ArtifactGate, docs DocumentStore, cascade *Cascade, notifier ProgressNotifier, opts GenerationOptions, log *logger.Logger) *GenerationService {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 4000
	}
	if opts.ChunkWindow < 0 {
		opts.ChunkWindow = 300
	}
	return &GenerationService{db: db, gate: gate, docs: docs, cascade: cascade, notifier: notifier, log: log, opts: opts}
}

type GenerateResult struct {
	Artifact *models.Artifact `json:"artifact"`
	Cached   bool             `json:"cached"`
}

type buildFunc func(ctx context.Context, chunks []string, progress ProgressFunc) (any, []string, error)

func (s *GenerationService) GenerateSummary(ctx context.Context, documentID, userID uuid.UUID, style string) (GenerateResult, error) {
	if style == "" {
		style = StyleNormal
	}
	if style != StyleNormal && style != StyleBullets {
		return GenerateResult{}, ErrInvalidInput("style phải là normal hoặc bullet_points")
	}
	key := ArtifactKey{DocumentID: documentID, UserID: userID, Kind: models.KindSummary}
	return s.generate(ctx, key, func(ctx context.Context, chunks []string, progress ProgressFunc) (any, []string, error) {
		res, err := s.cascade.Summarize(ctx, chunks, style, progress)
		if err != nil {
			return nil, nil, err
		}
		return models.SummaryPayload{Text: res.Text, Style: style}, res.Providers, nil
	})
}

func (s *GenerationService) GenerateQuiz(ctx context.Context, documentID, userID uuid.UUID, count int) (GenerateResult, error) {
	key := ArtifactKey{DocumentID: documentID, UserID: userID, Kind: models.KindQuiz}
	return s.generate(ctx, key, func(ctx context.Context, chunks []string, progress ProgressFunc) (any, []string, error) {
		questions, providers, err := s.cascade.Quiz(ctx, chunks, count, progress)
		if err != nil {
			return nil, nil, err
		}
		return models.QuizPayload{Questions: questions}, providers, nil
	})
}

func (s *GenerationService) GenerateFlashcards(ctx context.Context, documentID, userID uuid.UUID, count int) (GenerateResult, error) {
	key := ArtifactKey{DocumentID: documentID, UserID: userID, Kind: models.KindFlashcards}
	return s.generate(ctx, key, func(ctx context.Context, chunks []string, progress ProgressFunc) (any, []string, error) {
		cards, providers, err := s.cascade.Flashcards(ctx, chunks, count, progress)
		if err != nil {
			return nil, nil, err
		}
		return models.FlashcardPayload{Cards: cards}, providers, nil
	})
}

// generate chạy trên context không bị huỷ theo request: client ngắt kết nối không làm dở dang việc sinh
func (s *GenerationService) generate(ctx context.Context, key ArtifactKey, build buildFunc) (GenerateResult, error) {
	ctx = context.WithoutCancel(ctx)
	log := s.log.With("document_id", key.DocumentID, "kind", key.Kind)

	artifact, cached, err := s.gate.GetOrCreate(ctx, key, func(ctx context.Context) (GeneratedContent, error) {
		s.notify(key, "started", 0, "")
		text, err := s.docs.GetText(ctx, key.DocumentID, key.UserID)
		if err != nil {
			return GeneratedContent{}, err
		}
		text = PreCleanText(text)
		if !Usable(text) {
			return GeneratedContent{}, ErrUnprocessable("tài liệu không có đủ nội dung văn bản")
		}
		chunks := ChunkTextWindow(text, s.opts.ChunkSize, s.opts.ChunkWindow)
		log.Info("Bắt đầu sinh artifact", "chunks", len(chunks))

		payload, providers, err := build(ctx, chunks, func(done, total int) {
			s.notify(key, "chunk_done", done*90/total, "")
		})
		if err != nil {
			return GeneratedContent{}, err
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return GeneratedContent{}, err
		}
		return GeneratedContent{Payload: datatypes.JSON(data), Providers: strings.Join(providers, ",")}, nil
	})
	if err != nil {
		if k := KindOf(err); k != KindNotFound && k != KindUnauthorized {
			s.notify(key, "failed", 0, err.Error())
			log.Error("Sinh artifact thất bại", "error", err)
		}
		return GenerateResult{}, err
	}
	if !cached {
		s.notify(key, "completed", 100, "")
		log.Info("Đã sinh artifact", "artifact_id", artifact.ID, "providers", artifact.Providers)
	}
	return GenerateResult{Artifact: artifact, Cached: cached}, nil
}

func (s *GenerationService) notify(key ArtifactKey, stage string, progress int, errMsg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyProgress(ProgressEvent{
		DocumentID: key.DocumentID.String(),
		UserID:     key.UserID.String(),
		Kind:       key.Kind,
		Stage:      stage,
		Progress:   progress,
		Error:      errMsg,
	})
}

func (s *GenerationService) GetArtifact(ctx context.Context, artifactID, userID uuid.UUID) (*models.Artifact, error) {
	return loadOwnedArtifact(ctx, s.db, artifactID, userID, "")
}

func (s *GenerationService) ListArtifacts(ctx context.Context, documentID, userID uuid.UUID) ([]models.Artifact, error) {
	var out []models.Artifact
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentID, userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, ErrPersistence(err, "không đọc được danh sách artifact")
	}
	return out, nil
}

// DeleteArtifact xoá artifact cùng trạng thái thẻ và lịch sử; lần gọi generate sau sẽ sinh lại
func (s *GenerationService) DeleteArtifact(ctx context.Context, artifactID, userID uuid.UUID) error {
	if _, err := loadOwnedArtifact(ctx, s.db, artifactID, userID, ""); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteArtifactsTx(tx, []uuid.UUID{artifactID})
	})
	if err != nil {
		return ErrPersistence(err, "không xoá được artifact")
	}
	return nil
}

type ArtifactUpdate struct {
	Payload     json.RawMessage
	DisplayName *string
}

// UpdateArtifact cho phép người dùng sửa nội dung hoặc đặt tên; nội dung mới phải hợp lệ hoàn toàn
func (s *GenerationService) UpdateArtifact(ctx context.Context, artifactID, userID uuid.UUID, upd ArtifactUpdate) (*models.Artifact, error) {
	a, err := loadOwnedArtifact(ctx, s.db, artifactID, userID, "")
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if len(upd.Payload) > 0 {
		normalized, err := validatePayload(a.Kind, upd.Payload)
		if err != nil {
			return nil, err
		}
		updates["payload"] = datatypes.JSON(normalized)
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			updates["display_name"] = nil
		} else {
			updates["display_name"] = name
		}
	}
	if len(updates) == 0 {
		return a, nil
	}
	if err := s.db.WithContext(ctx).Model(a).Updates(updates).Error; err != nil {
		return nil, ErrPersistence(err, "không cập nhật được artifact")
	}
	return loadOwnedArtifact(ctx, s.db, artifactID, userID, "")
}

func validatePayload(kind models.ArtifactKind, raw json.RawMessage) ([]byte, error) {
	switch kind {
	case models.KindSummary:
		var p models.SummaryPayload
		if err := json.Unmarshal(raw, &p); err != nil || strings.TrimSpace(p.Text) == "" {
			return nil, ErrInvalidInput("nội dung tóm tắt không hợp lệ")
		}
		if p.Style == "" {
			p.Style = StyleNormal
		}
		if p.Style != StyleNormal && p.Style != StyleBullets {
			return nil, ErrInvalidInput("style phải là normal hoặc bullet_points")
		}
		return json.Marshal(p)
	case models.KindQuiz:
		var p models.QuizPayload
		if err := json.Unmarshal(raw, &p); err != nil || len(p.Questions) < MinValidItems {
			return nil, ErrInvalidInput("quiz cần ít nhất %d câu hỏi", MinValidItems)
		}
		for i, q := range p.Questions {
			if !ValidQuizQuestion(q) {
				return nil, ErrInvalidInput("câu hỏi số %d không hợp lệ", i+1)
			}
		}
		return json.Marshal(p)
	case models.KindFlashcards:
		var p models.FlashcardPayload
		if err := json.Unmarshal(raw, &p); err != nil || len(p.Cards) < MinValidItems {
			return nil, ErrInvalidInput("bộ thẻ cần ít nhất %d thẻ", MinValidItems)
		}
		for i, c := range p.Cards {
			if !ValidFlashcard(c) {
				return nil, ErrInvalidInput("thẻ số %d không hợp lệ", i+1)
			}
		}
		return json.Marshal(p)
	}
	return nil, ErrInvalidInput("loại artifact không hợp lệ")
}

// ChatWithNotes trả lời câu hỏi dựa trên ghi chú người dùng gửi kèm
func (s *GenerationService) ChatWithNotes(ctx context.Context, message, notes string) (string, string, error) {
	if strings.TrimSpace(notes) == "" {
		return "", "", ErrInvalidInput("ghi chú không được để trống")
	}
	return s.cascade.Chat(ctx, Payload{Message: message, Text: notes, Mode: ChatNotes})
}

func (s *GenerationService) ChatWithQuiz(ctx context.Context, message string, quiz QuizChatContext) (string, string, error) {
	return s.cascade.Chat(ctx, Payload{Message: message, Mode: ChatQuiz, Quiz: &quiz})
}

// QuizChatFromArtifact dựng ngữ cảnh hỏi đáp từ một quiz đã lưu
func (s *GenerationService) QuizChatFromArtifact(ctx context.Context, artifactID, userID uuid.UUID, questionIndex *int, userAnswer string) (QuizChatContext, error) {
	a, err := loadOwnedArtifact(ctx, s.db, artifactID, userID, models.KindQuiz)
	if err != nil {
		return QuizChatContext{}, err
	}
	p, err := a.Quiz()
	if err != nil {
		return QuizChatContext{}, ErrPersistence(err, "dữ liệu quiz bị hỏng")
	}
	qc := QuizChatContext{UserAnswer: userAnswer}
	if a.DisplayName != nil {
		qc.QuizName = *a.DisplayName
	}
	if questionIndex != nil {
		if *questionIndex < 0 || *questionIndex >= len(p.Questions) {
			return QuizChatContext{}, ErrInvalidInput("question_index nằm ngoài phạm vi")
		}
		q := p.Questions[*questionIndex]
		qc.Question, qc.Options = q.Text, q.Options
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
			qc.CorrectAnswer = q.Options[q.CorrectIndex]
		}
		return qc, nil
	}
	for _, q := range p.Questions {
		qc.AllQuestions = append(qc.AllQuestions, QuizQuestionBrief{Question: q.Text, Options: q.Options, CorrectIndex: q.CorrectIndex})
	}
	return qc, nil
}
