package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprep_provider_attempts_total",
		Help: "Số lần gọi từng tầng AI theo tác vụ và kết quả",
	}, []string{"provider", "task", "outcome"})

	providerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "examprep_provider_duration_seconds",
		Help:    "Thời gian phản hồi của từng tầng AI",
		Buckets: []float64{0.05, 0.25, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"provider", "task"})

	artifactRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprep_artifact_requests_total",
		Help: "Số yêu cầu tạo artifact, phân theo loại và có lấy từ cache hay không",
	}, []string{"kind", "cached"})

	reviewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprep_reviews_total",
		Help: "Số lượt ôn flashcard theo mức đánh giá",
	}, []string{"rating"})

	sideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "examprep_side_effect_failures_total",
		Help: "Lỗi của các tác vụ phụ (thống kê, chuỗi ngày học) không làm hỏng thao tác chính",
	}, []string{"effect"})
)

const (
	outcomeSuccess     = "success"
	outcomeError       = "error"
	outcomeInvalid     = "invalid"
	outcomeSkipped     = "skipped"
	outcomeTimeout     = "timeout"
	outcomeUnsupported = "unsupported"
)
