package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/hilman45/ai-exam-prep-tutor/services"
)

func TestStatusFor(t *testing.T) {
	cases := map[services.ErrorKind]int{
		services.KindNotFound:             http.StatusNotFound,
		services.KindUnauthorized:         http.StatusForbidden,
		services.KindInvalidInput:         http.StatusBadRequest,
		services.KindUnprocessableContent: http.StatusUnprocessableEntity,
		services.KindAllProvidersFailed:   http.StatusBadGateway,
		services.KindValidationFailed:     http.StatusInternalServerError,
		services.KindPersistence:          http.StatusServiceUnavailable,
	}
	for kind, want := range cases {
		if got := statusFor(kind); got != want {
			t.Errorf("%s: got %d want %d", kind, got, want)
		}
	}
}

func runRespond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, err)

	body := map[string]any{}
	if e := json.Unmarshal(w.Body.Bytes(), &body); e != nil {
		t.Fatal(e)
	}
	return w.Code, body
}

func TestRespondError(t *testing.T) {
	code, body := runRespond(t, services.ErrNotFound("không tìm thấy tài liệu"))
	if code != http.StatusNotFound || body["error"] != "không tìm thấy tài liệu" || body["code"] != "not_found" {
		t.Fatalf("not found: %d %v", code, body)
	}

	cascadeErr := &services.CascadeError{
		Task:     services.TaskMakeQuiz,
		Failures: []services.TierFailure{{Provider: "groq", Reason: "401 invalid api key sk-secret"}},
	}
	code, body = runRespond(t, fmt.Errorf("generate: %w", cascadeErr))
	if code != http.StatusBadGateway {
		t.Fatalf("cascade status %d", code)
	}
	if strings.Contains(body["error"].(string), "sk-secret") {
		t.Fatal("provider details must not leak to the client")
	}

	code, body = runRespond(t, errors.New("driver: bad connection"))
	if code != http.StatusServiceUnavailable || body["retryable"] != true {
		t.Fatalf("persistence: %d %v", code, body)
	}
	if strings.Contains(body["error"].(string), "driver") {
		t.Fatal("raw database error must not leak")
	}
}
