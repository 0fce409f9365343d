package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
)

func TestRespondFromUsesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/download", nil)
	c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{RequestID: "req-1"}))

	RespondFrom(c, domainagg.NewError(domainagg.CodeGone, "op", "Version not available", nil))

	if rec.Code != http.StatusGone {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusGone)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "Version not available" || env.Error.Code != "gone" || env.Error.RequestID != "req-1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRespondFromHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/skills/publish", nil)

	RespondFrom(c, domainagg.NewError(domainagg.CodeInternal, "op", "pq: connection refused", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got=%d", rec.Code)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Message != "internal error" || env.Error.RequestID != "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(c.Errors) != 1 {
		t.Fatalf("error not attached to context")
	}
}
