package services

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ID-ENRICH/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoggingMiddlewareRequestID(t *testing.T) {
	svc := NewActivityLogService(nil)
	if svc.Enabled() {
		t.Fatal("service without database should be disabled")
	}

	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = c.GetString(CtxRequestID)
		c.Status(http.StatusOK)
	})

	// Generated when absent
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("response request ID %q is not a UUID", id)
	}
	if seen != id {
		t.Errorf("context request ID %q != header %q", seen, id)
	}

	// Propagated when valid
	incoming := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != incoming {
		t.Errorf("request ID = %q, want %q", got, incoming)
	}

	// Replaced when not a UUID
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got == "<script>" {
		t.Error("invalid request ID should be replaced")
	}
}

func TestBuildEntry(t *testing.T) {
	svc := NewActivityLogService(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/extract?debug=1", nil)
	c.Request.Header.Set("User-Agent", "curl/8.0")
	c.Set(CtxRequestID, "req-1")
	c.Set(CtxDocumentType, "identification-card")
	c.Set(CtxFilename, "card.jpg")
	c.Set(CtxErrorMessage, "No text detected in the image.")

	entry := svc.buildEntry(c, http.StatusOK, 1500*time.Millisecond)

	if entry.RequestID != "req-1" || entry.Method != http.MethodPost || entry.Path != "/api/v1/extract" {
		t.Errorf("unexpected request fields: %+v", entry)
	}
	if entry.DocumentType != "identification-card" || entry.Filename != "card.jpg" {
		t.Errorf("unexpected document fields: %+v", entry)
	}
	if entry.Outcome != "error" || entry.ErrorMessage != "No text detected in the image." {
		t.Errorf("pipeline error in a 200 response should be an error outcome: %+v", entry)
	}
	if entry.QueryParams != `{"debug":"1"}` {
		t.Errorf("QueryParams = %q", entry.QueryParams)
	}
	if entry.ResponseTime != 1500 {
		t.Errorf("ResponseTime = %d", entry.ResponseTime)
	}
	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Errorf("ID %q is not a UUID", entry.ID)
	}
}

func TestBuildEntrySuccess(t *testing.T) {
	svc := NewActivityLogService(nil)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	entry := svc.buildEntry(c, http.StatusOK, time.Millisecond)
	if entry.Outcome != "success" || entry.QueryParams != "" {
		t.Errorf("unexpected entry %+v", entry)
	}

	entry = svc.buildEntry(c, http.StatusInternalServerError, time.Millisecond)
	if entry.Outcome != "error" {
		t.Errorf("5xx should be an error outcome, got %q", entry.Outcome)
	}
}

func TestSanitizeUTF8(t *testing.T) {
	if got := sanitizeUTF8("สมชาย"); got != "สมชาย" {
		t.Errorf("valid UTF-8 changed: %q", got)
	}
	if got := sanitizeUTF8("ab\xffcd"); got != "ab�cd" {
		t.Errorf("sanitizeUTF8 = %q", got)
	}
}

func TestLoggingMiddlewareWaitDrainsWrites(t *testing.T) {
	var saved atomic.Int32
	release := make(chan struct{})
	svc := &ActivityLogService{save: func(entry *models.ActivityLog) error {
		<-release
		saved.Add(1)
		return nil
	}}

	r := gin.New()
	r.Use(svc.LoggingMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned while writes were still pending")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after writes finished")
	}
	if n := saved.Load(); n != 3 {
		t.Errorf("saved %d entries, want 3", n)
	}
}
