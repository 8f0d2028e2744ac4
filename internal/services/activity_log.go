package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"ID-ENRICH/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gin context keys handlers use to annotate the activity log entry
const (
	CtxRequestID    = "request_id"
	CtxDocumentType = "document_type"
	CtxFilename     = "filename"
	CtxErrorMessage = "error_message"
)

const RequestIDHeader = "X-Request-ID"

// sanitizeUTF8 ensures the string is valid UTF-8, replacing invalid bytes
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// ActivityLogService records request metadata. With a nil database it only
// tags requests with an ID and persists nothing.
type ActivityLogService struct {
	db      *gorm.DB
	save    func(entry *models.ActivityLog) error
	pending sync.WaitGroup
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	s := &ActivityLogService{db: db}
	if db != nil {
		s.save = func(entry *models.ActivityLog) error {
			return db.Create(entry).Error
		}
	}
	return s
}

// Enabled reports whether log entries are persisted
func (s *ActivityLogService) Enabled() bool {
	return s != nil && s.save != nil
}

// Wait blocks until every entry handed to the background writer is saved.
// Call it after the HTTP server has shut down and before closing the DB.
func (s *ActivityLogService) Wait() {
	s.pending.Wait()
}

// LoggingMiddleware assigns a request ID and stores one entry per request
// after the handler has run. The upload body is never read here.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}
		c.Set(CtxRequestID, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		if !s.Enabled() {
			return
		}
		entry := s.buildEntry(c, c.Writer.Status(), time.Since(start))

		// Save in the background so logging never delays the response
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			if err := s.save(entry); err != nil {
				log.Printf("[ActivityLog] failed to save entry %s: %v", entry.ID, err)
			}
		}()
	}
}

func (s *ActivityLogService) buildEntry(c *gin.Context, statusCode int, responseTime time.Duration) *models.ActivityLog {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	var queryParamsJSON string
	if len(queryParams) > 0 {
		b, _ := json.Marshal(queryParams)
		queryParamsJSON = string(b)
	}

	errMsg := c.GetString(CtxErrorMessage)
	outcome := "success"
	if errMsg != "" || statusCode >= 400 {
		outcome = "error"
	}

	now := time.Now()
	return &models.ActivityLog{
		ID:           uuid.New().String(),
		RequestID:    c.GetString(CtxRequestID),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		UserAgent:    sanitizeUTF8(c.Request.UserAgent()),
		IPAddress:    clientIP,
		DocumentType: c.GetString(CtxDocumentType),
		Filename:     sanitizeUTF8(c.GetString(CtxFilename)),
		QueryParams:  queryParamsJSON,
		StatusCode:   statusCode,
		Outcome:      outcome,
		ErrorMessage: sanitizeUTF8(errMsg),
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// GetAllLogs returns the most recent entries first, optionally narrowed to
// one document type
func (s *ActivityLogService) GetAllLogs(documentType string, limit, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	query := s.db.Model(&models.ActivityLog{})
	if documentType != "" {
		query = query.Where("document_type = ?", documentType)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// GetStats aggregates outcomes and latency over all entries
func (s *ActivityLogService) GetStats() (*models.ActivityLogStats, error) {
	stats := &models.ActivityLogStats{ByDocumentType: map[string]int64{}}

	if err := s.db.Model(&models.ActivityLog{}).Count(&stats.TotalRequests).Error; err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}
	if err := s.db.Model(&models.ActivityLog{}).Where("outcome = ?", "success").Count(&stats.SuccessCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count successful requests: %w", err)
	}
	if err := s.db.Model(&models.ActivityLog{}).Where("outcome = ?", "error").Count(&stats.ErrorCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed requests: %w", err)
	}

	var avg struct{ Avg float64 }
	if err := s.db.Model(&models.ActivityLog{}).Select("COALESCE(AVG(response_time), 0) AS avg").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("failed to average response time: %w", err)
	}
	stats.AvgResponseTime = avg.Avg

	var rows []struct {
		DocumentType string
		Count        int64
	}
	if err := s.db.Model(&models.ActivityLog{}).
		Select("document_type, COUNT(*) AS count").
		Where("document_type <> ''").
		Group("document_type").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to group by document type: %w", err)
	}
	for _, r := range rows {
		stats.ByDocumentType[r.DocumentType] = r.Count
	}

	return stats, nil
}
