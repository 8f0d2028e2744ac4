package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityLog records one HTTP request handled by the service.
// Uploaded image bytes are never stored; only the request metadata and
// the document type chosen by the user.
type ActivityLog struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID    string         `gorm:"type:varchar(36);index" json:"request_id"`
	Method       string         `gorm:"type:varchar(10);not null;index" json:"method"`
	Path         string         `gorm:"type:text;not null" json:"path"`
	UserAgent    string         `gorm:"type:text" json:"user_agent"`
	IPAddress    string         `gorm:"type:varchar(64)" json:"ip_address"`
	DocumentType string         `gorm:"type:varchar(50);index" json:"document_type,omitempty"`
	Filename     string         `gorm:"type:text" json:"filename,omitempty"`
	QueryParams  string         `gorm:"type:text" json:"query_params,omitempty"`
	StatusCode   int            `json:"status_code"`
	Outcome      string         `gorm:"type:varchar(20);index" json:"outcome,omitempty"` // success, error
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	ResponseTime int64          `json:"response_time"` // milliseconds
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// ActivityLogStats summarises the activity log table
type ActivityLogStats struct {
	TotalRequests   int64            `json:"total_requests"`
	SuccessCount    int64            `json:"success_count"`
	ErrorCount      int64            `json:"error_count"`
	AvgResponseTime float64          `json:"avg_response_time"`
	ByDocumentType  map[string]int64 `json:"by_document_type"`
}
