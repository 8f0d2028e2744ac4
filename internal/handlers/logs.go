package handlers

import (
	"net/http"
	"strconv"

	"ID-ENRICH/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

type LogsHandler struct {
	activityLogService *services.ActivityLogService
}

func NewLogsHandler(activityLogService *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
	}
}

func (h *LogsHandler) requireEnabled(c *gin.Context) bool {
	if !h.activityLogService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Activity log is disabled"})
		return false
	}
	return true
}

// GetAllLogs returns paginated activity log entries, newest first
// GET /api/v1/logs?limit=&offset=&document_type=
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	if !h.requireEnabled(c) {
		return
	}

	limit := defaultLogLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLogLimit {
			limit = parsed
		}
	}
	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	logs, total, err := h.activityLogService.GetAllLogs(c.Query("document_type"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetLogStats returns aggregate request counts and latency
// GET /api/v1/logs/stats
func (h *LogsHandler) GetLogStats(c *gin.Context) {
	if !h.requireEnabled(c) {
		return
	}

	stats, err := h.activityLogService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
	})
}
