package logger

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// AuditAction log một hành động audit phát sinh từ HTTP request
type AuditAction struct {
	Action    string                 `json:"action"`     // Tên hành động (ví dụ: "job_trigger", "rule_create")
	Actor     string                 `json:"actor"`      // Định danh người/hệ thống thực hiện
	IP        string                 `json:"ip"`         // IP address
	UserAgent string                 `json:"user_agent"` // User agent
	Details   map[string]interface{} `json:"details"`    // Chi tiết bổ sung
	Timestamp time.Time              `json:"timestamp"`  // Thời gian
}

// LogAction log một hành động audit từ fiber context
func LogAction(action string, c fiber.Ctx, details map[string]interface{}) {
	auditLogger := GetAuditLogger()

	if details == nil {
		details = make(map[string]interface{})
	}

	audit := AuditAction{
		Action:    action,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Details:   details,
		Timestamp: time.Now(),
	}

	// Actor từ header (không có auth layer — actor do client khai báo, chỉ dùng cho audit)
	if actor := c.Get("X-Actor"); actor != "" {
		audit.Actor = actor
	}

	// Lấy request ID
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		audit.Details["request_id"] = requestID
	}

	auditLogger.WithFields(logrus.Fields{
		"action":     audit.Action,
		"actor":      audit.Actor,
		"ip":         audit.IP,
		"user_agent": audit.UserAgent,
		"details":    audit.Details,
		"timestamp":  audit.Timestamp,
	}).Info("Audit log")
}

// LogEngineEvent log một sự kiện engine (decision, external call) vào audit file.
// Bản ghi Mongo tương ứng do auditsvc đảm nhiệm; file log là bản mirror để grep nhanh.
func LogEngineEvent(module, action, level string, fields map[string]interface{}) {
	logFields := logrus.Fields{"module": module, "action": action}
	for k, v := range fields {
		logFields[k] = v
	}
	entry := GetAuditLogger().WithFields(logFields)
	switch level {
	case "ERROR", "CRITICAL":
		entry.Error(action)
	case "WARN":
		entry.Warn(action)
	default:
		entry.Info(action)
	}
}
