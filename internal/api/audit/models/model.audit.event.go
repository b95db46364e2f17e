// Package models - AuditEvent thuộc domain audit (audit_events).
// Log append-only cho mọi quyết định và kết quả lời gọi ra hệ thống ngoài.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các level của audit event
const (
	LevelInfo     = "INFO"
	LevelWarn     = "WARN"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// ValidLevel kiểm tra level có hợp lệ không
func ValidLevel(level string) bool {
	switch level {
	case LevelInfo, LevelWarn, LevelError, LevelCritical:
		return true
	}
	return false
}

// AuditEvent là một record audit (audit_events). Append-only: tạo rồi không
// bao giờ update hay delete.
type AuditEvent struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Module    string                 `json:"module" bson:"module"` // sync | tagrule | lifecycle | scheduler
	Action    string                 `json:"action" bson:"action"`
	Level     string                 `json:"level" bson:"level"` // INFO | WARN | ERROR | CRITICAL
	Payload   map[string]interface{} `json:"payload,omitempty" bson:"payload,omitempty"`
	RunID     string                 `json:"runId,omitempty" bson:"runId,omitempty"` // Run sinh ra event, rỗng nếu ngoài run
	Timestamp int64                  `json:"timestamp" bson:"timestamp"`             // Unix ms

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}
