// Package audithdl - Handler truy vấn audit log (read-only).
package audithdl

import (
	"github.com/gofiber/fiber/v3"

	auditsvc "edu_admin/internal/api/audit/service"
	basehdl "edu_admin/internal/api/base/handler"
)

// AuditHandler xử lý API audit. Audit log chỉ đọc qua HTTP — event chỉ
// được ghi bởi pipeline, không có endpoint ghi/xóa.
type AuditHandler struct {
	events *auditsvc.AuditEventService
}

// NewAuditHandler tạo AuditHandler mới
func NewAuditHandler() (*AuditHandler, error) {
	events, err := auditsvc.NewAuditEventService()
	if err != nil {
		return nil, err
	}
	return &AuditHandler{events: events}, nil
}

// FindEvents liệt kê audit event theo module/level/runId, mới nhất trước
func (h *AuditHandler) FindEvents(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		qf := auditsvc.QueryFilter{
			Module: c.Query("module"),
			Level:  c.Query("level"),
			RunID:  c.Query("runId"),
		}
		page, limit := basehdl.ParsePagination(c)
		result, err := h.events.Query(c.Context(), qf, page, limit)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}
