// Package router đăng ký các route thuộc domain audit.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	audithdl "edu_admin/internal/api/audit/handler"
	"edu_admin/internal/api/middleware"
	apirouter "edu_admin/internal/api/router"
)

// Register đăng ký các route audit lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	handler, err := audithdl.NewAuditHandler()
	if err != nil {
		return fmt.Errorf("tạo AuditHandler: %w", err)
	}

	actorMiddleware := middleware.ActorContextMiddleware()
	middlewares := []fiber.Handler{actorMiddleware}

	// GET /audit/events — filter theo module, level, runId + phân trang
	apirouter.RegisterRouteWithMiddleware(v1, "/audit", "GET", "/events", middlewares, handler.FindEvents)

	return nil
}
