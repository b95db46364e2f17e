// Package router đăng ký các route thuộc domain student.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"edu_admin/internal/api/middleware"
	apirouter "edu_admin/internal/api/router"
	studenthdl "edu_admin/internal/api/student/handler"
)

// Register đăng ký các route students lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	handler, err := studenthdl.NewStudentHandler()
	if err != nil {
		return fmt.Errorf("tạo StudentHandler: %w", err)
	}

	actorMiddleware := middleware.ActorContextMiddleware()
	middlewares := []fiber.Handler{actorMiddleware}

	// GET /students/:email/products — toàn bộ record của học viên
	apirouter.RegisterRouteWithMiddleware(v1, "/students", "GET", "/:email/products", middlewares, handler.FindProducts)
	// POST /students/:email/recalculate — tính lại metrics, cho phép hạ status
	apirouter.RegisterRouteWithMiddleware(v1, "/students", "POST", "/:email/recalculate", middlewares, handler.Recalculate)

	return nil
}
