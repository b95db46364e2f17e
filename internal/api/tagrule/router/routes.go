// Package router đăng ký các route thuộc domain tagrule.
package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"edu_admin/internal/api/middleware"
	apirouter "edu_admin/internal/api/router"
	tagrulehdl "edu_admin/internal/api/tagrule/handler"
)

// Register đăng ký tất cả route tag-rules lên v1.
func Register(v1 fiber.Router, r *apirouter.Router) error {
	ruleHandler, err := tagrulehdl.NewTagRuleHandler()
	if err != nil {
		return fmt.Errorf("tạo TagRuleHandler: %w", err)
	}

	actorMiddleware := middleware.ActorContextMiddleware()
	middlewares := []fiber.Handler{actorMiddleware}

	// GET /tag-rules — danh sách rule, filter + phân trang
	apirouter.RegisterRouteWithMiddleware(v1, "/tag-rules", "GET", "/", middlewares, ruleHandler.FindWithPagination)
	// GET /tag-rules/:id
	apirouter.RegisterRouteWithMiddleware(v1, "/tag-rules", "GET", "/:id", middlewares, ruleHandler.FindOneById)
	// POST /tag-rules
	apirouter.RegisterRouteWithMiddleware(v1, "/tag-rules", "POST", "/", middlewares, ruleHandler.InsertOne)
	// PUT /tag-rules/:id
	apirouter.RegisterRouteWithMiddleware(v1, "/tag-rules", "PUT", "/:id", middlewares, ruleHandler.UpdateById)
	// DELETE /tag-rules/:id
	apirouter.RegisterRouteWithMiddleware(v1, "/tag-rules", "DELETE", "/:id", middlewares, ruleHandler.DeleteById)

	return nil
}
