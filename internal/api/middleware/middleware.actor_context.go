package middleware

import (
	"github.com/gofiber/fiber/v3"

	"edu_admin/internal/logger"
)

// Actor mặc định khi request không khai báo header X-Actor.
// Các run do scheduler tạo dùng actor "system" (set trực tiếp trong worker, không qua HTTP).
const DefaultActor = "anonymous"

// ActorContextMiddleware đọc header X-Actor và lưu vào context.
// Actor được dùng để ghi nhận ai đã trigger các thao tác (audit attribution).
func ActorContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		actor := c.Get("X-Actor")
		if actor == "" {
			actor = DefaultActor
		}
		c.Locals("actor", actor)

		// Request mutating được ghi vào audit file — bản ghi Mongo chi tiết
		// do service của từng domain đảm nhiệm
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodDelete:
			logger.LogAction("http_"+c.Method(), c, map[string]interface{}{
				"path": c.Path(),
			})
		}

		return c.Next()
	}
}

// GetActor lấy actor từ context (đã được ActorContextMiddleware gán)
func GetActor(c fiber.Ctx) string {
	if actor, ok := c.Locals("actor").(string); ok && actor != "" {
		return actor
	}
	return DefaultActor
}
