// Package router đăng ký các route thuộc domain lifecycle.
package router

import (
	"github.com/gofiber/fiber/v3"

	lifecyclehdl "edu_admin/internal/api/lifecycle/handler"
	lifecyclesvc "edu_admin/internal/api/lifecycle/service"
	"edu_admin/internal/api/middleware"
	apirouter "edu_admin/internal/api/router"
)

// Register trả về RegisterFunc cho domain lifecycle.
// Actuator được inject từ cmd/server vì dùng chung với pipeline scheduler.
func Register(actuator *lifecyclesvc.Actuator) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		handler := lifecyclehdl.NewLifecycleHandler(actuator)

		actorMiddleware := middleware.ActorContextMiddleware()
		middlewares := []fiber.Handler{actorMiddleware}

		// POST /lifecycle/role-transitions — chạy một transition cho một account
		apirouter.RegisterRouteWithMiddleware(v1, "/lifecycle", "POST", "/role-transitions", middlewares, handler.HandleRoleTransition)

		return nil
	}
}
