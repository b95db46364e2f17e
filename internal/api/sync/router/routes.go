// Package router đăng ký các route thuộc domain sync.
package router

import (
	"github.com/gofiber/fiber/v3"

	"edu_admin/internal/api/middleware"
	apirouter "edu_admin/internal/api/router"
	synchdl "edu_admin/internal/api/sync/handler"
	syncsvc "edu_admin/internal/api/sync/service"
)

// Register nhận SyncRunService dùng chung với scheduler worker và trả về
// RegisterFunc đăng ký các route sync lên v1.
func Register(runs *syncsvc.SyncRunService) apirouter.RegisterFunc {
	return func(v1 fiber.Router, r *apirouter.Router) error {
		handler := synchdl.NewSyncHandler(runs)

		actorMiddleware := middleware.ActorContextMiddleware()
		middlewares := []fiber.Handler{actorMiddleware}

		// GET /sync/jobs — danh sách job, filter + phân trang
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "GET", "/jobs", middlewares, handler.FindWithPagination)
		// POST /sync/jobs
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "POST", "/jobs", middlewares, handler.InsertOne)
		// GET /sync/jobs/:id
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "GET", "/jobs/:id", middlewares, handler.FindOneById)
		// PUT /sync/jobs/:id
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "PUT", "/jobs/:id", middlewares, handler.UpdateById)
		// DELETE /sync/jobs/:id — từ chối khi job có run đang chạy
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "DELETE", "/jobs/:id", middlewares, handler.DeleteJob)

		// POST /sync/jobs/:id/trigger — trigger manual, 409 khi đang chạy
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "POST", "/jobs/:id/trigger", middlewares, handler.TriggerRun)
		// POST /sync/jobs/:id/cancel — cancel run đang chạy của job
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "POST", "/jobs/:id/cancel", middlewares, handler.CancelJob)
		// GET /sync/jobs/:id/runs — lịch sử run của job
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "GET", "/jobs/:id/runs", middlewares, handler.FindRunsByJob)

		// GET /sync/runs/:id — chi tiết run
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "GET", "/runs/:id", middlewares, handler.FindRunById)
		// POST /sync/runs/:id/cancel — dừng hợp tác
		apirouter.RegisterRouteWithMiddleware(v1, "/sync", "POST", "/runs/:id/cancel", middlewares, handler.CancelRun)

		return nil
	}
}
