// Package synchdl - Handler job đồng bộ và run: CRUD job, trigger/cancel
// run, truy vấn lịch sử run.
package synchdl

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gofiber/fiber/v3"

	basehdl "edu_admin/internal/api/base/handler"
	"edu_admin/internal/api/middleware"
	syncdto "edu_admin/internal/api/sync/dto"
	syncmodels "edu_admin/internal/api/sync/models"
	syncsvc "edu_admin/internal/api/sync/service"
)

// SyncHandler xử lý API sync. SyncRunService được inject từ cmd/server
// để dùng chung guard in-process với scheduler worker — trigger từ HTTP
// và từ cron phải nhìn thấy cùng một map run active.
type SyncHandler struct {
	*basehdl.BaseHandler[syncmodels.SyncJob, syncdto.SyncJobCreateInput, syncdto.SyncJobUpdateInput]
	runs *syncsvc.SyncRunService
}

// NewSyncHandler tạo SyncHandler mới
func NewSyncHandler(runs *syncsvc.SyncRunService) *SyncHandler {
	return &SyncHandler{
		BaseHandler: basehdl.NewBaseHandler[syncmodels.SyncJob, syncdto.SyncJobCreateInput, syncdto.SyncJobUpdateInput](runs.Jobs()),
		runs:        runs,
	}
}

// DeleteJob xóa job — từ chối khi job đang có run RUNNING
func (h *SyncHandler) DeleteJob(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		err = h.runs.Jobs().DeleteJob(c.Context(), id)
		basehdl.HandleResponse(c, fiber.Map{"deleted": err == nil}, err)
		return nil
	})
}

// TriggerRun trigger run manual cho job. Job đang chạy → 409, không xếp hàng.
func (h *SyncHandler) TriggerRun(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		actor := middleware.GetActor(c)
		run, err := h.runs.TriggerRun(c.Context(), id, syncmodels.TriggerManual, actor)
		basehdl.HandleResponse(c, run, err)
		return nil
	})
}

// CancelJob cancel run đang chạy của job (nếu có)
func (h *SyncHandler) CancelJob(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		run, err := h.runs.CancelActiveRun(c.Context(), id)
		basehdl.HandleResponse(c, run, err)
		return nil
	})
}

// CancelRun yêu cầu dừng hợp tác một run đang chạy
func (h *SyncHandler) CancelRun(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		run, err := h.runs.Cancel(c.Context(), id)
		basehdl.HandleResponse(c, run, err)
		return nil
	})
}

// FindRunsByJob liệt kê run của một job, mới nhất trước
func (h *SyncHandler) FindRunsByJob(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		page, limit := basehdl.ParsePagination(c)
		opts := options.Find().SetSort(bson.M{"createdAt": -1})
		result, err := h.runs.Runs().FindWithPagination(c.Context(), bson.M{"jobId": id}, page, limit, opts)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}

// FindRunById trả chi tiết một run (counters, errors, decisions)
func (h *SyncHandler) FindRunById(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		id, err := basehdl.ParseObjectID(c, "id")
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		run, err := h.runs.Runs().FindOneById(c.Context(), id)
		basehdl.HandleResponse(c, run, err)
		return nil
	})
}
