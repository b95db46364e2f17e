// Package lifecyclehdl - Handler role transition.
package lifecyclehdl

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	basehdl "edu_admin/internal/api/base/handler"
	lifecycledto "edu_admin/internal/api/lifecycle/dto"
	lifecyclemodels "edu_admin/internal/api/lifecycle/models"
	lifecyclesvc "edu_admin/internal/api/lifecycle/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
)

// LifecycleHandler xử lý API role transition
type LifecycleHandler struct {
	Actuator *lifecyclesvc.Actuator
}

// NewLifecycleHandler tạo LifecycleHandler. Actuator dùng chung với pipeline
// của scheduler (cùng client, cùng rate limit).
func NewLifecycleHandler(actuator *lifecyclesvc.Actuator) *LifecycleHandler {
	return &LifecycleHandler{Actuator: actuator}
}

// buildTransition map tên transition sang chuỗi bước với role ID từ cấu hình
func buildTransition(name string) (lifecyclemodels.RoleTransition, error) {
	cfg := global.ServerConfig
	switch name {
	case "inactive":
		return lifecyclemodels.InactiveTransition(cfg.ChatRoleActiveID, cfg.ChatRoleStartedID, cfg.ChatRoleInactiveID), nil
	case "reactivate":
		return lifecyclemodels.ReactivateTransition(cfg.ChatRoleActiveID, cfg.ChatRoleInactiveID), nil
	}
	return lifecyclemodels.RoleTransition{}, common.NewError(
		common.ErrCodeValidationInput,
		fmt.Sprintf("Transition %s không được hỗ trợ", name),
		common.StatusBadRequest,
		nil,
	)
}

// HandleRoleTransition xử lý POST /lifecycle/role-transitions.
// Trả về kết quả composite của mọi bước; bước fail được nêu đích danh.
func (h *LifecycleHandler) HandleRoleTransition(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input lifecycledto.RoleTransitionInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		transition, err := buildTransition(input.Transition)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		result := h.Actuator.RunRoleTransition(c.Context(), input.AccountID, transition)
		if !result.Succeeded {
			basehdl.HandleResponse(c, result, common.NewError(
				common.ErrCodeExternalPermanent,
				fmt.Sprintf("Transition %s thất bại tại bước %s", result.Transition, result.FailedStep),
				common.StatusBadGateway,
				result,
			))
			return nil
		}
		basehdl.HandleResponse(c, result, nil)
		return nil
	})
}
