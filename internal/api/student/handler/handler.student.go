// Package studenthdl - Handler truy vấn record học viên và recalculate.
package studenthdl

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	basehdl "edu_admin/internal/api/base/handler"
	studentdto "edu_admin/internal/api/student/dto"
	studentsvc "edu_admin/internal/api/student/service"
	"edu_admin/internal/common"
)

// StudentHandler xử lý API học viên
type StudentHandler struct {
	products *studentsvc.StudentProductService
}

// NewStudentHandler tạo StudentHandler mới
func NewStudentHandler() (*StudentHandler, error) {
	products, err := studentsvc.NewStudentProductService()
	if err != nil {
		return nil, err
	}
	return &StudentHandler{products: products}, nil
}

// parseEmail lấy email từ path param, chuẩn hóa lowercase
func parseEmail(c fiber.Ctx) (string, error) {
	email := strings.ToLower(strings.TrimSpace(c.Params("email")))
	if email == "" {
		return "", common.NewError(common.ErrCodeValidationInput,
			"Thiếu email học viên", common.StatusBadRequest, nil)
	}
	return email, nil
}

// FindProducts trả về toàn bộ record (email, product) của một học viên
func (h *StudentHandler) FindProducts(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		email, err := parseEmail(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		records, err := h.products.FindByEmail(c.Context(), email)
		basehdl.HandleResponse(c, records, err)
		return nil
	})
}

// Recalculate tính lại metrics (và tùy chọn status) cho một record.
// Đây là đường reconciliation — status được phép hạ rank tại đây.
func (h *StudentHandler) Recalculate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		email, err := parseEmail(c)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		var input studentdto.RecalculateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		record, err := h.products.RecalculateOne(c.Context(), email, input.ProductID, input.Status)
		basehdl.HandleResponse(c, record, err)
		return nil
	})
}
