// Package tagrulehdl - Handler CRUD rule gán tag.
package tagrulehdl

import (
	"fmt"

	basehdl "edu_admin/internal/api/base/handler"
	tagruledto "edu_admin/internal/api/tagrule/dto"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
	tagrulesvc "edu_admin/internal/api/tagrule/service"
)

// TagRuleHandler xử lý API cấu hình rule. Toàn bộ surface là CRUD chuẩn
// nên dùng thẳng BaseHandler.
type TagRuleHandler struct {
	*basehdl.BaseHandler[tagrulemodels.TagRule, tagruledto.TagRuleCreateInput, tagruledto.TagRuleUpdateInput]
}

// NewTagRuleHandler tạo TagRuleHandler mới
func NewTagRuleHandler() (*TagRuleHandler, error) {
	svc, err := tagrulesvc.NewTagRuleService()
	if err != nil {
		return nil, fmt.Errorf("tạo TagRuleService: %w", err)
	}
	return &TagRuleHandler{
		BaseHandler: basehdl.NewBaseHandler[tagrulemodels.TagRule, tagruledto.TagRuleCreateInput, tagruledto.TagRuleUpdateInput](svc),
	}, nil
}
