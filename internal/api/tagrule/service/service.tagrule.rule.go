package tagrulesvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	basesvc "edu_admin/internal/api/base/service"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
)

// TagRuleService xử lý CRUD rule gán tag (tag_rules)
type TagRuleService struct {
	*basesvc.BaseServiceMongoImpl[tagrulemodels.TagRule]
}

// NewTagRuleService tạo TagRuleService mới
func NewTagRuleService() (*TagRuleService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.TagRules)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.TagRules, common.ErrNotFound)
	}
	return &TagRuleService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[tagrulemodels.TagRule](coll),
	}, nil
}

// FindActive trả về các rule đang active
func (s *TagRuleService) FindActive(ctx context.Context) ([]tagrulemodels.TagRule, error) {
	return s.Find(ctx, bson.M{"active": true}, nil)
}

// TagAssignmentService xử lý trạng thái tag đã gán (tag_assignments)
type TagAssignmentService struct {
	*basesvc.BaseServiceMongoImpl[tagrulemodels.TagAssignment]
}

// NewTagAssignmentService tạo TagAssignmentService mới
func NewTagAssignmentService() (*TagAssignmentService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.TagAssignments)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.TagAssignments, common.ErrNotFound)
	}
	return &TagAssignmentService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[tagrulemodels.TagAssignment](coll),
	}, nil
}

// IsAssigned kiểm tra tag có đang được ghi nhận là gán cho (email, productId) không
func (s *TagAssignmentService) IsAssigned(ctx context.Context, email, productID, tagID string) (bool, error) {
	assignment, err := s.FindOne(ctx, bson.M{
		"email":     email,
		"productId": productID,
		"tagId":     tagID,
	}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return assignment.Assigned, nil
}

// MarkApplied ghi nhận trạng thái sau khi actuation thành công.
// Chỉ gọi SAU khi side effect ngoài đã apply — prior state cho run kế tiếp.
func (s *TagAssignmentService) MarkApplied(ctx context.Context, decision *tagrulemodels.TagDecision) error {
	assigned := decision.Outcome == tagrulemodels.DecisionAssign

	filter := bson.M{
		"email":     decision.Email,
		"productId": decision.ProductID,
		"tagId":     decision.TagID,
	}
	_, err := s.Upsert(ctx, filter, &tagrulemodels.TagAssignment{
		Email:     decision.Email,
		ProductID: decision.ProductID,
		TagID:     decision.TagID,
		RuleID:    decision.RuleID,
		Assigned:  assigned,
		UpdatedAt: time.Now().UnixMilli(),
	})
	return err
}
