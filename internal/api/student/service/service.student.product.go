package studentsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	basesvc "edu_admin/internal/api/base/service"
	studentmodels "edu_admin/internal/api/student/models"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
)

// StudentProductService xử lý record học viên theo sản phẩm (student_products)
type StudentProductService struct {
	*basesvc.BaseServiceMongoImpl[studentmodels.StudentProduct]
}

// NewStudentProductService tạo StudentProductService mới
func NewStudentProductService() (*StudentProductService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.StudentProducts)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.StudentProducts, common.ErrNotFound)
	}
	return &StudentProductService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[studentmodels.StudentProduct](coll),
	}, nil
}

// FindByEmail trả về toàn bộ record của một học viên
func (s *StudentProductService) FindByEmail(ctx context.Context, email string) ([]studentmodels.StudentProduct, error) {
	return s.Find(ctx, bson.M{"email": normalizeEmail(email)}, nil)
}

// UpsertRecord ghi một record đã merge + tính metrics vào DB theo khóa
// (email, productId). Status không được lùi rank trừ khi allowDowngrade
// (đường reconciliation tường minh qua recalculate).
func (s *StudentProductService) UpsertRecord(ctx context.Context, record *studentmodels.StudentProduct, allowDowngrade bool) (studentmodels.StudentProduct, error) {
	filter := bson.M{"email": record.Email, "productId": record.ProductID}

	if !allowDowngrade {
		existing, err := s.FindOne(ctx, filter, nil)
		if err == nil && studentmodels.StatusRank(existing.Status) > studentmodels.StatusRank(record.Status) {
			record.Status = existing.Status
		}
	}

	return s.Upsert(ctx, filter, record)
}

// RecalculateOne tính lại metrics cho một record từ activity hiện có trong DB.
// Đây là đường reconciliation đơn lẻ: status được phép lùi rank nếu newStatus
// được chỉ định tường minh.
func (s *StudentProductService) RecalculateOne(ctx context.Context, email, productID, newStatus string) (studentmodels.StudentProduct, error) {
	var zero studentmodels.StudentProduct

	filter := bson.M{"email": normalizeEmail(email), "productId": productID}
	record, err := s.FindOne(ctx, filter, nil)
	if err != nil {
		return zero, err
	}

	record.Engagement = ComputeEngagementMetrics(record.Activity, time.Now())
	if newStatus != "" {
		if studentmodels.StatusRank(newStatus) == 0 {
			return zero, common.NewError(
				common.ErrCodeValidationInput,
				fmt.Sprintf("Status %s không hợp lệ", newStatus),
				common.StatusBadRequest,
				nil,
			)
		}
		record.Status = newStatus
	}

	return s.Upsert(ctx, filter, &record)
}
