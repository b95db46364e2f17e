// Package auditsvc - Service ghi và truy vấn audit log (audit_events).
package auditsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	auditmodels "edu_admin/internal/api/audit/models"
	basemodels "edu_admin/internal/api/base/models"
	basesvc "edu_admin/internal/api/base/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// AuditEventService ghi và truy vấn audit event
type AuditEventService struct {
	*basesvc.BaseServiceMongoImpl[auditmodels.AuditEvent]
}

// NewAuditEventService tạo AuditEventService mới
func NewAuditEventService() (*AuditEventService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.AuditEvents)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.AuditEvents, common.ErrNotFound)
	}
	return &AuditEventService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[auditmodels.AuditEvent](coll),
	}, nil
}

// Record ghi một audit event vào DB và mirror sang file audit log.
// Lỗi ghi audit không được làm hỏng nghiệp vụ chính — chỉ log ra error logger.
func (s *AuditEventService) Record(ctx context.Context, module, action, level string, runID string, payload map[string]interface{}) {
	if !auditmodels.ValidLevel(level) {
		level = auditmodels.LevelInfo
	}

	event := auditmodels.AuditEvent{
		Module:    module,
		Action:    action,
		Level:     level,
		Payload:   payload,
		RunID:     runID,
		Timestamp: time.Now().UnixMilli(),
	}

	if _, err := s.InsertOne(ctx, event); err != nil {
		logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
			"module": module,
			"action": action,
		}).Error("Không ghi được audit event vào DB")
	}

	// Mirror sang file audit log
	fields := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	if runID != "" {
		fields["runId"] = runID
	}
	logger.LogEngineEvent(module, action, level, fields)
}

// QueryFilter là các điều kiện truy vấn audit event
type QueryFilter struct {
	Module string
	Level  string
	RunID  string
}

// Query truy vấn audit event với filter và phân trang, mới nhất trước
func (s *AuditEventService) Query(ctx context.Context, qf QueryFilter, page, limit int64) (*basemodels.PaginateResult[auditmodels.AuditEvent], error) {
	filter := bson.M{}
	if qf.Module != "" {
		filter["module"] = qf.Module
	}
	if qf.Level != "" {
		filter["level"] = qf.Level
	}
	if qf.RunID != "" {
		filter["runId"] = qf.RunID
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	return s.FindWithPagination(ctx, filter, page, limit, opts)
}
