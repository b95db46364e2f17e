// Package syncsvc - Scheduler domain: job đồng bộ, run state machine và
// pipeline orchestration (sync → rule engine → actuator → audit).
package syncsvc

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	basesvc "edu_admin/internal/api/base/service"
	syncmodels "edu_admin/internal/api/sync/models"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
)

// SyncJobService xử lý CRUD job đồng bộ (sync_jobs)
type SyncJobService struct {
	*basesvc.BaseServiceMongoImpl[syncmodels.SyncJob]
	runs *basesvc.BaseServiceMongoImpl[syncmodels.SyncJobRun]
}

// NewSyncJobService tạo SyncJobService mới
func NewSyncJobService() (*SyncJobService, error) {
	jobColl, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SyncJobs)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.SyncJobs, common.ErrNotFound)
	}
	runColl, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SyncJobRuns)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.SyncJobRuns, common.ErrNotFound)
	}
	return &SyncJobService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[syncmodels.SyncJob](jobColl),
		runs:                 basesvc.NewBaseServiceMongo[syncmodels.SyncJobRun](runColl),
	}, nil
}

// FindEnabledScheduled trả về các job enabled có schedule (để worker đăng ký cron)
func (s *SyncJobService) FindEnabledScheduled(ctx context.Context) ([]syncmodels.SyncJob, error) {
	return s.Find(ctx, bson.M{
		"enabled":  true,
		"schedule": bson.M{"$nin": bson.A{"", nil}},
	}, nil)
}

// HasActiveRun kiểm tra job có run đang running không
func (s *SyncJobService) HasActiveRun(ctx context.Context, jobID primitive.ObjectID) (bool, error) {
	return s.runs.DocumentExists(ctx, bson.M{
		"jobId": jobID,
		"state": syncmodels.RunStateRunning,
	})
}

// DeleteJob xóa job — bị từ chối khi job có run đang active
func (s *SyncJobService) DeleteJob(ctx context.Context, jobID primitive.ObjectID) error {
	active, err := s.HasActiveRun(ctx, jobID)
	if err != nil {
		return err
	}
	if active {
		return common.ErrJobHasRun
	}
	return s.DeleteById(ctx, jobID)
}

// UpdateLastRun cập nhật tóm tắt run gần nhất của job.
// Gọi trong cùng bước finalize run để Job.LastRun luôn khớp run terminal.
func (s *SyncJobService) UpdateLastRun(ctx context.Context, jobID primitive.ObjectID, run *syncmodels.SyncJobRun) error {
	processed, failed := 0, 0
	for _, c := range run.Counters {
		processed += c.Processed
		failed += c.Failed + c.Skipped
	}

	summary := syncmodels.LastRunSummary{
		RunID:      run.ID.Hex(),
		State:      run.State,
		FinishedAt: run.FinishedAt,
		Processed:  processed,
		Failed:     failed,
	}
	_, err := s.Collection().UpdateOne(ctx,
		bson.M{"_id": jobID},
		bson.M{"$set": bson.M{"lastRun": summary, "updatedAt": time.Now().UnixMilli()}},
	)
	return err
}
