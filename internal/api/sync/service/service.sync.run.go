package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	auditmodels "edu_admin/internal/api/audit/models"
	auditsvc "edu_admin/internal/api/audit/service"
	basesvc "edu_admin/internal/api/base/service"
	lifecyclesvc "edu_admin/internal/api/lifecycle/service"
	platformmodels "edu_admin/internal/api/platform/models"
	studentsvc "edu_admin/internal/api/student/service"
	syncmodels "edu_admin/internal/api/sync/models"
	tagrulesvc "edu_admin/internal/api/tagrule/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// runHandle là guard in-process của một run đang active.
// Cờ cancel để checker đọc không cần query DB mỗi batch.
type runHandle struct {
	runID  primitive.ObjectID
	cancel atomic.Bool
}

// activeRunChecker báo job có run RUNNING đã persist hay không.
// Interface hẹp để test guard không cần Mongo.
type activeRunChecker interface {
	HasActiveRun(ctx context.Context, jobID primitive.ObjectID) (bool, error)
}

// SyncRunService là orchestrator của run state machine:
// pending → running → {success, partial, failed}.
// Mỗi job có tối đa một run RUNNING — guard hai lớp: map in-process
// và unique partial index trên (jobId, state=running).
type SyncRunService struct {
	jobs     *SyncJobService
	runs     *basesvc.BaseServiceMongoImpl[syncmodels.SyncJobRun]
	syncSvc  *studentsvc.UniversalSyncService
	engine   *tagrulesvc.TagRuleEngine
	actuator *lifecyclesvc.Actuator
	audit    *auditsvc.AuditEventService
	guard    activeRunChecker

	mu     sync.Mutex
	active map[string]*runHandle // key = jobID hex
}

// NewSyncRunService tạo SyncRunService mới. Actuator được inject từ
// cmd/server để pipeline và HTTP surface dùng chung client/rate limit.
func NewSyncRunService(actuator *lifecyclesvc.Actuator) (*SyncRunService, error) {
	jobs, err := NewSyncJobService()
	if err != nil {
		return nil, err
	}
	runColl, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.SyncJobRuns)
	if !exist {
		return nil, fmt.Errorf("không tìm thấy collection %s: %w", global.MongoDB_ColNames.SyncJobRuns, common.ErrNotFound)
	}
	syncSvc, err := studentsvc.NewUniversalSyncService()
	if err != nil {
		return nil, err
	}
	engine, err := tagrulesvc.NewTagRuleEngine()
	if err != nil {
		return nil, err
	}
	audit, err := auditsvc.NewAuditEventService()
	if err != nil {
		return nil, err
	}
	return &SyncRunService{
		jobs:     jobs,
		runs:     basesvc.NewBaseServiceMongo[syncmodels.SyncJobRun](runColl),
		syncSvc:  syncSvc,
		engine:   engine,
		actuator: actuator,
		audit:    audit,
		guard:    jobs,
		active:   map[string]*runHandle{},
	}, nil
}

// acquireRunSlot giữ slot chạy cho một job: reserve in-process trước,
// rồi kiểm tra run RUNNING đã persist (sót từ process khác hoặc crash cũ).
// Job đang bận → common.ErrRunConflict, không có side effect nào xảy ra.
func (s *SyncRunService) acquireRunSlot(ctx context.Context, jobID primitive.ObjectID) (*runHandle, func(), error) {
	key := jobID.Hex()

	s.mu.Lock()
	if _, busy := s.active[key]; busy {
		s.mu.Unlock()
		return nil, nil, common.ErrRunConflict
	}
	handle := &runHandle{}
	s.active[key] = handle
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.active, key)
		s.mu.Unlock()
	}

	busy, err := s.guard.HasActiveRun(ctx, jobID)
	if err != nil {
		release()
		return nil, nil, err
	}
	if busy {
		release()
		return nil, nil, common.ErrRunConflict
	}
	return handle, release, nil
}

// Jobs trả về SyncJobService dùng chung collection
func (s *SyncRunService) Jobs() *SyncJobService {
	return s.jobs
}

// Actuator trả về actuator dùng chung với HTTP surface lifecycle
func (s *SyncRunService) Actuator() *lifecyclesvc.Actuator {
	return s.actuator
}

// Runs trả về service truy vấn run (cho handler list/get)
func (s *SyncRunService) Runs() *basesvc.BaseServiceMongoImpl[syncmodels.SyncJobRun] {
	return s.runs
}

// TriggerRun khởi động một run cho job. Trigger khi job đang có run
// RUNNING bị từ chối ngay với conflict — không bao giờ xếp hàng đợi.
// Pipeline chạy nền, hàm trả về run ở state running.
func (s *SyncRunService) TriggerRun(ctx context.Context, jobID primitive.ObjectID, triggerKind, actor string) (*syncmodels.SyncJobRun, error) {
	job, err := s.jobs.FindOneById(ctx, jobID)
	if err != nil {
		return nil, err
	}

	handle, release, err := s.acquireRunSlot(ctx, jobID)
	if err != nil {
		return nil, err
	}

	run, err := s.runs.InsertOne(ctx, syncmodels.SyncJobRun{
		JobID:       jobID,
		TriggerKind: triggerKind,
		TriggeredBy: actor,
		State:       syncmodels.RunStatePending,
		Counters:    map[string]*syncmodels.PlatformRunCounters{},
	})
	if err != nil {
		release()
		return nil, err
	}
	handle.runID = run.ID
	runID := run.ID

	// Chuyển pending → running. Unique partial index trên
	// (jobId, state=running) là chốt chặn cuối: duplicate key → conflict.
	run, err = s.runs.FindOneAndUpdate(ctx,
		bson.M{"_id": runID, "state": syncmodels.RunStatePending},
		bson.M{"$set": bson.M{
			"state":     syncmodels.RunStateRunning,
			"startedAt": time.Now().UnixMilli(),
			"updatedAt": time.Now().UnixMilli(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err != nil {
		release()
		s.failRunRecord(runID, fmt.Sprintf("không chuyển được run sang running: %v", err))
		if errors.Is(err, common.ErrDuplicate) {
			return nil, common.ErrRunConflict
		}
		return nil, err
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"jobId":   jobID.Hex(),
		"runId":   run.ID.Hex(),
		"trigger": triggerKind,
		"actor":   actor,
	}).Info("🔄 [SYNC_RUN] Run bắt đầu")

	go s.executePipeline(&job, run, handle, release)

	return &run, nil
}

// Cancel yêu cầu dừng hợp tác một run. Run dừng ở ranh giới batch kế
// tiếp và kết thúc PARTIAL — không giết giữa chừng một batch.
func (s *SyncRunService) Cancel(ctx context.Context, runID primitive.ObjectID) (*syncmodels.SyncJobRun, error) {
	run, err := s.runs.FindOneById(ctx, runID)
	if err != nil {
		return nil, err
	}
	if syncmodels.TerminalState(run.State) {
		return nil, common.NewError(common.ErrCodeSyncConflict,
			"Run đã kết thúc, không thể cancel", common.StatusConflict, nil)
	}

	run, err = s.runs.FindOneAndUpdate(ctx,
		bson.M{"_id": runID},
		bson.M{"$set": bson.M{"cancelRequested": true, "updatedAt": time.Now().UnixMilli()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err != nil {
		return nil, err
	}

	// Báo luôn cho pipeline in-process nếu run thuộc process này
	s.mu.Lock()
	for _, h := range s.active {
		if h.runID == runID {
			h.cancel.Store(true)
		}
	}
	s.mu.Unlock()

	logger.GetAppLogger().WithField("runId", runID.Hex()).Warn("🔄 [SYNC_RUN] Cancel được yêu cầu")
	return &run, nil
}

// CancelActiveRun cancel run đang chạy của một job. Job không có run
// active → not found.
func (s *SyncRunService) CancelActiveRun(ctx context.Context, jobID primitive.ObjectID) (*syncmodels.SyncJobRun, error) {
	run, err := s.runs.FindOne(ctx, bson.M{
		"jobId": jobID,
		"state": syncmodels.RunStateRunning,
	}, nil)
	if err != nil {
		return nil, err
	}
	return s.Cancel(ctx, run.ID)
}

// executePipeline chạy trọn một run: sync → rule engine → actuator →
// finalize. Chạy trên goroutine riêng; panic được recover và run được
// persist FAILED thay vì treo ở RUNNING vĩnh viễn.
func (s *SyncRunService) executePipeline(job *syncmodels.SyncJob, run syncmodels.SyncJobRun, handle *runHandle, release func()) {
	defer release()
	defer func() {
		if r := recover(); r != nil {
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"runId": run.ID.Hex(),
				"panic": fmt.Sprintf("%v", r),
			}).Error("🔄 [SYNC_RUN] Panic trong pipeline")
			s.failRunRecord(run.ID, fmt.Sprintf("panic trong pipeline: %v", r))
		}
	}()

	ctx := context.Background()
	runID := run.ID.Hex()

	platforms := []string{job.SyncType}
	if job.SyncType == syncmodels.SyncTypeAll {
		platforms = platformmodels.AllPlatforms()
	}

	isCancelled := func(ctx context.Context) bool {
		if handle.cancel.Load() {
			return true
		}
		// Cancel có thể đến từ process khác — đọc lại cờ persisted
		current, err := s.runs.FindOneById(ctx, run.ID)
		if err != nil {
			return false
		}
		if current.CancelRequested {
			handle.cancel.Store(true)
		}
		return current.CancelRequested
	}

	var runErrors []syncmodels.RunError
	appendErr := func(msg string) {
		runErrors = append(runErrors, syncmodels.RunError{Message: msg, At: time.Now().UnixMilli()})
	}

	result, err := s.syncSvc.Sync(ctx, platforms, runID, isCancelled)
	if err != nil {
		appendErr(fmt.Sprintf("sync thất bại: %v", err))
		s.finalize(ctx, job, run.ID, syncmodels.RunStateFailed, result, 0, lifecyclesvc.ActuationCounts{}, runErrors)
		return
	}
	for _, msg := range result.Errors {
		appendErr(msg)
	}

	var counts lifecyclesvc.ActuationCounts
	decisionCount := 0
	decisions, err := s.engine.EvaluateBatch(ctx, result.Records, runID)
	if err != nil {
		// Không load được rule set — sync đã xong nên run không FAILED,
		// nhưng thiếu cả giai đoạn đánh giá thì chỉ có thể là PARTIAL
		appendErr(fmt.Sprintf("rule engine thất bại: %v", err))
	} else {
		decisionCount = len(decisions)
		counts = s.actuator.ApplyDecisions(ctx, decisions, runID)
	}

	state := deriveTerminalState(result, err, counts)
	s.finalize(ctx, job, run.ID, state, result, decisionCount, counts, runErrors)
}

// finalize persist run về terminal state và cập nhật Job.LastRun trong
// cùng một bước, để tóm tắt trên job luôn khớp run vừa đóng.
func (s *SyncRunService) finalize(ctx context.Context, job *syncmodels.SyncJob, runID primitive.ObjectID, state string, result *studentsvc.SyncResult, decisionCount int, counts lifecyclesvc.ActuationCounts, runErrors []syncmodels.RunError) {
	update := finalizeUpdate(state, result, decisionCount, counts, runErrors, time.Now().UnixMilli())

	run, err := s.runs.FindOneAndUpdate(ctx,
		bson.M{"_id": runID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"runId": runID.Hex(),
			"error": err.Error(),
		}).Error("🔄 [SYNC_RUN] Không persist được terminal state")
		return
	}

	if err := s.jobs.UpdateLastRun(ctx, job.ID, &run); err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"jobId": job.ID.Hex(),
			"error": err.Error(),
		}).Error("🔄 [SYNC_RUN] Không cập nhật được LastRun của job")
	}

	s.audit.Record(ctx, "sync", "run_finished", auditLevelFor(state), runID.Hex(), map[string]interface{}{
		"jobId":     job.ID.Hex(),
		"jobName":   job.Name,
		"state":     state,
		"decisions": decisionCount,
		"applied":   counts.Applied,
		"errors":    len(runErrors),
	})

	logger.GetAppLogger().WithFields(logrus.Fields{
		"jobId":     job.ID.Hex(),
		"runId":     runID.Hex(),
		"state":     state,
		"decisions": decisionCount,
		"applied":   counts.Applied,
	}).Info("🔄 [SYNC_RUN] Run kết thúc")
}

// failRunRecord đánh dấu run FAILED ngoài pipeline (panic, lỗi chuyển state)
func (s *SyncRunService) failRunRecord(runID primitive.ObjectID, msg string) {
	ctx := context.Background()
	now := time.Now().UnixMilli()
	_, err := s.runs.Collection().UpdateOne(ctx,
		bson.M{"_id": runID, "state": bson.M{"$in": bson.A{syncmodels.RunStatePending, syncmodels.RunStateRunning}}},
		bson.M{"$set": bson.M{
			"state":      syncmodels.RunStateFailed,
			"finishedAt": now,
			"updatedAt":  now,
		}, "$push": bson.M{
			"errors": syncmodels.RunError{Message: msg, At: now},
		}},
	)
	if err != nil {
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"runId": runID.Hex(),
			"error": err.Error(),
		}).Error("🔄 [SYNC_RUN] Không đánh dấu được run FAILED")
	}
}

// finalizeUpdate dựng document $set đóng run, gồm đủ bộ đếm actuation
// applied/failed/skipped bên cạnh counters per-platform
func finalizeUpdate(state string, result *studentsvc.SyncResult, decisionCount int, counts lifecyclesvc.ActuationCounts, runErrors []syncmodels.RunError, now int64) bson.M {
	update := bson.M{
		"state":            state,
		"finishedAt":       now,
		"decisions":        decisionCount,
		"applied":          counts.Applied,
		"actuationFailed":  counts.Failed,
		"actuationSkipped": counts.Skipped,
		"updatedAt":        now,
	}
	if result != nil {
		update["counters"] = convertCounters(result)
		if result.Cancelled {
			update["cancelRequested"] = true
		}
	}
	if len(runErrors) > 0 {
		update["errors"] = runErrors
	}
	return update
}

// deriveTerminalState tính terminal state của run từ kết quả các giai đoạn.
// Run bị cancel hay có record/actuation hỏng kết thúc PARTIAL; decision bị
// skip (kênh CRM tắt) cũng là PARTIAL — actuation chưa phủ hết quyết định.
// FAILED chỉ dành cho lỗi orchestration (sync không chạy nổi, panic).
func deriveTerminalState(result *studentsvc.SyncResult, evalErr error, counts lifecyclesvc.ActuationCounts) string {
	switch {
	case result == nil:
		return syncmodels.RunStateFailed
	case result.Cancelled:
		return syncmodels.RunStatePartial
	case evalErr != nil:
		return syncmodels.RunStatePartial
	case result.TotalFailed() > 0 || counts.Failed > 0 || counts.Skipped > 0:
		return syncmodels.RunStatePartial
	default:
		return syncmodels.RunStateSuccess
	}
}

// convertCounters chuyển bộ đếm của sync result sang dạng persist trên run
func convertCounters(result *studentsvc.SyncResult) map[string]*syncmodels.PlatformRunCounters {
	out := map[string]*syncmodels.PlatformRunCounters{}
	for platform, c := range result.Counters {
		out[platform] = &syncmodels.PlatformRunCounters{
			Fetched:   c.Fetched,
			Processed: c.Processed,
			Skipped:   c.Skipped,
			Failed:    c.Failed,
		}
	}
	return out
}

// auditLevelFor map terminal state sang level audit
func auditLevelFor(state string) string {
	switch state {
	case syncmodels.RunStateFailed:
		return auditmodels.LevelError
	case syncmodels.RunStatePartial:
		return auditmodels.LevelWarn
	default:
		return auditmodels.LevelInfo
	}
}
