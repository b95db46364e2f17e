// Package worker - Các worker chạy nền của hệ thống.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	syncmodels "edu_admin/internal/api/sync/models"
	syncsvc "edu_admin/internal/api/sync/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// scheduledEntry là một job đã đăng ký với cron
type scheduledEntry struct {
	entryID  cron.EntryID
	schedule string
	enabled  bool
}

// SyncSchedulerWorker đọc job enabled từ DB và đăng ký cron entry cho
// từng job. Danh sách được reload định kỳ nên sửa job qua API có hiệu
// lực mà không cần restart. Job khác nhau chạy song song; trigger trên
// job đang có run RUNNING bị guard của SyncRunService từ chối.
type SyncSchedulerWorker struct {
	runs *syncsvc.SyncRunService
	cron *cron.Cron

	mu      sync.Mutex
	entries map[string]scheduledEntry // key = jobID hex

	stop chan struct{}
	done chan struct{}
}

// NewSyncSchedulerWorker tạo worker mới. SyncRunService dùng chung với
// HTTP handler để hai phía nhìn thấy cùng guard run active.
func NewSyncSchedulerWorker(runs *syncsvc.SyncRunService) *SyncSchedulerWorker {
	return &SyncSchedulerWorker{
		runs:    runs,
		cron:    cron.New(cron.WithParser(global.ScheduleParser())),
		entries: map[string]scheduledEntry{},
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start load job lần đầu, khởi động cron và vòng reload định kỳ
func (w *SyncSchedulerWorker) Start() {
	w.reload()
	w.cron.Start()

	reloadSec := 60
	if global.ServerConfig != nil && global.ServerConfig.SchedulerReloadSec > 0 {
		reloadSec = global.ServerConfig.SchedulerReloadSec
	}

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(time.Duration(reloadSec) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.reload()
			case <-w.stop:
				return
			}
		}
	}()

	logger.GetAppLogger().WithField("reloadSec", reloadSec).Info("🔄 [SYNC_SCHEDULER] Worker đã khởi động")
}

// Stop dừng vòng reload và chờ cron drain các entry đang chạy
func (w *SyncSchedulerWorker) Stop() {
	close(w.stop)
	<-w.done
	ctx := w.cron.Stop()
	<-ctx.Done()
	logger.GetAppLogger().Info("🔄 [SYNC_SCHEDULER] Worker đã dừng")
}

// reload đồng bộ cron entry với danh sách job enabled trong DB:
// đăng ký job mới, đăng ký lại job đổi schedule, gỡ job đã tắt/xóa.
func (w *SyncSchedulerWorker) reload() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetErrorLogger().WithField("panic", r).Error("🔄 [SYNC_SCHEDULER] Panic khi reload job")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jobs, err := w.runs.Jobs().FindEnabledScheduled(ctx)
	if err != nil {
		logger.GetErrorLogger().WithField("error", err.Error()).Error("🔄 [SYNC_SCHEDULER] Không load được danh sách job")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seen := map[string]bool{}
	for _, job := range jobs {
		key := job.ID.Hex()
		seen[key] = true

		existing, registered := w.entries[key]
		if registered && existing.schedule == job.Schedule {
			continue
		}
		if registered {
			w.cron.Remove(existing.entryID)
		}

		jobID := job.ID
		jobName := job.Name
		entryID, err := w.cron.AddFunc(job.Schedule, func() {
			w.runScheduled(jobID, jobName)
		})
		if err != nil {
			// schedule_expr đã validate khi ghi, nhưng document sửa tay vẫn có thể hỏng
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"jobId":    key,
				"schedule": job.Schedule,
				"error":    err.Error(),
			}).Error("🔄 [SYNC_SCHEDULER] Schedule không hợp lệ, bỏ qua job")
			continue
		}
		w.entries[key] = scheduledEntry{entryID: entryID, schedule: job.Schedule, enabled: true}

		logger.GetAppLogger().WithFields(logrus.Fields{
			"jobId":    key,
			"jobName":  jobName,
			"schedule": job.Schedule,
		}).Info("🔄 [SYNC_SCHEDULER] Đã đăng ký job")
	}

	for key, entry := range w.entries {
		if !seen[key] {
			w.cron.Remove(entry.entryID)
			delete(w.entries, key)
			logger.GetAppLogger().WithField("jobId", key).Info("🔄 [SYNC_SCHEDULER] Đã gỡ job khỏi lịch")
		}
	}
}

// runScheduled trigger một run theo lịch. Conflict (run trước chưa xong)
// không phải lỗi — tick này bị bỏ qua, không xếp hàng đợi.
func (w *SyncSchedulerWorker) runScheduled(jobID primitive.ObjectID, jobName string) {
	defer func() {
		if r := recover(); r != nil {
			logger.GetErrorLogger().WithFields(logrus.Fields{
				"jobId": jobID.Hex(),
				"panic": r,
			}).Error("🔄 [SYNC_SCHEDULER] Panic khi trigger job")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	run, err := w.runs.TriggerRun(ctx, jobID, syncmodels.TriggerScheduled, syncmodels.ActorSystem)
	if err != nil {
		if errors.Is(err, common.ErrRunConflict) {
			logger.GetAppLogger().WithFields(logrus.Fields{
				"jobId":   jobID.Hex(),
				"jobName": jobName,
			}).Warn("🔄 [SYNC_SCHEDULER] Run trước chưa xong, bỏ qua tick")
			return
		}
		logger.GetErrorLogger().WithFields(logrus.Fields{
			"jobId": jobID.Hex(),
			"error": err.Error(),
		}).Error("🔄 [SYNC_SCHEDULER] Trigger thất bại")
		return
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"jobId":   jobID.Hex(),
		"jobName": jobName,
		"runId":   run.ID.Hex(),
	}).Info("🔄 [SYNC_SCHEDULER] Đã trigger run theo lịch")
}
