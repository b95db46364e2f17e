package studentsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	auditsvc "edu_admin/internal/api/audit/service"
	platformmodels "edu_admin/internal/api/platform/models"
	platformsvc "edu_admin/internal/api/platform/service"
	studentmodels "edu_admin/internal/api/student/models"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
	"edu_admin/internal/utility"
)

// dedupePlatforms loại platform trùng và rỗng khỏi danh sách yêu cầu,
// giữ thứ tự — fetch một platform hai lần sẽ làm bộ đếm đếm đôi
func dedupePlatforms(platforms []string) []string {
	pending := utility.StringsToSet(platforms)
	out := make([]string, 0, len(pending))
	for _, p := range platforms {
		if pending[p] {
			pending[p] = false
			out = append(out, p)
		}
	}
	return out
}

// PlatformCounters là bộ đếm kết quả của một platform trong một run
type PlatformCounters struct {
	Fetched   int `json:"fetched" bson:"fetched"`
	Processed int `json:"processed" bson:"processed"`
	Skipped   int `json:"skipped" bson:"skipped"`
	Failed    int `json:"failed" bson:"failed"`
}

// SyncResult là kết quả một lượt sync — result object riêng của run,
// không dùng accumulator dùng chung giữa các run chạy song song.
type SyncResult struct {
	Counters  map[string]*PlatformCounters `json:"counters" bson:"counters"` // key = platform
	Records   []studentmodels.StudentProduct
	Errors    []string `json:"errors,omitempty" bson:"errors,omitempty"`
	Cancelled bool     `json:"cancelled" bson:"cancelled"`
}

// newSyncResult tạo SyncResult rỗng
func newSyncResult() *SyncResult {
	return &SyncResult{Counters: map[string]*PlatformCounters{}}
}

// counters trả về (tạo nếu chưa có) bộ đếm của một platform
func (r *SyncResult) counters(platform string) *PlatformCounters {
	c, ok := r.Counters[platform]
	if !ok {
		c = &PlatformCounters{}
		r.Counters[platform] = c
	}
	return c
}

// TotalProcessed tổng record xử lý thành công
func (r *SyncResult) TotalProcessed() int {
	total := 0
	for _, c := range r.Counters {
		total += c.Processed
	}
	return total
}

// TotalFailed tổng record thất bại/bị loại
func (r *SyncResult) TotalFailed() int {
	total := 0
	for _, c := range r.Counters {
		total += c.Failed + c.Skipped
	}
	return total
}

// UniversalSyncService pull activity từ các adapter, merge thành record
// canonical, tính metrics và persist. Lỗi một platform hay một account được
// chứa tại đó: record bị skip + audit ERROR, batch vẫn chạy tiếp.
type UniversalSyncService struct {
	products *StudentProductService
	audit    *auditsvc.AuditEventService
}

// NewUniversalSyncService tạo UniversalSyncService mới
func NewUniversalSyncService() (*UniversalSyncService, error) {
	products, err := NewStudentProductService()
	if err != nil {
		return nil, err
	}
	audit, err := auditsvc.NewAuditEventService()
	if err != nil {
		return nil, err
	}
	return &UniversalSyncService{products: products, audit: audit}, nil
}

// CancelChecker báo run có bị yêu cầu hủy không — check giữa các batch
type CancelChecker func(ctx context.Context) bool

// Sync chạy một lượt đồng bộ cho các platform chỉ định.
// runID chỉ dùng cho audit attribution. cancelled trả về qua result.Cancelled
// (hủy hợp tác giữa các batch, không abort giữa chừng).
func (s *UniversalSyncService) Sync(ctx context.Context, platforms []string, runID string, isCancelled CancelChecker) (*SyncResult, error) {
	log := logger.GetAppLogger()
	result := newSyncResult()
	platforms = dedupePlatforms(platforms)

	window := platformmodels.TimeWindow{
		From: time.Now().AddDate(0, 0, -metricsWindowDays-1).UnixMilli(),
		To:   time.Now().UnixMilli(),
	}

	// Fetch song song từ các adapter độc lập
	var mu sync.Mutex
	var snapshots []platformmodels.ActivitySnapshot
	g, gctx := errgroup.WithContext(ctx)

	for _, platform := range platforms {
		platform := platform
		adapter, err := platformsvc.GetAdapter(platform)
		if err != nil {
			// Platform không có adapter: lỗi cấu hình của job, không phải lỗi run
			result.counters(platform).Failed++
			result.Errors = append(result.Errors, err.Error())
			s.audit.Record(ctx, "sync", "adapter_missing", "ERROR", runID, map[string]interface{}{
				"platform": platform,
				"error":    err.Error(),
			})
			continue
		}

		g.Go(func() error {
			fetchResult, err := adapter.FetchActivity(gctx, nil, window)

			mu.Lock()
			defer mu.Unlock()
			counters := result.counters(platform)

			if err != nil {
				// Cả platform fail: đếm 1 failure, run vẫn tiếp tục với các platform khác
				counters.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", platform, err))
				s.audit.Record(ctx, "sync", "platform_fetch_failed", "ERROR", runID, map[string]interface{}{
					"platform": platform,
					"error":    err.Error(),
				})
				return nil
			}

			counters.Fetched = len(fetchResult.Snapshots)
			snapshots = append(snapshots, fetchResult.Snapshots...)

			// Failure per-account từ partial result của adapter
			for _, f := range fetchResult.Failures {
				counters.Failed++
				s.audit.Record(ctx, "sync", "account_fetch_failed", "ERROR", runID, map[string]interface{}{
					"platform":  platform,
					"accountId": f.AccountID,
					"reason":    f.Reason,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	// Merge + validate ở biên
	records, invalid := MergeSnapshots(snapshots)
	for _, snap := range invalid {
		result.counters(snap.Platform).Skipped++
		s.audit.Record(ctx, "sync", "record_integrity_skipped", "ERROR", runID, map[string]interface{}{
			"platform":  snap.Platform,
			"email":     snap.Email,
			"productId": snap.ProductID,
		})
	}
	MarkPrimaryRecords(records)

	log.WithFields(logrus.Fields{
		"runId":   runID,
		"records": len(records),
		"invalid": len(invalid),
	}).Info("🔄 [SYNC] Đã merge snapshot, bắt đầu tính metrics và persist")

	// Tính metrics + upsert theo batch, check cancel giữa các batch
	batchSize := global.ServerConfig.SyncBatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	concurrency := global.ServerConfig.SyncConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	for start := 0; start < len(records); start += batchSize {
		if isCancelled != nil && isCancelled(ctx) {
			result.Cancelled = true
			log.WithField("runId", runID).Warn("🔄 [SYNC] Run bị yêu cầu hủy, dừng giữa các batch")
			break
		}

		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		pg, pctx := errgroup.WithContext(ctx)
		pg.SetLimit(concurrency)
		for i := range batch {
			record := &batch[i]
			pg.Go(func() error {
				record.Engagement = ComputeEngagementMetrics(record.Activity, time.Now())

				saved, err := s.products.UpsertRecord(pctx, record, false)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.counters(record.Platform).Failed++
					result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", record.Email, record.ProductID, err))
					s.audit.Record(ctx, "sync", "record_persist_failed", "ERROR", runID, map[string]interface{}{
						"email":     record.Email,
						"productId": record.ProductID,
						"error":     err.Error(),
					})
					return nil
				}
				*record = saved
				result.counters(record.Platform).Processed++
				result.Records = append(result.Records, saved)
				return nil
			})
		}
		if err := pg.Wait(); err != nil {
			return result, err
		}
	}

	return result, nil
}
