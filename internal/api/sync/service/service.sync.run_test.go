package syncsvc

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	lifecyclesvc "edu_admin/internal/api/lifecycle/service"
	studentsvc "edu_admin/internal/api/student/service"
	syncmodels "edu_admin/internal/api/sync/models"
	"edu_admin/internal/common"
)

type fakeRunGuard struct {
	active bool
	err    error
	calls  int
}

func (f *fakeRunGuard) HasActiveRun(ctx context.Context, jobID primitive.ObjectID) (bool, error) {
	f.calls++
	return f.active, f.err
}

func newGuardedService(guard *fakeRunGuard) *SyncRunService {
	return &SyncRunService{
		guard:  guard,
		active: map[string]*runHandle{},
	}
}

func resultWith(processed, failed, skipped int, cancelled bool) *studentsvc.SyncResult {
	return &studentsvc.SyncResult{
		Counters: map[string]*studentsvc.PlatformCounters{
			"hotmart": {Fetched: processed + failed + skipped, Processed: processed, Failed: failed, Skipped: skipped},
		},
		Cancelled: cancelled,
	}
}

// Run sạch → SUCCESS, mọi dạng hỏng một phần → PARTIAL, orchestration chết → FAILED
func TestDeriveTerminalState(t *testing.T) {
	cases := []struct {
		name    string
		result  *studentsvc.SyncResult
		evalErr error
		counts  lifecyclesvc.ActuationCounts
		want    string
	}{
		{"sạch hoàn toàn", resultWith(10, 0, 0, false), nil, lifecyclesvc.ActuationCounts{Applied: 3}, syncmodels.RunStateSuccess},
		{"có record failed", resultWith(8, 2, 0, false), nil, lifecyclesvc.ActuationCounts{}, syncmodels.RunStatePartial},
		{"có record skipped", resultWith(8, 0, 2, false), nil, lifecyclesvc.ActuationCounts{}, syncmodels.RunStatePartial},
		{"actuation failed", resultWith(10, 0, 0, false), nil, lifecyclesvc.ActuationCounts{Applied: 2, Failed: 1}, syncmodels.RunStatePartial},
		{"actuation skipped vì kênh tắt", resultWith(10, 0, 0, false), nil, lifecyclesvc.ActuationCounts{Skipped: 3}, syncmodels.RunStatePartial},
		{"bị cancel", resultWith(5, 0, 0, true), nil, lifecyclesvc.ActuationCounts{}, syncmodels.RunStatePartial},
		{"rule engine lỗi", resultWith(10, 0, 0, false), errors.New("rules"), lifecyclesvc.ActuationCounts{}, syncmodels.RunStatePartial},
		{"sync không chạy được", nil, nil, lifecyclesvc.ActuationCounts{}, syncmodels.RunStateFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := deriveTerminalState(tc.result, tc.evalErr, tc.counts)
			if got != tc.want {
				t.Errorf("deriveTerminalState(%s): muốn %s, nhận %s", tc.name, tc.want, got)
			}
		})
	}
}

// Cancel thắng mọi điều kiện khác — run bị cancel không bao giờ là SUCCESS
func TestDeriveTerminalStateCancelledOverridesClean(t *testing.T) {
	got := deriveTerminalState(resultWith(100, 0, 0, true), nil, lifecyclesvc.ActuationCounts{Applied: 50})
	if got != syncmodels.RunStatePartial {
		t.Errorf("run bị cancel phải là PARTIAL, nhận %s", got)
	}
}

func TestConvertCounters(t *testing.T) {
	result := &studentsvc.SyncResult{
		Counters: map[string]*studentsvc.PlatformCounters{
			"hotmart":   {Fetched: 12, Processed: 10, Skipped: 1, Failed: 1},
			"curseduca": {Fetched: 5, Processed: 5},
		},
	}

	got := convertCounters(result)
	if len(got) != 2 {
		t.Fatalf("muốn 2 platform, nhận %d", len(got))
	}
	h := got["hotmart"]
	if h == nil || h.Fetched != 12 || h.Processed != 10 || h.Skipped != 1 || h.Failed != 1 {
		t.Errorf("bộ đếm hotmart không khớp: %+v", h)
	}
	c := got["curseduca"]
	if c == nil || c.Processed != 5 || c.Failed != 0 {
		t.Errorf("bộ đếm curseduca không khớp: %+v", c)
	}
}

// Job đang có run RUNNING đã persist → trigger bị từ chối conflict,
// slot in-process được nhả lại và không bước nào chạy tiếp
func TestAcquireRunSlotRejectsWhilePersistedRunActive(t *testing.T) {
	guard := &fakeRunGuard{active: true}
	s := newGuardedService(guard)
	jobID := primitive.NewObjectID()

	handle, release, err := s.acquireRunSlot(context.Background(), jobID)
	if !errors.Is(err, common.ErrRunConflict) {
		t.Fatalf("muốn ErrRunConflict, nhận %v", err)
	}
	if handle != nil || release != nil {
		t.Error("conflict không được trả về handle hay release")
	}
	if len(s.active) != 0 {
		t.Error("slot in-process phải được nhả khi conflict")
	}
}

// Trigger thứ hai trên cùng job bị chặn ngay ở map in-process,
// không cần tới query DB lần hai. Nhả slot xong mới trigger lại được.
func TestAcquireRunSlotSerializesPerJob(t *testing.T) {
	guard := &fakeRunGuard{}
	s := newGuardedService(guard)
	jobID := primitive.NewObjectID()

	handle, release, err := s.acquireRunSlot(context.Background(), jobID)
	if err != nil {
		t.Fatalf("trigger đầu phải thành công: %v", err)
	}
	if handle == nil {
		t.Fatal("trigger đầu phải có handle")
	}

	_, _, err = s.acquireRunSlot(context.Background(), jobID)
	if !errors.Is(err, common.ErrRunConflict) {
		t.Fatalf("trigger thứ hai phải conflict, nhận %v", err)
	}
	if guard.calls != 1 {
		t.Errorf("guard in-process phải chặn trước khi query, nhận %d lần query", guard.calls)
	}

	// Job khác không bị ảnh hưởng
	otherID := primitive.NewObjectID()
	_, otherRelease, err := s.acquireRunSlot(context.Background(), otherID)
	if err != nil {
		t.Fatalf("job khác phải trigger được: %v", err)
	}
	otherRelease()

	release()
	_, release, err = s.acquireRunSlot(context.Background(), jobID)
	if err != nil {
		t.Fatalf("sau khi nhả slot phải trigger lại được: %v", err)
	}
	release()
}

// Lỗi query guard được trả nguyên cho caller và slot không bị giữ lại
func TestAcquireRunSlotReleasesOnGuardError(t *testing.T) {
	guard := &fakeRunGuard{err: errors.New("mongo down")}
	s := newGuardedService(guard)

	_, _, err := s.acquireRunSlot(context.Background(), primitive.NewObjectID())
	if err == nil || errors.Is(err, common.ErrRunConflict) {
		t.Fatalf("lỗi guard phải được trả nguyên, nhận %v", err)
	}
	if len(s.active) != 0 {
		t.Error("slot in-process phải được nhả khi guard lỗi")
	}
}

// Document đóng run phải mang đủ bộ đếm actuation applied/failed/skipped
func TestFinalizeUpdateCarriesActuationCounts(t *testing.T) {
	counts := lifecyclesvc.ActuationCounts{Applied: 7, Failed: 2, Skipped: 3}
	update := finalizeUpdate(syncmodels.RunStatePartial, resultWith(12, 0, 0, false), 12, counts, nil, 1700000000000)

	if update["state"] != syncmodels.RunStatePartial {
		t.Errorf("state không khớp: %v", update["state"])
	}
	if update["applied"] != 7 || update["actuationFailed"] != 2 || update["actuationSkipped"] != 3 {
		t.Errorf("bộ đếm actuation không khớp: applied=%v failed=%v skipped=%v",
			update["applied"], update["actuationFailed"], update["actuationSkipped"])
	}
	if update["decisions"] != 12 {
		t.Errorf("decisions không khớp: %v", update["decisions"])
	}
	if _, ok := update["counters"]; !ok {
		t.Error("result non-nil phải có counters")
	}
	if _, ok := update["cancelRequested"]; ok {
		t.Error("run không bị cancel thì không được set cancelRequested")
	}
	if _, ok := update["errors"]; ok {
		t.Error("không có lỗi thì không được set errors")
	}
}

// Run bị cancel set cờ cancelRequested, lỗi tích lũy được persist kèm
func TestFinalizeUpdateCancelAndErrors(t *testing.T) {
	runErrors := []syncmodels.RunError{{Message: "hotmart timeout", At: 1700000000000}}
	update := finalizeUpdate(syncmodels.RunStatePartial, resultWith(3, 0, 0, true), 0, lifecyclesvc.ActuationCounts{}, runErrors, 1700000000000)

	if update["cancelRequested"] != true {
		t.Error("run bị cancel phải set cancelRequested")
	}
	if _, ok := update["errors"]; !ok {
		t.Error("có lỗi tích lũy thì phải persist errors")
	}
}

// Sync chết trước khi có result → document đóng không chứa counters
func TestFinalizeUpdateNilResult(t *testing.T) {
	update := finalizeUpdate(syncmodels.RunStateFailed, nil, 0, lifecyclesvc.ActuationCounts{}, nil, 1700000000000)
	if _, ok := update["counters"]; ok {
		t.Error("result nil thì không được set counters")
	}
	if update["state"] != syncmodels.RunStateFailed {
		t.Errorf("state không khớp: %v", update["state"])
	}
}

func TestAuditLevelForState(t *testing.T) {
	cases := map[string]string{
		syncmodels.RunStateSuccess: "INFO",
		syncmodels.RunStatePartial: "WARN",
		syncmodels.RunStateFailed:  "ERROR",
	}
	for state, want := range cases {
		if got := auditLevelFor(state); got != want {
			t.Errorf("auditLevelFor(%s): muốn %s, nhận %s", state, want, got)
		}
	}
}
