// Package studentsvc - Test tính metrics từ activity thô.
package studentsvc

import (
	"reflect"
	"testing"
	"time"

	studentmodels "edu_admin/internal/api/student/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func msAt(daysAgo int) int64 {
	return testNow.AddDate(0, 0, -daysAgo).UnixMilli()
}

func TestComputeEngagementMetrics_NeverActive(t *testing.T) {
	activity := studentmodels.RawActivity{TotalModules: 10}
	m := ComputeEngagementMetrics(activity, testNow)

	if !m.NeverActive {
		t.Error("activity rỗng phải có cờ NeverActive")
	}
	if m.DaysInactive != studentmodels.DaysInactiveNeverActive {
		t.Errorf("daysInactive phải là sentinel %d, nhận %d", studentmodels.DaysInactiveNeverActive, m.DaysInactive)
	}
	if m.LoginsLast30d != 0 || m.WeeksActiveLast30d != 0 {
		t.Errorf("chưa từng login mà loginsLast30d=%d, weeksActive=%d", m.LoginsLast30d, m.WeeksActiveLast30d)
	}
}

func TestComputeEngagementMetrics_InactiveStudent(t *testing.T) {
	// Login cuối 35 ngày trước, không login nào trong 30 ngày qua
	activity := studentmodels.RawActivity{
		LastAccessAt: msAt(35),
		LoginLog:     []int64{msAt(40), msAt(35)},
		TotalModules: 10,
	}
	m := ComputeEngagementMetrics(activity, testNow)

	if m.DaysInactive < 35 {
		t.Errorf("daysInactive phải >= 35, nhận %d", m.DaysInactive)
	}
	if m.LoginsLast30d != 0 {
		t.Errorf("loginsLast30d phải = 0, nhận %d", m.LoginsLast30d)
	}
	if m.WeeksActiveLast30d != 0 {
		t.Errorf("weeksActiveLast30d phải = 0, nhận %d", m.WeeksActiveLast30d)
	}
	if m.NeverActive {
		t.Error("học viên có login không được đánh cờ NeverActive")
	}
}

func TestComputeEngagementMetrics_BoundaryDayInclusive(t *testing.T) {
	// Login vào đầu ngày biên (đúng 30 ngày trước, 00:30 UTC) phải được đếm
	boundaryDay := testNow.AddDate(0, 0, -30)
	login := time.Date(boundaryDay.Year(), boundaryDay.Month(), boundaryDay.Day(), 0, 30, 0, 0, time.UTC)

	activity := studentmodels.RawActivity{
		LastAccessAt: login.UnixMilli(),
		LoginLog:     []int64{login.UnixMilli()},
		TotalModules: 5,
	}
	m := ComputeEngagementMetrics(activity, testNow)

	if m.LoginsLast30d != 1 {
		t.Errorf("login trên ngày biên phải được đếm, loginsLast30d = %d", m.LoginsLast30d)
	}
}

func TestComputeEngagementMetrics_DistinctWeeks(t *testing.T) {
	// 4 login trong 2 tuần ISO khác nhau → weeksActive = 2
	activity := studentmodels.RawActivity{
		LoginLog: []int64{
			msAt(1), msAt(2), // tuần hiện tại
			msAt(9), msAt(10), // tuần trước nữa
		},
		TotalModules: 5,
	}
	m := ComputeEngagementMetrics(activity, testNow)

	if m.LoginsLast30d != 4 {
		t.Errorf("loginsLast30d phải = 4, nhận %d", m.LoginsLast30d)
	}
	if m.WeeksActiveLast30d != 2 {
		t.Errorf("weeksActiveLast30d phải = 2 (2 tuần ISO distinct), nhận %d", m.WeeksActiveLast30d)
	}
}

func TestComputeEngagementMetrics_ProgressClampAndNoCurriculum(t *testing.T) {
	// Hoàn thành nhiều hơn tổng module (dữ liệu platform lệch) → clamp 100
	over := studentmodels.RawActivity{
		LastAccessAt:     msAt(1),
		CompletedModules: []string{"m1", "m2", "m3"},
		TotalModules:     2,
	}
	m := ComputeEngagementMetrics(over, testNow)
	if m.ProgressPercent != 100 {
		t.Errorf("progress phải clamp về 100, nhận %v", m.ProgressPercent)
	}

	// Không có curriculum → progress 0 + cờ NoCurriculum, không chia cho 0
	none := studentmodels.RawActivity{
		LastAccessAt:     msAt(1),
		CompletedModules: []string{"m1"},
		TotalModules:     0,
	}
	m = ComputeEngagementMetrics(none, testNow)
	if !m.NoCurriculum {
		t.Error("totalModules = 0 phải đánh cờ NoCurriculum")
	}
	if m.ProgressPercent != 0 {
		t.Errorf("progress khi không có curriculum phải = 0, nhận %v", m.ProgressPercent)
	}
}

func TestComputeEngagementMetrics_Idempotent(t *testing.T) {
	activity := studentmodels.RawActivity{
		LastAccessAt:     msAt(3),
		LoginLog:         []int64{msAt(3), msAt(8), msAt(20)},
		CompletedModules: []string{"m1", "m2"},
		TotalModules:     8,
	}
	first := ComputeEngagementMetrics(activity, testNow)
	second := ComputeEngagementMetrics(activity, testNow)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("tính 2 lần trên cùng snapshot phải cho kết quả giống hệt:\n%+v\n%+v", first, second)
	}
}
