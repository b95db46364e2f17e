// Package studentsvc - sync service, merge logic và metrics của domain student.
package studentsvc

import (
	"time"

	studentmodels "edu_admin/internal/api/student/models"
)

// metricsWindowDays là độ dài cửa sổ trailing của các metric login
const metricsWindowDays = 30

// ComputeEngagementMetrics tính metrics từ activity thô của một record.
// Hàm thuần: không side effect, cùng input luôn cho cùng output — chạy lại
// trên cùng snapshot không tích lũy sai số.
//
// Quy tắc:
//   - daysInactive: số ngày nguyên từ lần truy cập cuối đến now; chưa từng
//     truy cập → sentinel DaysInactiveNeverActive + cờ NeverActive.
//   - loginsLast30d: số login trong cửa sổ 30 ngày trailing, tính cả ngày biên.
//   - weeksActiveLast30d: số tuần ISO distinct có ít nhất 1 login trong cửa sổ.
//   - progressPercent: completed/total clamp [0,100]; totalModules = 0 →
//     progress 0 + cờ NoCurriculum thay vì chia cho 0.
func ComputeEngagementMetrics(activity studentmodels.RawActivity, now time.Time) studentmodels.EngagementMetrics {
	metrics := studentmodels.EngagementMetrics{
		CompletedModuleCount: len(activity.CompletedModules),
		ComputedAt:           now.UnixMilli(),
	}

	// Thời điểm truy cập cuối: max của lastAccessAt và login cuối
	lastActive := activity.LastAccessAt
	for _, ts := range activity.LoginLog {
		if ts > lastActive {
			lastActive = ts
		}
	}

	if lastActive <= 0 {
		metrics.NeverActive = true
		metrics.DaysInactive = studentmodels.DaysInactiveNeverActive
	} else {
		elapsed := now.UnixMilli() - lastActive
		if elapsed < 0 {
			elapsed = 0
		}
		metrics.DaysInactive = int(elapsed / (24 * int64(time.Hour/time.Millisecond)))
	}

	// Cửa sổ 30 ngày trailing, tính từ đầu ngày biên (inclusive)
	windowStart := startOfDayUTC(now.AddDate(0, 0, -metricsWindowDays))
	nowMs := now.UnixMilli()

	weeks := map[[2]int]struct{}{}
	for _, ts := range activity.LoginLog {
		if ts < windowStart.UnixMilli() || ts > nowMs {
			continue
		}
		metrics.LoginsLast30d++
		year, week := time.UnixMilli(ts).UTC().ISOWeek()
		weeks[[2]int{year, week}] = struct{}{}
	}
	metrics.WeeksActiveLast30d = len(weeks)

	// Progress
	if activity.TotalModules <= 0 {
		metrics.NoCurriculum = true
		metrics.ProgressPercent = 0
	} else {
		percent := float64(len(activity.CompletedModules)) / float64(activity.TotalModules) * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		metrics.ProgressPercent = percent
	}

	return metrics
}

// startOfDayUTC trả về 00:00:00 UTC của ngày chứa t
func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
