// Package studentsvc - Test merge snapshot và chọn primary record.
package studentsvc

import (
	"testing"

	platformmodels "edu_admin/internal/api/platform/models"
	studentmodels "edu_admin/internal/api/student/models"
)

func TestMergeSnapshots_MergeByEmailAndProduct(t *testing.T) {
	snapshots := []platformmodels.ActivitySnapshot{
		{
			Email:            "An@Example.com",
			Platform:         platformmodels.PlatformHotmart,
			ProductID:        "course-1",
			ProductFamily:    "mentoria",
			LastAccessAt:     1000,
			LoginLog:         []int64{500, 1000},
			CompletedModules: []string{"m1"},
			TotalModules:     10,
		},
		{
			Email:        "an@example.com", // cùng học viên, platform khác
			Platform:     platformmodels.PlatformDiscordActivity,
			ProductID:    "course-1",
			LastAccessAt: 2000,
			LoginLog:     []int64{2000},
		},
	}

	records, invalid := MergeSnapshots(snapshots)
	if len(invalid) != 0 {
		t.Fatalf("không có snapshot không hợp lệ, nhận %d", len(invalid))
	}
	if len(records) != 1 {
		t.Fatalf("2 snapshot cùng (email, productId) phải merge thành 1 record, nhận %d", len(records))
	}

	r := records[0]
	if r.Email != "an@example.com" {
		t.Errorf("email phải được normalize lowercase, nhận %s", r.Email)
	}
	if r.Activity.LastAccessAt != 2000 {
		t.Errorf("lastAccessAt phải lấy max = 2000, nhận %d", r.Activity.LastAccessAt)
	}
	if len(r.Activity.LoginLog) != 3 {
		t.Errorf("loginLog phải gộp đủ 3 entry, nhận %d", len(r.Activity.LoginLog))
	}
	if r.Activity.TotalModules != 10 {
		t.Errorf("totalModules phải giữ từ nguồn có curriculum, nhận %d", r.Activity.TotalModules)
	}
}

func TestMergeSnapshots_InvalidSkippedNotFatal(t *testing.T) {
	snapshots := []platformmodels.ActivitySnapshot{
		{Email: "", Platform: platformmodels.PlatformHotmart, ProductID: "c1"}, // thiếu email
		{Email: "b@example.com", Platform: platformmodels.PlatformHotmart, ProductID: "c1", TotalModules: 5},
	}

	records, invalid := MergeSnapshots(snapshots)
	if len(invalid) != 1 {
		t.Fatalf("snapshot thiếu email phải bị loại, invalid = %d", len(invalid))
	}
	if len(records) != 1 {
		t.Fatalf("snapshot hợp lệ còn lại vẫn phải được xử lý, records = %d", len(records))
	}
}

func TestMergeSnapshots_StatusMonotonic(t *testing.T) {
	snapshots := []platformmodels.ActivitySnapshot{
		{Email: "c@example.com", Platform: platformmodels.PlatformHotmart, ProductID: "c1", Status: studentmodels.StatusActive},
		{Email: "c@example.com", Platform: platformmodels.PlatformCurseduca, ProductID: "c1", Status: studentmodels.StatusStarted},
	}

	records, _ := MergeSnapshots(snapshots)
	if len(records) != 1 {
		t.Fatalf("phải merge thành 1 record, nhận %d", len(records))
	}
	if records[0].Status != studentmodels.StatusActive {
		t.Errorf("status không được lùi rank khi merge: muốn %s, nhận %s", studentmodels.StatusActive, records[0].Status)
	}
}

func TestMarkPrimaryRecords_MostRecentlyActiveWins(t *testing.T) {
	records := []studentmodels.StudentProduct{
		{
			Email:         "d@example.com",
			ProductID:     "turma-2024",
			ProductFamily: "mentoria",
			Activity:      studentmodels.RawActivity{LastAccessAt: 1000},
		},
		{
			Email:         "d@example.com",
			ProductID:     "turma-2025",
			ProductFamily: "mentoria",
			Activity:      studentmodels.RawActivity{LastAccessAt: 5000},
		},
		{
			Email:         "e@example.com",
			ProductID:     "turma-2025",
			ProductFamily: "mentoria",
			Activity:      studentmodels.RawActivity{LastAccessAt: 100},
		},
	}

	MarkPrimaryRecords(records)

	if records[0].IsPrimary {
		t.Error("enrollment cũ hơn không được là primary")
	}
	if !records[1].IsPrimary {
		t.Error("enrollment active gần nhất phải là primary")
	}
	if !records[2].IsPrimary {
		t.Error("học viên khác phải có primary riêng")
	}

	// Đếm primary per (email, family): đúng 1
	count := 0
	for _, r := range records {
		if r.Email == "d@example.com" && r.IsPrimary {
			count++
		}
	}
	if count != 1 {
		t.Errorf("mỗi (email, family) phải có đúng 1 primary, nhận %d", count)
	}
}
