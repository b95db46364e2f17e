package studentsvc

import (
	"strings"

	platformmodels "edu_admin/internal/api/platform/models"
	studentmodels "edu_admin/internal/api/student/models"
	"edu_admin/internal/common"
)

// recordKey là khóa canonical của một record: (email, productId)
type recordKey struct {
	Email     string
	ProductID string
}

// ValidateSnapshot kiểm tra snapshot ở biên trước khi merge.
// Dữ liệu platform không được tin tưởng ngầm: record thiếu khóa định danh
// là lỗi data-integrity — bị loại khỏi batch, không làm dừng batch.
func ValidateSnapshot(snap *platformmodels.ActivitySnapshot) error {
	if strings.TrimSpace(snap.Email) == "" {
		return common.ErrDataIntegrity
	}
	if strings.TrimSpace(snap.ProductID) == "" {
		return common.ErrDataIntegrity
	}
	if snap.Platform == "" {
		return common.ErrDataIntegrity
	}
	if snap.TotalModules < 0 {
		return common.ErrDataIntegrity
	}
	return nil
}

// MergeSnapshots merge snapshot từ nhiều platform thành StudentProduct theo
// khóa (email, productId). Khi một cặp xuất hiện trên nhiều nguồn, dữ liệu
// activity được hợp nhất: lastAccess lấy max, loginLog gộp, module completion
// lấy từ nguồn có curriculum.
// Snapshot không hợp lệ được trả về riêng trong invalid, không chặn batch.
func MergeSnapshots(snapshots []platformmodels.ActivitySnapshot) (records []studentmodels.StudentProduct, invalid []platformmodels.ActivitySnapshot) {
	merged := map[recordKey]*studentmodels.StudentProduct{}
	var order []recordKey

	for i := range snapshots {
		snap := snapshots[i]
		if err := ValidateSnapshot(&snap); err != nil {
			invalid = append(invalid, snap)
			continue
		}

		key := recordKey{Email: normalizeEmail(snap.Email), ProductID: snap.ProductID}
		record, exists := merged[key]
		if !exists {
			record = &studentmodels.StudentProduct{
				Email:         key.Email,
				Platform:      snap.Platform,
				ProductID:     snap.ProductID,
				ProductFamily: snap.ProductFamily,
				ClassGroup:    snap.ClassGroup,
				Status:        snap.Status,
			}
			merged[key] = record
			order = append(order, key)
		}

		// Hợp nhất activity
		if snap.LastAccessAt > record.Activity.LastAccessAt {
			record.Activity.LastAccessAt = snap.LastAccessAt
		}
		record.Activity.LoginLog = append(record.Activity.LoginLog, snap.LoginLog...)
		if snap.TotalModules > 0 {
			record.Activity.TotalModules = snap.TotalModules
			record.Activity.CompletedModules = mergeModules(record.Activity.CompletedModules, snap.CompletedModules)
		}
		if record.ProductFamily == "" {
			record.ProductFamily = snap.ProductFamily
		}
		if record.ClassGroup == "" {
			record.ClassGroup = snap.ClassGroup
		}
		// Status chỉ tiến lên theo rank vòng đời (monotonic)
		if studentmodels.StatusRank(snap.Status) > studentmodels.StatusRank(record.Status) {
			record.Status = snap.Status
		}
	}

	for _, key := range order {
		records = append(records, *merged[key])
	}
	return records, invalid
}

// MarkPrimaryRecords đánh dấu đúng một record primary cho mỗi
// (email, productFamily). Khi một học viên có nhiều enrollment cùng family,
// record active gần nhất thắng.
func MarkPrimaryRecords(records []studentmodels.StudentProduct) {
	type familyKey struct {
		Email  string
		Family string
	}
	best := map[familyKey]int{}

	for i := range records {
		records[i].IsPrimary = false
		key := familyKey{Email: records[i].Email, Family: records[i].ProductFamily}
		current, exists := best[key]
		if !exists || records[i].LastActiveAt() > records[current].LastActiveAt() {
			best[key] = i
		}
	}
	for _, i := range best {
		records[i].IsPrimary = true
	}
}

// mergeModules gộp 2 danh sách module đã hoàn thành, loại trùng, giữ thứ tự
func mergeModules(a, b []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range append(a, b...) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// normalizeEmail chuẩn hóa email làm khóa định danh xuyên platform
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
