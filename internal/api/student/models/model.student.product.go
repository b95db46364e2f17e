// Package models - StudentProduct thuộc domain student (student_products).
// Một record cho mỗi cặp (email, productId): activity thô đã merge từ các
// platform cộng metrics dẫn xuất. Sync service là chủ sở hữu, upsert mỗi chu kỳ.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel cho học viên chưa từng truy cập. Rule engine coi giá trị này
// là undefined: mọi phép so sánh đều no-match.
const DaysInactiveNeverActive = -1

// Các status của học viên trên một sản phẩm, theo thứ tự vòng đời.
// Sync chỉ chuyển status tiến lên (rank tăng); lùi rank chỉ qua
// recalculate đơn lẻ (đường reconciliation tường minh).
const (
	StatusEnrolled  = "enrolled"  // Đã ghi danh, chưa bắt đầu
	StatusStarted   = "started"   // Đã bắt đầu học
	StatusActive    = "active"    // Đang hoạt động
	StatusInactive  = "inactive"  // Ngưng hoạt động
	StatusCancelled = "cancelled" // Đã hủy
)

// statusRanks là rank vòng đời của từng status
var statusRanks = map[string]int{
	StatusEnrolled:  1,
	StatusStarted:   2,
	StatusActive:    3,
	StatusInactive:  4,
	StatusCancelled: 5,
}

// StatusRank trả về rank vòng đời của status (0 nếu không hợp lệ)
func StatusRank(status string) int {
	return statusRanks[status]
}

// EngagementMetrics là metrics dẫn xuất từ activity thô — non-authoritative,
// tính lại toàn bộ mỗi chu kỳ sync, không bao giờ patch từng field.
type EngagementMetrics struct {
	DaysInactive         int     `json:"daysInactive" bson:"daysInactive"` // -1 = chưa từng active
	LoginsLast30d        int     `json:"loginsLast30d" bson:"loginsLast30d"`
	WeeksActiveLast30d   int     `json:"weeksActiveLast30d" bson:"weeksActiveLast30d"`
	ProgressPercent      float64 `json:"progressPercent" bson:"progressPercent"` // [0,100]
	CompletedModuleCount int     `json:"completedModuleCount" bson:"completedModuleCount"`
	NeverActive          bool    `json:"neverActive" bson:"neverActive"`
	NoCurriculum         bool    `json:"noCurriculum" bson:"noCurriculum"` // Sản phẩm không có curriculum (totalModules = 0)
	ComputedAt           int64   `json:"computedAt" bson:"computedAt"`     // Unix ms
}

// RawActivity là snapshot activity thô sau merge — nguồn duy nhất để tính metrics.
// Metrics luôn consistent với snapshot này, không trộn dữ liệu cũ với mới.
type RawActivity struct {
	LastAccessAt     int64    `json:"lastAccessAt,omitempty" bson:"lastAccessAt,omitempty"` // Unix ms, 0 = chưa từng truy cập
	LoginLog         []int64  `json:"loginLog,omitempty" bson:"loginLog,omitempty"`         // Unix ms
	CompletedModules []string `json:"completedModules,omitempty" bson:"completedModules,omitempty"`
	TotalModules     int      `json:"totalModules" bson:"totalModules"`
}

// StudentProduct lưu record học viên theo sản phẩm (student_products)
type StudentProduct struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	// Identity
	Email         string `json:"email" bson:"email"`
	Platform      string `json:"platform" bson:"platform"` // hotmart | curseduca | discord_activity
	ProductID     string `json:"productId" bson:"productId"`
	ProductFamily string `json:"productFamily" bson:"productFamily"`

	// Activity thô đã merge
	Activity RawActivity `json:"activity" bson:"activity"`

	// Phân loại
	ClassGroup string `json:"classGroup,omitempty" bson:"classGroup,omitempty"`
	IsPrimary  bool   `json:"isPrimary" bson:"isPrimary"` // Record đại diện trong product family
	Status     string `json:"status" bson:"status"`

	// Metrics dẫn xuất
	Engagement EngagementMetrics `json:"engagement" bson:"engagement"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}

// LastActiveAt trả về thời điểm active gần nhất của record (unix ms).
// Là max của lastAccessAt và login cuối — dùng cho chọn primary record.
func (s *StudentProduct) LastActiveAt() int64 {
	last := s.Activity.LastAccessAt
	for _, ts := range s.Activity.LoginLog {
		if ts > last {
			last = ts
		}
	}
	return last
}
