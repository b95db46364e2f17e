// Package models - các kiểu dữ liệu activity thô từ platform ngoài.
// Đây là đầu ra của adapter, đầu vào của sync service. Snapshot là dữ liệu
// đã normalize theo kiểu chung, trước khi merge thành student_products.
package models

// Các platform được hỗ trợ. SyncType trên sync_jobs dùng đúng các giá trị này.
const (
	PlatformHotmart         = "hotmart"          // Nền tảng khóa học Hotmart
	PlatformCurseduca       = "curseduca"        // Nền tảng khóa học Curseduca
	PlatformDiscordActivity = "discord_activity" // Activity từ server Discord
)

// AllPlatforms trả về danh sách platform hợp lệ
func AllPlatforms() []string {
	return []string{PlatformHotmart, PlatformCurseduca, PlatformDiscordActivity}
}

// TimeWindow là cửa sổ thời gian fetch activity (unix ms, [From, To])
type TimeWindow struct {
	From int64 `json:"from"` // Unix ms
	To   int64 `json:"to"`   // Unix ms
}

// ActivitySnapshot là activity thô của một học viên trên một sản phẩm,
// đã normalize về kiểu chung. Email là khóa định danh xuyên platform.
type ActivitySnapshot struct {
	Email            string   `json:"email" bson:"email"`
	Platform         string   `json:"platform" bson:"platform"`
	ProductID        string   `json:"productId" bson:"productId"`
	ProductFamily    string   `json:"productFamily" bson:"productFamily"`
	ClassGroup       string   `json:"classGroup,omitempty" bson:"classGroup,omitempty"`
	LastAccessAt     int64    `json:"lastAccessAt,omitempty" bson:"lastAccessAt,omitempty"` // Unix ms, 0 = chưa từng truy cập
	LoginLog         []int64  `json:"loginLog,omitempty" bson:"loginLog,omitempty"`         // Unix ms từng lần login
	CompletedModules []string `json:"completedModules,omitempty" bson:"completedModules,omitempty"`
	TotalModules     int      `json:"totalModules" bson:"totalModules"` // 0 = sản phẩm chưa có curriculum
	Status           string   `json:"status,omitempty" bson:"status,omitempty"`
}

// IdentifierFailure ghi nhận một account fetch thất bại (partial result).
// Adapter trả về danh sách này thay vì fail toàn bộ batch.
type IdentifierFailure struct {
	AccountID string `json:"accountId"`
	Reason    string `json:"reason"`
}

// FetchResult là kết quả một lượt fetch của adapter — snapshot thành công
// cộng danh sách account thất bại, không bao giờ all-or-nothing.
type FetchResult struct {
	Platform  string
	Snapshots []ActivitySnapshot
	Failures  []IdentifierFailure
}
