package global

import (
	"edu_admin/config"
	"edu_admin/internal/registry"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDB_CollectionName chứa tên các collection trong MongoDB
type MongoDB_CollectionName struct {
	SyncJobs        string // Tên collection cho job đồng bộ
	SyncJobRuns     string // Tên collection cho từng lượt chạy của job
	StudentProducts string // Tên collection cho record học viên theo sản phẩm
	TagRules        string // Tên collection cho rule gán tag
	TagAssignments  string // Tên collection cho trạng thái tag đã gán
	AuditEvents     string // Tên collection cho audit log
}

// Các biến toàn cục
var Validate *validator.Validate               // Biến để xác thực dữ liệu
var MongoDB_Session *mongo.Client              // Phiên kết nối tới MongoDB
var ServerConfig *config.Configuration         // Cấu hình của server
var MongoDB_ColNames = MongoDB_CollectionName{ // Tên các collection
	SyncJobs:        "sync_jobs",
	SyncJobRuns:     "sync_job_runs",
	StudentProducts: "student_products",
	TagRules:        "tag_rules",
	TagAssignments:  "tag_assignments",
	AuditEvents:     "audit_events",
}

// Các Registry
var RegistryCollections = registry.NewRegistry[*mongo.Collection]() // Registry chứa các collections
var RegistryDatabase = registry.NewRegistry[*mongo.Database]()      // Registry chứa các databases
