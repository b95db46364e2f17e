package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration chứa thông tin tĩnh cần thiết để chạy ứng dụng.
// Bao gồm kết nối cơ sở dữ liệu, tham số đồng bộ và thông tin các hệ thống ngoài.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:"8080"`                 // Cổng server
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URL kết nối cơ sở dữ liệu
	MongoDB_DBName        string `env:"MONGODB_DBNAME,required"`                   // Tên cơ sở dữ liệu
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Các origins được phép (phân cách bởi dấu phẩy, * = tất cả)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Cho phép gửi credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Số request tối đa trong window (0 = disable rate limit)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Thời gian window (giây)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Bật/tắt rate limiting

	// Tham số đồng bộ
	SyncConcurrency    int `env:"SYNC_CONCURRENCY" envDefault:"8"`      // Số worker song song khi tính metrics / đánh giá rule
	SyncBatchSize      int `env:"SYNC_BATCH_SIZE" envDefault:"200"`     // Số record mỗi batch (điểm kiểm tra cancel giữa các batch)
	SchedulerReloadSec int `env:"SCHEDULER_RELOAD_SEC" envDefault:"60"` // Chu kỳ reload danh sách job từ DB (giây)

	// Retry/backoff cho các lời gọi hệ thống ngoài
	ExternalMaxRetries  int `env:"EXTERNAL_MAX_RETRIES" envDefault:"3"`  // Số lần retry tối đa cho lỗi transient
	ExternalBackoffMs   int `env:"EXTERNAL_BACKOFF_MS" envDefault:"500"` // Backoff cơ sở (ms), nhân đôi mỗi lần retry
	RoleStepDelayMs     int `env:"ROLE_STEP_DELAY_MS" envDefault:"1200"` // Delay bắt buộc giữa các bước chuyển role (rate limit phía chat platform)
	ActuatorConcurrency int `env:"ACTUATOR_CONCURRENCY" envDefault:"4"`  // Số account xử lý song song khi actuate
	AdapterFetchSec     int `env:"ADAPTER_FETCH_SEC" envDefault:"120"`   // Timeout cho một lượt fetch từ adapter (giây)

	// Platform adapters — nguồn activity
	HotmartAPIBaseURL   string `env:"HOTMART_API_BASE_URL"`   // Base URL API Hotmart, rỗng = tắt adapter
	HotmartAPIKey       string `env:"HOTMART_API_KEY"`        // API key Hotmart
	CurseducaAPIBaseURL string `env:"CURSEDUCA_API_BASE_URL"` // Base URL API Curseduca, rỗng = tắt adapter
	CurseducaAPIKey     string `env:"CURSEDUCA_API_KEY"`      // API key Curseduca

	// CRM (ActiveCampaign) — tag mutation
	CrmAPIBaseURL string `env:"CRM_API_BASE_URL"` // Base URL API CRM, rỗng = tắt actuation CRM
	CrmAPIKey     string `env:"CRM_API_KEY"`      // API key CRM

	// Chat platform (Discord) — role mutation
	ChatAPIBaseURL string `env:"CHAT_API_BASE_URL"` // Base URL API chat platform, rỗng = tắt actuation role
	ChatBotToken   string `env:"CHAT_BOT_TOKEN"`    // Bot token
	ChatGuildID    string `env:"CHAT_GUILD_ID"`     // Server (guild) quản lý role

	// Role ID trên chat platform cho các transition vòng đời
	ChatRoleActiveID   string `env:"CHAT_ROLE_ACTIVE_ID"`   // Role "Ativo"
	ChatRoleStartedID  string `env:"CHAT_ROLE_STARTED_ID"`  // Role "Começou"
	ChatRoleInactiveID string `env:"CHAT_ROLE_INACTIVE_ID"` // Role "Inativo"

	// TLS/HTTPS Configuration
	EnableTLS   bool   `env:"ENABLE_TLS" envDefault:"false"` // Bật HTTPS
	TLSCertFile string `env:"TLS_CERT_FILE"`                 // Đường dẫn đến file certificate (.crt hoặc .pem)
	TLSKeyFile  string `env:"TLS_KEY_FILE"`                  // Đường dẫn đến file private key (.key)
}

// getEnvPath trả về đường dẫn đến file env dựa trên môi trường
func getEnvPath() string {
	// Mặc định sử dụng môi trường development
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Tìm thư mục config
	currentDir, err := os.Getwd()
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể lấy được thư mục hiện tại: %v\n", err)
		return ""
	}

	// Tìm thư mục config/env
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			// Tìm thấy thư mục config/env
			envPath := filepath.Join(envDir, fmt.Sprintf("%s.env", env))
			return envPath
		}

		// Đi lên thư mục cha
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig sẽ đọc dữ liệu cấu hình từ file env được cung cấp
func NewConfig(files ...string) *Configuration {
	envPath := getEnvPath()
	if envPath == "" {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không tìm thấy thư mục config/env\n")
		return nil
	}

	err := godotenv.Load(envPath)
	if err != nil {
		// Sử dụng fmt.Printf vì logger có thể chưa được init ở đây
		fmt.Printf("Không thể load file env tại %s: %v\n", envPath, err)
		return nil
	}

	cfg := Configuration{}
	err = env.Parse(&cfg)
	if err != nil {
		fmt.Printf("Lỗi khi parse config: %+v\n", err)
		return nil
	}

	return &cfg
}
