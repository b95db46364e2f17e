package global

import (
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// metricTypes các loại metric mà rule được phép tham chiếu.
var metricTypes = map[string]bool{
	"daysInactive":       true,
	"loginsLast30d":      true,
	"weeksActiveLast30d": true,
	"progressPercent":    true,
	"completedModules":   true,
}

// ruleOperators các toán tử so sánh hợp lệ của rule.
var ruleOperators = map[string]bool{
	">=": true,
	"<=": true,
	"==": true,
	"!=": true,
	">":  true,
	"<":  true,
}

// syncTypes các platform được hỗ trợ đồng bộ.
var syncTypes = map[string]bool{
	"hotmart":          true,
	"curseduca":        true,
	"discord_activity": true,
	"all":              true,
}

// scheduleParser parser cron chuẩn 5 trường (phút giờ ngày tháng thứ), hỗ trợ descriptor (@daily...).
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// InitValidator khởi tạo và đăng ký các custom validator
func InitValidator() {
	// Khởi tạo validator
	Validate = validator.New()

	// Đăng ký các custom validator
	_ = Validate.RegisterValidation("metric_type", validateMetricType)
	_ = Validate.RegisterValidation("rule_operator", validateRuleOperator)
	_ = Validate.RegisterValidation("sync_type", validateSyncType)
	_ = Validate.RegisterValidation("schedule_expr", validateScheduleExpr)
}

// validateMetricType kiểm tra metric type nằm trong danh sách hỗ trợ
func validateMetricType(fl validator.FieldLevel) bool {
	return metricTypes[fl.Field().String()]
}

// validateRuleOperator kiểm tra toán tử so sánh hợp lệ
func validateRuleOperator(fl validator.FieldLevel) bool {
	return ruleOperators[fl.Field().String()]
}

// validateSyncType kiểm tra platform được hỗ trợ
func validateSyncType(fl validator.FieldLevel) bool {
	return syncTypes[fl.Field().String()]
}

// validateScheduleExpr kiểm tra schedule là cron expression parse được
func validateScheduleExpr(fl validator.FieldLevel) bool {
	return ValidScheduleExpr(fl.Field().String())
}

// ValidScheduleExpr kiểm tra schedule expression hợp lệ.
// Rỗng = hợp lệ (job chỉ trigger manual).
func ValidScheduleExpr(expr string) bool {
	if expr == "" {
		return true
	}
	_, err := scheduleParser.Parse(expr)
	return err == nil
}

// ScheduleParser trả về parser cron dùng chung (worker đăng ký entry với cùng cú pháp đã validate).
func ScheduleParser() cron.Parser {
	return scheduleParser
}
