// Package models - các kiểu role transition thuộc domain lifecycle.
// Một transition là state machine tuần tự các bước add/remove role trên
// chat platform; thành công của bước trước là điều kiện chạy bước sau.
package models

// Các operation trên role/tag
const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// RoleStep là một bước trong transition
type RoleStep struct {
	Op       string `json:"op"`       // add | remove
	RoleID   string `json:"roleId"`   // ID role trên chat platform
	RoleName string `json:"roleName"` // Tên hiển thị, dùng cho log/báo lỗi
}

// RoleTransition là một chuỗi bước có tên, thứ tự là bắt buộc
type RoleTransition struct {
	Name  string     `json:"name"`
	Steps []RoleStep `json:"steps"`
}

// StepResult là kết quả một bước
type StepResult struct {
	Step      RoleStep `json:"step"`
	Succeeded bool     `json:"succeeded"`
	Attempted bool     `json:"attempted"` // false = bước bị bỏ vì bước trước fail
	Error     string   `json:"error,omitempty"`
}

// TransitionResult là kết quả composite của cả transition.
// FailedStep là tên bước fail đầu tiên (op + role), rỗng nếu thành công.
type TransitionResult struct {
	Transition string       `json:"transition"`
	AccountID  string       `json:"accountId"`
	Steps      []StepResult `json:"steps"`
	Succeeded  bool         `json:"succeeded"`
	FailedStep string       `json:"failedStep,omitempty"`
}

// Các transition chuẩn của vòng đời học viên. Role name theo ngôn ngữ
// của cộng đồng (Ativo/Começou/Inativo); role ID map qua cấu hình role
// trên server, truyền vào lúc build transition.
func InactiveTransition(activeRoleID, startedRoleID, inactiveRoleID string) RoleTransition {
	return RoleTransition{
		Name: "inactive",
		Steps: []RoleStep{
			{Op: OpRemove, RoleID: activeRoleID, RoleName: "Ativo"},
			{Op: OpRemove, RoleID: startedRoleID, RoleName: "Começou"},
			{Op: OpAdd, RoleID: inactiveRoleID, RoleName: "Inativo"},
		},
	}
}

// ReactivateTransition đưa học viên quay lại trạng thái active
func ReactivateTransition(activeRoleID, inactiveRoleID string) RoleTransition {
	return RoleTransition{
		Name: "reactivate",
		Steps: []RoleStep{
			{Op: OpRemove, RoleID: inactiveRoleID, RoleName: "Inativo"},
			{Op: OpAdd, RoleID: activeRoleID, RoleName: "Ativo"},
		},
	}
}
