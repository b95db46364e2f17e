// Package models - TagRule và TagAssignment thuộc domain tagrule.
// Rule là entity cấu hình, read-only với engine; assignment là trạng thái
// tag đã gán, dùng để phân biệt revoke với unchanged giữa các run.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các metric mà rule có thể so sánh
const (
	MetricDaysInactive     = "daysInactive"
	MetricLoginsLast30d    = "loginsLast30d"
	MetricWeeksActive      = "weeksActiveLast30d"
	MetricProgressPercent  = "progressPercent"
	MetricCompletedModules = "completedModules"
)

// Các operator của rule
const (
	OpGte = ">="
	OpLte = "<="
	OpEq  = "=="
	OpNeq = "!="
	OpGt  = ">"
	OpLt  = "<"
)

// Các outcome của một lần đánh giá rule trên một record
const (
	DecisionAssign    = "assign"
	DecisionRevoke    = "revoke"
	DecisionUnchanged = "unchanged"
)

// TagRule là một rule gán tag (tag_rules).
// Category là nhóm ngữ nghĩa tường minh (engagement, progress...) — chỉ mang
// tính thông tin/báo cáo, không ảnh hưởng semantics đánh giá.
type TagRule struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Name     string `json:"name" bson:"name"`
	Category string `json:"category,omitempty" bson:"category,omitempty"`
	TagID    string `json:"tagId" bson:"tagId"` // Tag trong CRM

	// Điều kiện
	Metric    string  `json:"metric" bson:"metric"`
	Operator  string  `json:"operator" bson:"operator"`
	Threshold float64 `json:"threshold" bson:"threshold"`

	// Phạm vi và trạng thái
	ProductScope []string `json:"productScope,omitempty" bson:"productScope,omitempty"` // Rỗng = mọi sản phẩm
	Active       bool     `json:"active" bson:"active"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}

// AppliesTo kiểm tra rule có áp dụng cho một productId không
func (r *TagRule) AppliesTo(productID string) bool {
	if len(r.ProductScope) == 0 {
		return true
	}
	for _, p := range r.ProductScope {
		if p == productID {
			return true
		}
	}
	return false
}

// TagAssignment lưu trạng thái tag đã gán cho một (email, productId)
// (tag_assignments). Đây là prior state để quyết định revoke vs unchanged.
type TagAssignment struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Email     string `json:"email" bson:"email"`
	ProductID string `json:"productId" bson:"productId"`
	TagID     string `json:"tagId" bson:"tagId"`
	RuleID    string `json:"ruleId,omitempty" bson:"ruleId,omitempty"`
	Assigned  bool   `json:"assigned" bson:"assigned"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}

// TagDecision là quyết định cho một (rule, record) — ephemeral, sinh ra mỗi
// run, chỉ persist qua audit log và trạng thái assignment sau khi actuate.
type TagDecision struct {
	RuleID    string  `json:"ruleId"`
	RuleName  string  `json:"ruleName"`
	TagID     string  `json:"tagId"`
	Email     string  `json:"email"`
	ProductID string  `json:"productId"`
	Outcome   string  `json:"outcome"` // assign | revoke | unchanged
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`      // Giá trị metric lúc đánh giá
	Undefined bool    `json:"undefined"`  // Metric là sentinel/undefined
	DecidedAt int64   `json:"decidedAt"`  // Unix ms
}
