// Package dto - DTO cho domain tagrule.
package dto

// TagRuleCreateInput là body tạo rule mới
type TagRuleCreateInput struct {
	Name         string   `json:"name" bson:"name" validate:"required"`
	Category     string   `json:"category,omitempty" bson:"category,omitempty"`
	TagID        string   `json:"tagId" bson:"tagId" validate:"required"`
	Metric       string   `json:"metric" bson:"metric" validate:"required,metric_type"`
	Operator     string   `json:"operator" bson:"operator" validate:"required,rule_operator"`
	Threshold    float64  `json:"threshold" bson:"threshold"`
	ProductScope []string `json:"productScope,omitempty" bson:"productScope,omitempty"`
	Active       bool     `json:"active" bson:"active"`
}

// TagRuleUpdateInput là body cập nhật rule — chỉ field có mặt được cập nhật
type TagRuleUpdateInput struct {
	Name         string   `json:"name,omitempty" bson:"name,omitempty"`
	Category     string   `json:"category,omitempty" bson:"category,omitempty"`
	TagID        string   `json:"tagId,omitempty" bson:"tagId,omitempty"`
	Metric       string   `json:"metric,omitempty" bson:"metric,omitempty" validate:"omitempty,metric_type"`
	Operator     string   `json:"operator,omitempty" bson:"operator,omitempty" validate:"omitempty,rule_operator"`
	Threshold    *float64 `json:"threshold,omitempty" bson:"threshold,omitempty"`
	ProductScope []string `json:"productScope,omitempty" bson:"productScope,omitempty"`
	Active       *bool    `json:"active,omitempty" bson:"active,omitempty"`
}
