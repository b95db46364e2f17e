// Package dto - DTO cho domain student.
package dto

// RecalculateInput là body recalculate một record học viên.
// Status là đường reconciliation duy nhất được phép hạ rank status.
type RecalculateInput struct {
	ProductID string `json:"productId" validate:"required"`
	Status    string `json:"status,omitempty" validate:"omitempty,oneof=enrolled started active inactive cancelled"`
}
