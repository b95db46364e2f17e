// Package dto - DTO cho domain lifecycle.
package dto

// RoleTransitionInput là body yêu cầu chạy một role transition cho một account
type RoleTransitionInput struct {
	AccountID  string `json:"accountId" validate:"required"`
	Transition string `json:"transition" validate:"required,oneof=inactive reactivate"`
}
