// Package dto - DTO cho domain sync.
package dto

// SyncJobCreateInput là body tạo job đồng bộ mới
type SyncJobCreateInput struct {
	Name     string `json:"name" bson:"name" validate:"required"`
	SyncType string `json:"syncType" bson:"syncType" validate:"required,sync_type"`
	Schedule string `json:"schedule,omitempty" bson:"schedule,omitempty" validate:"omitempty,schedule_expr"`
	Enabled  bool   `json:"enabled" bson:"enabled"`
}

// SyncJobUpdateInput là body cập nhật job — chỉ field có mặt được cập nhật
type SyncJobUpdateInput struct {
	Name     string `json:"name,omitempty" bson:"name,omitempty"`
	SyncType string `json:"syncType,omitempty" bson:"syncType,omitempty" validate:"omitempty,sync_type"`
	Schedule string `json:"schedule,omitempty" bson:"schedule,omitempty" validate:"omitempty,schedule_expr"`
	Enabled  *bool  `json:"enabled,omitempty" bson:"enabled,omitempty"`
}
