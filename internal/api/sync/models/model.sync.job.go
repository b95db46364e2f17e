// Package models - SyncJob và SyncJobRun thuộc domain sync.
// Job là định nghĩa đồng bộ (platform + lịch); run là một lần thực thi với
// state machine pending → running → {success, partial, failed}.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncTypeAll là sync type đặc biệt: đồng bộ mọi platform có adapter
const SyncTypeAll = "all"

// Các trigger kind của một run
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// ActorSystem là actor ghi nhận cho run do scheduler trigger
const ActorSystem = "system"

// Các state của một run. Run ở state terminal là immutable.
const (
	RunStatePending = "pending"
	RunStateRunning = "running"
	RunStateSuccess = "success"
	RunStatePartial = "partial"
	RunStateFailed  = "failed"
)

// TerminalState kiểm tra state có phải terminal không
func TerminalState(state string) bool {
	switch state {
	case RunStateSuccess, RunStatePartial, RunStateFailed:
		return true
	}
	return false
}

// LastRunSummary là tóm tắt run gần nhất, nhúng trong SyncJob.
// Cập nhật atomically cùng lúc run được finalize.
type LastRunSummary struct {
	RunID      string `json:"runId" bson:"runId"`
	State      string `json:"state" bson:"state"`
	FinishedAt int64  `json:"finishedAt" bson:"finishedAt"` // Unix ms
	Processed  int    `json:"processed" bson:"processed"`
	Failed     int    `json:"failed" bson:"failed"`
}

// SyncJob là định nghĩa một job đồng bộ (sync_jobs)
type SyncJob struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	Name     string `json:"name" bson:"name"`
	SyncType string `json:"syncType" bson:"syncType"` // hotmart | curseduca | discord_activity | all
	Schedule string `json:"schedule,omitempty" bson:"schedule,omitempty"` // Cron expr, rỗng = chỉ trigger manual
	Enabled  bool   `json:"enabled" bson:"enabled"`

	LastRun *LastRunSummary `json:"lastRun,omitempty" bson:"lastRun,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}

// RunError là một lỗi đã chứa trong run (per-item hoặc per-platform)
type RunError struct {
	Message string `json:"message" bson:"message"`
	At      int64  `json:"at" bson:"at"` // Unix ms
}

// PlatformRunCounters là bộ đếm per-platform persist trong run
type PlatformRunCounters struct {
	Fetched   int `json:"fetched" bson:"fetched"`
	Processed int `json:"processed" bson:"processed"`
	Skipped   int `json:"skipped" bson:"skipped"`
	Failed    int `json:"failed" bson:"failed"`
}

// SyncJobRun là một lần thực thi của job (sync_job_runs).
// Invariant: mỗi job có tối đa một run ở state running — enforce bằng guard
// in-process cộng unique partial index trên (jobId, state=running).
type SyncJobRun struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`

	JobID       primitive.ObjectID `json:"jobId" bson:"jobId"`
	TriggerKind string             `json:"triggerKind" bson:"triggerKind"` // scheduled | manual
	TriggeredBy string             `json:"triggeredBy" bson:"triggeredBy"` // Actor, "system" cho scheduled

	State      string `json:"state" bson:"state"`
	StartedAt  int64  `json:"startedAt,omitempty" bson:"startedAt,omitempty"`   // Unix ms
	FinishedAt int64  `json:"finishedAt,omitempty" bson:"finishedAt,omitempty"` // Unix ms

	// Bộ đếm per-platform và actuation
	Counters         map[string]*PlatformRunCounters `json:"counters,omitempty" bson:"counters,omitempty"`
	Decisions        int                             `json:"decisions" bson:"decisions"`
	Applied          int                             `json:"applied" bson:"applied"`
	ActuationFailed  int                             `json:"actuationFailed" bson:"actuationFailed"`
	ActuationSkipped int                             `json:"actuationSkipped" bson:"actuationSkipped"`

	Errors          []RunError `json:"errors,omitempty" bson:"errors,omitempty"`
	CancelRequested bool       `json:"cancelRequested" bson:"cancelRequested"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Unix ms
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"` // Unix ms
}
