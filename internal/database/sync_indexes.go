// Package database - Index cho engine đồng bộ (compound, partial) không thể định nghĩa qua model tags.
package database

import (
	"context"
	"strings"

	"edu_admin/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateSyncIndexes tạo index cho các collection của engine.
// Gọi một lần khi khởi động; lỗi "index đã tồn tại" được bỏ qua.
func CreateSyncIndexes(ctx context.Context, db *mongo.Database) error {
	// sync_job_runs: (jobId, state) — guard "một run RUNNING mỗi job" và truy vấn runs theo job
	runs := db.Collection(global.MongoDB_ColNames.SyncJobRuns)
	if _, err := runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "jobId", Value: 1},
			{Key: "state", Value: 1},
		},
		Options: options.Index().SetName("sync_run_job_state"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// sync_job_runs: unique partial trên jobId với state=running — chốt invariant ở tầng DB
	if _, err := runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "jobId", Value: 1}},
		Options: options.Index().
			SetName("sync_run_job_running_unique").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"state": "running"}),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// sync_job_runs: startedAt desc — listing run mới nhất
	if _, err := runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "startedAt", Value: -1}},
		Options: options.Index().SetName("sync_run_started_desc"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// student_products: (email, productId) unique — khóa merge của Universal Sync
	students := db.Collection(global.MongoDB_ColNames.StudentProducts)
	if _, err := students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "email", Value: 1},
			{Key: "productId", Value: 1},
		},
		Options: options.Index().SetName("student_product_email_product_unique").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// student_products: (email, productFamily, isPrimary) — chọn primary record theo family
	if _, err := students.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "email", Value: 1},
			{Key: "productFamily", Value: 1},
			{Key: "isPrimary", Value: 1},
		},
		Options: options.Index().SetName("student_product_family_primary"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// tag_assignments: (email, productId, tagId) unique — trạng thái gán tag hiện tại
	assignments := db.Collection(global.MongoDB_ColNames.TagAssignments)
	if _, err := assignments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "email", Value: 1},
			{Key: "productId", Value: 1},
			{Key: "tagId", Value: 1},
		},
		Options: options.Index().SetName("tag_assignment_unique").SetUnique(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// audit_events: (module, level, timestamp desc) — query surface của audit log
	audit := db.Collection(global.MongoDB_ColNames.AuditEvents)
	if _, err := audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "module", Value: 1},
			{Key: "level", Value: 1},
			{Key: "timestamp", Value: -1},
		},
		Options: options.Index().SetName("audit_module_level_ts"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// audit_events: runId — trace toàn bộ event của một run
	if _, err := audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "runId", Value: 1}},
		Options: options.Index().SetName("audit_run").SetSparse(true),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

// isIndexExistsError nhận diện lỗi index đã tồn tại (IndexOptionsConflict / IndexKeySpecsConflict).
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "IndexOptionsConflict") ||
		strings.Contains(msg, "IndexKeySpecsConflict") ||
		strings.Contains(msg, "already exists")
}
