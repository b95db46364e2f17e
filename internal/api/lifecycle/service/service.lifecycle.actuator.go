package lifecyclesvc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	auditsvc "edu_admin/internal/api/audit/service"
	lifecyclemodels "edu_admin/internal/api/lifecycle/models"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
	tagrulesvc "edu_admin/internal/api/tagrule/service"
	"edu_admin/internal/common"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// ActuationCounts là bộ đếm kết quả actuation của một run
type ActuationCounts struct {
	Applied int `json:"applied" bson:"applied"`
	Failed  int `json:"failed" bson:"failed"`
	Skipped int `json:"skipped" bson:"skipped"`
}

// auditSink là phần của AuditEventService mà actuator cần
type auditSink interface {
	Record(ctx context.Context, module, action, level string, runID string, payload map[string]interface{})
}

// assignmentStore là phần của TagAssignmentService mà actuator cần
type assignmentStore interface {
	MarkApplied(ctx context.Context, decision *tagrulemodels.TagDecision) error
}

// Actuator apply quyết định tag lên CRM và chạy role transition trên chat
// platform. Song song giữa các account, tuần tự nghiêm ngặt trong một account.
type Actuator struct {
	crm         CrmTagClient
	chat        ChatRoleClient
	assignments assignmentStore
	audit       auditSink
}

// NewActuator tạo Actuator. crm/chat nil = kênh đó bị tắt (thiếu cấu hình).
func NewActuator(crm CrmTagClient, chat ChatRoleClient) (*Actuator, error) {
	assignments, err := tagrulesvc.NewTagAssignmentService()
	if err != nil {
		return nil, err
	}
	audit, err := auditsvc.NewAuditEventService()
	if err != nil {
		return nil, err
	}
	return &Actuator{crm: crm, chat: chat, assignments: assignments, audit: audit}, nil
}

// retryExternal chạy một lời gọi ra ngoài với retry/backoff theo cấu hình
func retryExternal(ctx context.Context, fn func() error) error {
	maxRetries := 3
	baseDelay := 500 * time.Millisecond
	if global.ServerConfig != nil {
		maxRetries = global.ServerConfig.ExternalMaxRetries
		baseDelay = time.Duration(global.ServerConfig.ExternalBackoffMs) * time.Millisecond
	}
	return common.RetryWithBackoff(ctx, maxRetries, baseDelay, fn)
}

// ApplyDecisions apply một batch quyết định tag lên CRM.
// Quyết định được nhóm theo account (email): các account chạy song song có
// giới hạn, các quyết định của một account chạy tuần tự. Trạng thái
// assignment chỉ được persist SAU khi side effect ngoài thành công.
func (a *Actuator) ApplyDecisions(ctx context.Context, decisions []tagrulemodels.TagDecision, runID string) ActuationCounts {
	counts := ActuationCounts{}
	if len(decisions) == 0 {
		return counts
	}
	if a.crm == nil {
		// Kênh CRM bị tắt: toàn bộ quyết định bị skip, có audit để thấy được
		counts.Skipped = len(decisions)
		a.audit.Record(ctx, "lifecycle", "crm_channel_disabled", "WARN", runID, map[string]interface{}{
			"skipped": len(decisions),
		})
		return counts
	}

	byAccount := map[string][]tagrulemodels.TagDecision{}
	for _, d := range decisions {
		byAccount[d.Email] = append(byAccount[d.Email], d)
	}

	concurrency := global.ServerConfig.ActuatorConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make(chan ActuationCounts, len(byAccount))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, accountDecisions := range byAccount {
		accountDecisions := accountDecisions
		g.Go(func() error {
			local := ActuationCounts{}
			// Tuần tự trong một account
			for i := range accountDecisions {
				if a.applyOne(gctx, &accountDecisions[i], runID) {
					local.Applied++
				} else {
					local.Failed++
				}
			}
			results <- local
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for local := range results {
		counts.Applied += local.Applied
		counts.Failed += local.Failed
	}
	return counts
}

// applyOne apply một quyết định với retry, audit attempt và persist trạng thái
func (a *Actuator) applyOne(ctx context.Context, decision *tagrulemodels.TagDecision, runID string) bool {
	idempotencyKey := uuid.NewString()

	var err error
	switch decision.Outcome {
	case tagrulemodels.DecisionAssign:
		err = retryExternal(ctx, func() error {
			return a.crm.AddTag(ctx, decision.Email, decision.TagID)
		})
	case tagrulemodels.DecisionRevoke:
		err = retryExternal(ctx, func() error {
			return a.crm.RemoveTag(ctx, decision.Email, decision.TagID)
		})
	default:
		return true
	}

	payload := map[string]interface{}{
		"email":          decision.Email,
		"tagId":          decision.TagID,
		"outcome":        decision.Outcome,
		"rule":           decision.RuleName,
		"idempotencyKey": idempotencyKey,
	}
	if err != nil {
		payload["error"] = err.Error()
		a.audit.Record(ctx, "lifecycle", "crm_tag_mutation_failed", "ERROR", runID, payload)
		return false
	}
	a.audit.Record(ctx, "lifecycle", "crm_tag_mutation_applied", "INFO", runID, payload)

	// Side effect đã apply xong mới ghi trạng thái — run sau đọc đúng prior state
	if err := a.assignments.MarkApplied(ctx, decision); err != nil {
		logger.GetErrorLogger().WithError(err).WithFields(logrus.Fields{
			"email": decision.Email,
			"tagId": decision.TagID,
		}).Error("Không persist được trạng thái assignment sau actuation")
	}
	return true
}

// RunRoleTransition chạy một transition tuần tự từng bước trên chat platform.
// Thành công của mỗi bước là điều kiện chạy bước kế; giữa các bước có delay
// bắt buộc theo rate limit của platform. Bước fail dừng chuỗi và kết quả nêu
// đích danh bước fail — caller retry cả chuỗi an toàn vì từng bước idempotent.
func (a *Actuator) RunRoleTransition(ctx context.Context, accountID string, transition lifecyclemodels.RoleTransition) *lifecyclemodels.TransitionResult {
	result := &lifecyclemodels.TransitionResult{
		Transition: transition.Name,
		AccountID:  accountID,
		Succeeded:  true,
	}

	if a.chat == nil {
		result.Succeeded = false
		result.FailedStep = "channel_disabled"
		a.audit.Record(ctx, "lifecycle", "chat_channel_disabled", "WARN", "", map[string]interface{}{
			"accountId":  accountID,
			"transition": transition.Name,
		})
		return result
	}

	stepDelay := 1200 * time.Millisecond
	if global.ServerConfig != nil {
		stepDelay = time.Duration(global.ServerConfig.RoleStepDelayMs) * time.Millisecond
	}
	idempotencyKey := uuid.NewString()

	for i, step := range transition.Steps {
		stepResult := lifecyclemodels.StepResult{Step: step}

		if !result.Succeeded {
			// Bước trước fail: không attempt các bước còn lại
			result.Steps = append(result.Steps, stepResult)
			continue
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				result.Succeeded = false
				result.FailedStep = stepName(step)
				stepResult.Error = ctx.Err().Error()
				result.Steps = append(result.Steps, stepResult)
				continue
			case <-time.After(stepDelay):
			}
		}

		stepResult.Attempted = true
		err := retryExternal(ctx, func() error {
			if step.Op == lifecyclemodels.OpAdd {
				return a.chat.AddRole(ctx, accountID, step.RoleID)
			}
			return a.chat.RemoveRole(ctx, accountID, step.RoleID)
		})

		payload := map[string]interface{}{
			"accountId":      accountID,
			"transition":     transition.Name,
			"step":           stepName(step),
			"idempotencyKey": idempotencyKey,
		}
		if err != nil {
			stepResult.Error = err.Error()
			result.Succeeded = false
			result.FailedStep = stepName(step)
			payload["error"] = err.Error()
			a.audit.Record(ctx, "lifecycle", "role_step_failed", "ERROR", "", payload)
		} else {
			stepResult.Succeeded = true
			a.audit.Record(ctx, "lifecycle", "role_step_applied", "INFO", "", payload)
		}
		result.Steps = append(result.Steps, stepResult)
	}

	return result
}

// stepName định danh một bước cho log/báo lỗi
func stepName(step lifecyclemodels.RoleStep) string {
	return fmt.Sprintf("%s:%s", step.Op, step.RoleName)
}
