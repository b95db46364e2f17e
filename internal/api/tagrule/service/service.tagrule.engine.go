package tagrulesvc

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	auditsvc "edu_admin/internal/api/audit/service"
	studentmodels "edu_admin/internal/api/student/models"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
	"edu_admin/internal/global"
	"edu_admin/internal/logger"
)

// TagRuleEngine load rule active và đánh giá chúng trên một batch record.
// Các rule độc lập với nhau — không rule nào phụ thuộc outcome rule khác
// trong cùng run, nên từng cặp (rule, record) đánh giá song song được.
type TagRuleEngine struct {
	rules       *TagRuleService
	assignments *TagAssignmentService
	audit       *auditsvc.AuditEventService
}

// NewTagRuleEngine tạo TagRuleEngine mới
func NewTagRuleEngine() (*TagRuleEngine, error) {
	rules, err := NewTagRuleService()
	if err != nil {
		return nil, err
	}
	assignments, err := NewTagAssignmentService()
	if err != nil {
		return nil, err
	}
	audit, err := auditsvc.NewAuditEventService()
	if err != nil {
		return nil, err
	}
	return &TagRuleEngine{rules: rules, assignments: assignments, audit: audit}, nil
}

// Assignments trả về service trạng thái assignment (actuator cần để persist sau actuation)
func (e *TagRuleEngine) Assignments() *TagAssignmentService {
	return e.assignments
}

// EvaluateBatch đánh giá toàn bộ rule active trên một batch record và trả về
// quyết định assign/revoke (unchanged chỉ ghi audit, không trả về — actuator
// không cần). runID dùng cho audit attribution.
func (e *TagRuleEngine) EvaluateBatch(ctx context.Context, records []studentmodels.StudentProduct, runID string) ([]tagrulemodels.TagDecision, error) {
	log := logger.GetAppLogger()

	rules, err := e.rules.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 || len(records) == 0 {
		return nil, nil
	}

	concurrency := global.ServerConfig.SyncConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	var mu sync.Mutex
	var decisions []tagrulemodels.TagDecision

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range records {
		record := &records[i]
		g.Go(func() error {
			for j := range rules {
				rule := &rules[j]
				if !rule.AppliesTo(record.ProductID) {
					continue
				}

				matched, value, defined := EvaluateRule(rule, &record.Engagement)

				previouslyAssigned, err := e.assignments.IsAssigned(gctx, record.Email, record.ProductID, rule.TagID)
				if err != nil {
					// Lỗi đọc prior state: skip cặp này, không chặn batch
					e.audit.Record(ctx, "tagrule", "prior_state_read_failed", "ERROR", runID, map[string]interface{}{
						"email":  record.Email,
						"ruleId": rule.ID.Hex(),
						"error":  err.Error(),
					})
					continue
				}

				outcome := Decide(matched, previouslyAssigned)
				decision := tagrulemodels.TagDecision{
					RuleID:    rule.ID.Hex(),
					RuleName:  rule.Name,
					TagID:     rule.TagID,
					Email:     record.Email,
					ProductID: record.ProductID,
					Outcome:   outcome,
					Metric:    rule.Metric,
					Value:     value,
					Undefined: !defined,
					DecidedAt: time.Now().UnixMilli(),
				}

				e.audit.Record(ctx, "tagrule", "rule_evaluated", "INFO", runID, map[string]interface{}{
					"rule":    rule.Name,
					"email":   record.Email,
					"outcome": outcome,
					"metric":  rule.Metric,
					"value":   value,
				})

				if outcome == tagrulemodels.DecisionUnchanged {
					continue
				}
				mu.Lock()
				decisions = append(decisions, decision)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decisions, err
	}

	log.WithFields(logrus.Fields{
		"runId":     runID,
		"rules":     len(rules),
		"records":   len(records),
		"decisions": len(decisions),
	}).Info("🏷️ [TAG_RULE] Đánh giá batch hoàn tất")

	return decisions, nil
}
