// Package tagrulesvc - Test đánh giá rule và quyết định assign/revoke.
package tagrulesvc

import (
	"testing"

	studentmodels "edu_admin/internal/api/student/models"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
)

func progressRule(operator string, threshold float64) *tagrulemodels.TagRule {
	return &tagrulemodels.TagRule{
		Name:      "progress-rule",
		TagID:     "tag-1",
		Metric:    tagrulemodels.MetricProgressPercent,
		Operator:  operator,
		Threshold: threshold,
		Active:    true,
	}
}

func TestEvaluateRule_ProgressThreshold(t *testing.T) {
	rule := progressRule(tagrulemodels.OpGte, 80)

	matched, _, defined := EvaluateRule(rule, &studentmodels.EngagementMetrics{ProgressPercent: 85})
	if !defined || !matched {
		t.Errorf("progress 85 >= 80 phải match, nhận matched=%v defined=%v", matched, defined)
	}

	matched, _, _ = EvaluateRule(rule, &studentmodels.EngagementMetrics{ProgressPercent: 79})
	if matched {
		t.Error("progress 79 >= 80 không được match")
	}

	// Record NoCurriculum có progress 0 nhưng là undefined → no-match
	matched, _, defined = EvaluateRule(progressRule(tagrulemodels.OpLt, 50), &studentmodels.EngagementMetrics{
		ProgressPercent: 0,
		NoCurriculum:    true,
	})
	if matched || defined {
		t.Errorf("progress của record no-curriculum là undefined, phải no-match: matched=%v defined=%v", matched, defined)
	}
}

func TestEvaluateRule_NeverActiveSentinelNeverMatches(t *testing.T) {
	metrics := &studentmodels.EngagementMetrics{
		DaysInactive: studentmodels.DaysInactiveNeverActive,
		NeverActive:  true,
	}

	operators := []string{
		tagrulemodels.OpGte, tagrulemodels.OpLte, tagrulemodels.OpEq,
		tagrulemodels.OpNeq, tagrulemodels.OpGt, tagrulemodels.OpLt,
	}
	for _, op := range operators {
		rule := &tagrulemodels.TagRule{
			Metric:    tagrulemodels.MetricDaysInactive,
			Operator:  op,
			Threshold: -1, // kể cả so trực tiếp với sentinel
		}
		if matched, _, _ := EvaluateRule(rule, metrics); matched {
			t.Errorf("sentinel never-active phải no-match với mọi operator, operator %s lại match", op)
		}
	}
}

func TestEvaluateRule_AllOperators(t *testing.T) {
	metrics := &studentmodels.EngagementMetrics{LoginsLast30d: 5}
	cases := []struct {
		op        string
		threshold float64
		want      bool
	}{
		{tagrulemodels.OpGte, 5, true},
		{tagrulemodels.OpLte, 4, false},
		{tagrulemodels.OpEq, 5, true},
		{tagrulemodels.OpNeq, 5, false},
		{tagrulemodels.OpGt, 5, false},
		{tagrulemodels.OpLt, 6, true},
	}
	for _, c := range cases {
		rule := &tagrulemodels.TagRule{
			Metric:    tagrulemodels.MetricLoginsLast30d,
			Operator:  c.op,
			Threshold: c.threshold,
		}
		if matched, _, _ := EvaluateRule(rule, metrics); matched != c.want {
			t.Errorf("logins=5 %s %v: muốn %v, nhận %v", c.op, c.threshold, c.want, matched)
		}
	}
}

func TestDecide_RevokeOnlyIfPreviouslyAssigned(t *testing.T) {
	if d := Decide(true, false); d != tagrulemodels.DecisionAssign {
		t.Errorf("match lần đầu phải assign, nhận %s", d)
	}
	if d := Decide(true, true); d != tagrulemodels.DecisionUnchanged {
		t.Errorf("match lại tag đang gán phải unchanged, nhận %s", d)
	}
	if d := Decide(false, true); d != tagrulemodels.DecisionRevoke {
		t.Errorf("hết match tag đang gán phải revoke, nhận %s", d)
	}
	if d := Decide(false, false); d != tagrulemodels.DecisionUnchanged {
		t.Errorf("không match tag chưa gán phải unchanged, nhận %s", d)
	}
}

func TestRuleAppliesTo_ProductScope(t *testing.T) {
	all := &tagrulemodels.TagRule{}
	if !all.AppliesTo("any-product") {
		t.Error("rule không có productScope phải áp dụng cho mọi sản phẩm")
	}

	scoped := &tagrulemodels.TagRule{ProductScope: []string{"course-1", "course-2"}}
	if !scoped.AppliesTo("course-2") {
		t.Error("rule phải áp dụng cho sản phẩm trong scope")
	}
	if scoped.AppliesTo("course-3") {
		t.Error("rule không được áp dụng ngoài scope")
	}
}
