// Package tagrulesvc - Tag Rule Engine: đánh giá rule trên metrics và
// sinh quyết định assign/revoke/unchanged.
package tagrulesvc

import (
	studentmodels "edu_admin/internal/api/student/models"
	tagrulemodels "edu_admin/internal/api/tagrule/models"
)

// metricValue đọc giá trị metric theo kiểu khai báo trong rule.
// defined = false khi metric là sentinel/undefined (never-active,
// no-curriculum) — rule không bao giờ match trên giá trị undefined.
func metricValue(metric string, m *studentmodels.EngagementMetrics) (value float64, defined bool) {
	switch metric {
	case tagrulemodels.MetricDaysInactive:
		if m.NeverActive {
			return 0, false
		}
		return float64(m.DaysInactive), true
	case tagrulemodels.MetricLoginsLast30d:
		return float64(m.LoginsLast30d), true
	case tagrulemodels.MetricWeeksActive:
		return float64(m.WeeksActiveLast30d), true
	case tagrulemodels.MetricProgressPercent:
		if m.NoCurriculum {
			return 0, false
		}
		return m.ProgressPercent, true
	case tagrulemodels.MetricCompletedModules:
		return float64(m.CompletedModuleCount), true
	}
	return 0, false
}

// compare áp operator lên (value, threshold)
func compare(operator string, value, threshold float64) bool {
	switch operator {
	case tagrulemodels.OpGte:
		return value >= threshold
	case tagrulemodels.OpLte:
		return value <= threshold
	case tagrulemodels.OpEq:
		return value == threshold
	case tagrulemodels.OpNeq:
		return value != threshold
	case tagrulemodels.OpGt:
		return value > threshold
	case tagrulemodels.OpLt:
		return value < threshold
	}
	return false
}

// EvaluateRule đánh giá một rule trên metrics của một record. Hàm thuần.
// Metric undefined (sentinel never-active, no-curriculum) → no-match bất kể
// operator/threshold, không phải lỗi.
func EvaluateRule(rule *tagrulemodels.TagRule, metrics *studentmodels.EngagementMetrics) (matched bool, value float64, defined bool) {
	value, defined = metricValue(rule.Metric, metrics)
	if !defined {
		return false, value, false
	}
	return compare(rule.Operator, value, rule.Threshold), value, true
}

// Decide chuyển (matched, trạng thái đã gán trước đó) thành outcome.
// Revoke chỉ khi tag đã được ghi nhận là assigned; match lại tag đang gán
// là unchanged (actuation idempotent, không gọi CRM thừa).
func Decide(matched, previouslyAssigned bool) string {
	switch {
	case matched && !previouslyAssigned:
		return tagrulemodels.DecisionAssign
	case !matched && previouslyAssigned:
		return tagrulemodels.DecisionRevoke
	default:
		return tagrulemodels.DecisionUnchanged
	}
}
