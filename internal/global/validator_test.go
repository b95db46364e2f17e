package global

import "testing"

// Schedule rỗng hợp lệ (job chỉ trigger manual), cron 5 trường và
// descriptor parse được, chuỗi rác bị từ chối
func TestValidScheduleExpr(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"0 3 * * *", true},
		{"*/15 * * * *", true},
		{"@daily", true},
		{"@every 1h30m", true},
		{"không phải cron", false},
		{"0 3 * *", false},
		{"99 99 * * *", false},
	}

	for _, tc := range cases {
		if got := ValidScheduleExpr(tc.expr); got != tc.want {
			t.Errorf("ValidScheduleExpr(%q): muốn %v, nhận %v", tc.expr, tc.want, got)
		}
	}
}
