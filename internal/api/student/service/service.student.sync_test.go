package studentsvc

import (
	"reflect"
	"testing"
)

// Platform trùng hoặc rỗng bị loại khỏi danh sách sync, thứ tự giữ nguyên
func TestDedupePlatforms(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"không trùng", []string{"hotmart", "curseduca"}, []string{"hotmart", "curseduca"}},
		{"có trùng", []string{"hotmart", "curseduca", "hotmart", "discord_activity", "curseduca"}, []string{"hotmart", "curseduca", "discord_activity"}},
		{"có phần tử rỗng", []string{"", "hotmart", ""}, []string{"hotmart"}},
		{"rỗng hoàn toàn", nil, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dedupePlatforms(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("dedupePlatforms(%v): muốn %v, nhận %v", tc.in, tc.want, got)
			}
		})
	}
}
