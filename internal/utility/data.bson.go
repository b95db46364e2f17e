// Package utility chứa các helper chuyển đổi dữ liệu dùng chung.
package utility

import (
	"go.mongodb.org/mongo-driver/bson"
)

// ToMap chuyển một struct (hoặc map) thành map[string]interface{} qua vòng marshal/unmarshal BSON.
// Tôn trọng bson tags của model — dùng ở base service khi cần thêm timestamps trước khi ghi.
func ToMap(s interface{}) (map[string]interface{}, error) {
	// Nếu đã là map, trả về luôn
	if m, ok := s.(map[string]interface{}); ok {
		return m, nil
	}

	data, err := bson.Marshal(s)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := bson.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StringsToSet chuyển slice string thành set (map[string]bool), bỏ phần tử rỗng.
func StringsToSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
