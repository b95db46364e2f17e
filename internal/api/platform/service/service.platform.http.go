package platformsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"edu_admin/internal/common"
)

// doJSONRequest gọi API platform ngoài và decode JSON response vào out.
// Status 5xx/429 được wrap thành TransientError để tầng retry xử lý;
// 4xx còn lại là lỗi vĩnh viễn, trả thẳng về caller.
func doJSONRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return common.NewError(common.ErrCodeValidationFormat, "Không thể marshal request body", common.StatusBadRequest, err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		// Lỗi network là transient
		return common.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("API trả về status %d: %s", resp.StatusCode, string(bodyBytes))
		if common.TransientStatusCode(resp.StatusCode) {
			return common.NewTransientError(err, resp.StatusCode)
		}
		return common.NewError(common.ErrCodeExternalPermanent, err.Error(), resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return common.NewError(common.ErrCodeValidationFormat, "Không thể decode response từ hệ thống ngoài", common.StatusInternalServerError, err)
		}
	}
	return nil
}

// newHTTPClient tạo http.Client với timeout cho các lời gọi adapter
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
