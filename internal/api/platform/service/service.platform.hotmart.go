package platformsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	platformmodels "edu_admin/internal/api/platform/models"
)

// hotmartActivityItem là một record activity trong response của Hotmart
type hotmartActivityItem struct {
	Email            string   `json:"email"`
	ProductID        string   `json:"product_id"`
	ProductFamily    string   `json:"product_family"`
	ClassGroup       string   `json:"class_group"`
	LastAccessAt     int64    `json:"last_access_at"` // Unix ms
	Logins           []int64  `json:"logins"`         // Unix ms
	CompletedLessons []string `json:"completed_lessons"`
	TotalLessons     int      `json:"total_lessons"`
	Status           string   `json:"status"`
}

// hotmartActivityResponse là response của endpoint activity.
// Hotmart trả partial result: items thành công + failures theo từng account.
type hotmartActivityResponse struct {
	Items    []hotmartActivityItem `json:"items"`
	Failures []struct {
		Email  string `json:"email"`
		Reason string `json:"reason"`
	} `json:"failures"`
}

// HotmartAdapter fetch activity học viên từ API Hotmart
type HotmartAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHotmartAdapter tạo adapter Hotmart
func NewHotmartAdapter(baseURL, apiKey string, timeout time.Duration) *HotmartAdapter {
	return &HotmartAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

// Platform trả về tên platform
func (a *HotmartAdapter) Platform() string {
	return platformmodels.PlatformHotmart
}

// FetchActivity lấy activity từ Hotmart và normalize về ActivitySnapshot
func (a *HotmartAdapter) FetchActivity(ctx context.Context, accountIDs []string, window platformmodels.TimeWindow) (*platformmodels.FetchResult, error) {
	url := fmt.Sprintf("%s/club/api/v1/users/activity", a.baseURL)
	payload := map[string]interface{}{
		"emails": accountIDs, // rỗng = toàn bộ học viên active
		"from":   window.From,
		"to":     window.To,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	}

	var resp hotmartActivityResponse
	if err := doJSONRequest(ctx, a.client, "POST", url, headers, payload, &resp); err != nil {
		return nil, err
	}

	result := &platformmodels.FetchResult{Platform: a.Platform()}
	for _, item := range resp.Items {
		result.Snapshots = append(result.Snapshots, platformmodels.ActivitySnapshot{
			Email:            item.Email,
			Platform:         a.Platform(),
			ProductID:        item.ProductID,
			ProductFamily:    item.ProductFamily,
			ClassGroup:       item.ClassGroup,
			LastAccessAt:     item.LastAccessAt,
			LoginLog:         item.Logins,
			CompletedModules: item.CompletedLessons,
			TotalModules:     item.TotalLessons,
			Status:           item.Status,
		})
	}
	for _, f := range resp.Failures {
		result.Failures = append(result.Failures, platformmodels.IdentifierFailure{
			AccountID: f.Email,
			Reason:    f.Reason,
		})
	}
	return result, nil
}
