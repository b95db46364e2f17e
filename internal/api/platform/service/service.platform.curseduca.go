package platformsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	platformmodels "edu_admin/internal/api/platform/models"
)

// curseducaMemberProgress là progress một học viên trong response Curseduca
type curseducaMemberProgress struct {
	Email            string   `json:"email"`
	CourseID         string   `json:"courseId"`
	CourseGroup      string   `json:"courseGroup"`
	GroupName        string   `json:"groupName"`
	LastSeenAt       int64    `json:"lastSeenAt"` // Unix ms
	AccessLog        []int64  `json:"accessLog"`  // Unix ms
	CompletedModules []string `json:"completedModules"`
	TotalModules     int      `json:"totalModules"`
	MemberStatus     string   `json:"memberStatus"`
	Error            string   `json:"error,omitempty"` // Khác rỗng = fetch account này thất bại
}

// curseducaProgressResponse là response của endpoint progress
type curseducaProgressResponse struct {
	Members []curseducaMemberProgress `json:"members"`
}

// CurseducaAdapter fetch activity học viên từ API Curseduca
type CurseducaAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewCurseducaAdapter tạo adapter Curseduca
func NewCurseducaAdapter(baseURL, apiKey string, timeout time.Duration) *CurseducaAdapter {
	return &CurseducaAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  newHTTPClient(timeout),
	}
}

// Platform trả về tên platform
func (a *CurseducaAdapter) Platform() string {
	return platformmodels.PlatformCurseduca
}

// FetchActivity lấy progress từ Curseduca và normalize về ActivitySnapshot.
// Curseduca báo lỗi per-member bằng field error trong từng item thay vì danh
// sách failures riêng — normalize về IdentifierFailure ở đây.
func (a *CurseducaAdapter) FetchActivity(ctx context.Context, accountIDs []string, window platformmodels.TimeWindow) (*platformmodels.FetchResult, error) {
	url := fmt.Sprintf("%s/api/v1/members/progress?from=%d&to=%d", a.baseURL, window.From, window.To)
	if len(accountIDs) > 0 {
		url = fmt.Sprintf("%s&emails=%s", url, strings.Join(accountIDs, ","))
	}
	headers := map[string]string{
		"api_key": a.apiKey,
	}

	var resp curseducaProgressResponse
	if err := doJSONRequest(ctx, a.client, "GET", url, headers, nil, &resp); err != nil {
		return nil, err
	}

	result := &platformmodels.FetchResult{Platform: a.Platform()}
	for _, m := range resp.Members {
		if m.Error != "" {
			result.Failures = append(result.Failures, platformmodels.IdentifierFailure{
				AccountID: m.Email,
				Reason:    m.Error,
			})
			continue
		}
		result.Snapshots = append(result.Snapshots, platformmodels.ActivitySnapshot{
			Email:            m.Email,
			Platform:         a.Platform(),
			ProductID:        m.CourseID,
			ProductFamily:    m.CourseGroup,
			ClassGroup:       m.GroupName,
			LastAccessAt:     m.LastSeenAt,
			LoginLog:         m.AccessLog,
			CompletedModules: m.CompletedModules,
			TotalModules:     m.TotalModules,
			Status:           m.MemberStatus,
		})
	}
	return result, nil
}
