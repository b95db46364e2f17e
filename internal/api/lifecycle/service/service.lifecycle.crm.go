// Package lifecyclesvc - Lifecycle Actuator: apply quyết định tag/role lên
// các hệ thống ngoài với retry, idempotency và audit từng attempt.
package lifecyclesvc

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

// CrmTagClient là contract mutation tag trên CRM.
// Cả hai thao tác phải idempotent từ góc nhìn caller: add tag đã gán và
// remove tag không tồn tại đều là no-op thành công.
type CrmTagClient interface {
	AddTag(ctx context.Context, email, tagID string) error
	RemoveTag(ctx context.Context, email, tagID string) error
}

// ActiveCampaignClient gọi API CRM kiểu ActiveCampaign
type ActiveCampaignClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewActiveCampaignClient tạo client CRM
func NewActiveCampaignClient(baseURL, apiKey string) *ActiveCampaignClient {
	return &ActiveCampaignClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// AddTag gán tag cho contact theo email.
// CRM trả 422 khi tag đã gán — coi là no-op thành công (idempotent).
func (c *ActiveCampaignClient) AddTag(ctx context.Context, email, tagID string) error {
	payload := map[string]interface{}{
		"contactTag": map[string]string{
			"contact": email,
			"tag":     tagID,
		},
	}
	return c.doMutation(ctx, "POST", "/api/3/contactTags", payload)
}

// RemoveTag gỡ tag khỏi contact theo email
func (c *ActiveCampaignClient) RemoveTag(ctx context.Context, email, tagID string) error {
	path := fmt.Sprintf("/api/3/contactTags/%s/%s", email, tagID)
	return c.doMutation(ctx, "DELETE", path, nil)
}

// doMutation gọi API CRM và phân loại lỗi transient/permanent
func (c *ActiveCampaignClient) doMutation(ctx context.Context, method, path string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return common.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == 404 && method == "DELETE":
		// Gỡ tag không tồn tại: idempotent no-op
		return nil
	case resp.StatusCode == 422:
		// Tag đã gán sẵn: idempotent no-op
		return nil
	case common.TransientStatusCode(resp.StatusCode):
		respBody, _ := io.ReadAll(resp.Body)
		return common.NewTransientError(fmt.Errorf("CRM trả về status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return common.NewError(
			common.ErrCodeExternalPermanent,
			fmt.Sprintf("CRM trả về status %d: %s", resp.StatusCode, string(respBody)),
			resp.StatusCode,
			nil,
		)
	}
}
