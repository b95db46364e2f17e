package lifecyclesvc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"edu_admin/internal/common"
)

// ChatRoleClient là contract mutation role trên chat platform.
// Từng thao tác phải idempotent để retry cả transition an toàn: add role
// đã có và remove role không có đều là no-op thành công.
type ChatRoleClient interface {
	AddRole(ctx context.Context, accountID, roleID string) error
	RemoveRole(ctx context.Context, accountID, roleID string) error
}

// DiscordRoleClient gọi API role kiểu Discord (guild member roles)
type DiscordRoleClient struct {
	baseURL  string
	botToken string
	guildID  string
	client   *http.Client
}

// NewDiscordRoleClient tạo client role Discord
func NewDiscordRoleClient(baseURL, botToken, guildID string) *DiscordRoleClient {
	return &DiscordRoleClient{
		baseURL:  baseURL,
		botToken: botToken,
		guildID:  guildID,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// AddRole gán role cho member. PUT idempotent: member đã có role → 204.
func (c *DiscordRoleClient) AddRole(ctx context.Context, accountID, roleID string) error {
	return c.doMutation(ctx, "PUT", accountID, roleID)
}

// RemoveRole gỡ role khỏi member. DELETE idempotent: member không có role → 204.
func (c *DiscordRoleClient) RemoveRole(ctx context.Context, accountID, roleID string) error {
	return c.doMutation(ctx, "DELETE", accountID, roleID)
}

func (c *DiscordRoleClient) doMutation(ctx context.Context, method, accountID, roleID string) error {
	url := fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", c.baseURL, c.guildID, accountID, roleID)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return common.NewTransientError(err, 0)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case common.TransientStatusCode(resp.StatusCode):
		// 429 của Discord là rate limit — transient, retry với backoff
		respBody, _ := io.ReadAll(resp.Body)
		return common.NewTransientError(fmt.Errorf("chat platform trả về status %d: %s", resp.StatusCode, string(respBody)), resp.StatusCode)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return common.NewError(
			common.ErrCodeExternalPermanent,
			fmt.Sprintf("chat platform trả về status %d: %s", resp.StatusCode, string(respBody)),
			resp.StatusCode,
			nil,
		)
	}
}
