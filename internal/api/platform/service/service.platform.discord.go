package platformsvc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	platformmodels "edu_admin/internal/api/platform/models"
)

// discordPresenceItem là presence một member trong response
type discordPresenceItem struct {
	Email      string  `json:"email"` // Email đã map từ member id (mapping do bot quản lý)
	GuildID    string  `json:"guildId"`
	LastSeenAt int64   `json:"lastSeenAt"` // Unix ms
	Sessions   []int64 `json:"sessions"`   // Unix ms mỗi lần online
}

// discordPresenceResponse là response của endpoint presence
type discordPresenceResponse struct {
	Members  []discordPresenceItem `json:"members"`
	Unmapped []string              `json:"unmapped"` // Member chưa map được email
}

// DiscordActivityAdapter fetch presence từ server Discord (qua bot API).
// Discord không có curriculum nên snapshot luôn có TotalModules = 0;
// record này chỉ đóng góp login/last-access cho metrics.
type DiscordActivityAdapter struct {
	baseURL  string
	botToken string
	guildID  string
	client   *http.Client
}

// NewDiscordActivityAdapter tạo adapter Discord activity
func NewDiscordActivityAdapter(baseURL, botToken, guildID string, timeout time.Duration) *DiscordActivityAdapter {
	return &DiscordActivityAdapter{
		baseURL:  baseURL,
		botToken: botToken,
		guildID:  guildID,
		client:   newHTTPClient(timeout),
	}
}

// Platform trả về tên platform
func (a *DiscordActivityAdapter) Platform() string {
	return platformmodels.PlatformDiscordActivity
}

// FetchActivity lấy presence từ Discord và normalize về ActivitySnapshot
func (a *DiscordActivityAdapter) FetchActivity(ctx context.Context, accountIDs []string, window platformmodels.TimeWindow) (*platformmodels.FetchResult, error) {
	url := fmt.Sprintf("%s/guilds/%s/presence", a.baseURL, a.guildID)
	payload := map[string]interface{}{
		"emails": accountIDs,
		"from":   window.From,
		"to":     window.To,
	}
	headers := map[string]string{
		"Authorization": "Bot " + a.botToken,
	}

	var resp discordPresenceResponse
	if err := doJSONRequest(ctx, a.client, "POST", url, headers, payload, &resp); err != nil {
		return nil, err
	}

	result := &platformmodels.FetchResult{Platform: a.Platform()}
	for _, m := range resp.Members {
		result.Snapshots = append(result.Snapshots, platformmodels.ActivitySnapshot{
			Email:         m.Email,
			Platform:      a.Platform(),
			ProductID:     m.GuildID,
			ProductFamily: "community",
			LastAccessAt:  m.LastSeenAt,
			LoginLog:      m.Sessions,
			TotalModules:  0, // Discord không có curriculum
		})
	}
	for _, id := range resp.Unmapped {
		result.Failures = append(result.Failures, platformmodels.IdentifierFailure{
			AccountID: id,
			Reason:    "member chưa map được email",
		})
	}
	return result, nil
}
