// Package platformsvc - Adapter contract và registry cho các platform ngoài.
// Mỗi adapter normalize activity của một platform về ActivitySnapshot chung.
package platformsvc

import (
	"context"
	"fmt"
	"time"

	platformmodels "edu_admin/internal/api/platform/models"
	"edu_admin/internal/common"
	"edu_admin/internal/registry"
)

// Adapter là contract cho một nguồn activity ngoài.
// FetchActivity phải trả về partial result: snapshot thành công kèm danh sách
// account thất bại, không được fail toàn bộ vì một account lỗi.
type Adapter interface {
	// Platform trả về tên platform (hotmart | curseduca | discord_activity)
	Platform() string

	// FetchActivity lấy activity của các account trong cửa sổ thời gian.
	// accountIDs rỗng nghĩa là fetch toàn bộ học viên đang active của platform.
	FetchActivity(ctx context.Context, accountIDs []string, window platformmodels.TimeWindow) (*platformmodels.FetchResult, error)
}

// RegistryAdapters chứa các adapter đã đăng ký, key theo tên platform
var RegistryAdapters = registry.NewRegistry[Adapter]()

// RegisterAdapter đăng ký một adapter vào registry
func RegisterAdapter(a Adapter) error {
	_, err := RegistryAdapters.Register(a.Platform(), a)
	return err
}

// GetAdapter lấy adapter theo tên platform
func GetAdapter(platform string) (Adapter, error) {
	a, ok := RegistryAdapters.Get(platform)
	if !ok {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("Không có adapter nào đăng ký cho platform %s", platform),
			common.StatusBadRequest,
			nil,
		)
	}
	return a, nil
}

// retryingAdapter bọc một Adapter với retry/backoff trên lỗi transient.
// Lỗi permanent (validation/not-found) không được retry.
type retryingAdapter struct {
	inner      Adapter
	maxRetries int
	baseDelay  time.Duration
}

// WithRetry bọc adapter bằng retry/backoff
func WithRetry(a Adapter, maxRetries int, baseDelay time.Duration) Adapter {
	return &retryingAdapter{
		inner:      a,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

func (r *retryingAdapter) Platform() string {
	return r.inner.Platform()
}

func (r *retryingAdapter) FetchActivity(ctx context.Context, accountIDs []string, window platformmodels.TimeWindow) (*platformmodels.FetchResult, error) {
	var result *platformmodels.FetchResult
	err := common.RetryWithBackoff(ctx, r.maxRetries, r.baseDelay, func() error {
		var fetchErr error
		result, fetchErr = r.inner.FetchActivity(ctx, accountIDs, window)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
