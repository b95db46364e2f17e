package common

import (
	"context"
	"errors"
	"net"
	"time"
)

// TransientError đánh dấu lỗi tạm thời từ hệ thống ngoài (network/5xx/rate-limit).
// Các lời gọi ra ngoài wrap loại lỗi này để retry với backoff; lỗi khác không retry.
type TransientError struct {
	Cause      error
	StatusCode int // HTTP status từ hệ thống ngoài, 0 nếu là lỗi network
}

// Error trả về message của lỗi gốc
func (e *TransientError) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "lỗi tạm thời từ hệ thống ngoài"
}

// Unwrap hỗ trợ errors.Is/As với lỗi gốc
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// NewTransientError wrap một lỗi thành TransientError.
func NewTransientError(cause error, statusCode int) error {
	return &TransientError{Cause: cause, StatusCode: statusCode}
}

// IsTransient kiểm tra lỗi có retry được không.
// Transient: TransientError, lỗi network (net.Error), context deadline phía transport.
// Non-transient: validation (4xx), not-found, lỗi nghiệp vụ.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}

// TransientStatusCode xác định một HTTP status từ hệ thống ngoài có phải transient không.
// 5xx và 429 (rate limit) retry được; 4xx còn lại là lỗi vĩnh viễn.
func TransientStatusCode(status int) bool {
	return status >= 500 || status == StatusTooManyRequests
}

// RetryWithBackoff chạy fn tối đa maxRetries+1 lần, backoff nhân đôi sau mỗi lần thất bại.
// Chỉ retry khi IsTransient(err); lỗi non-transient trả về ngay.
// Tôn trọng ctx: dừng giữa chừng khi context bị cancel.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := baseDelay
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
