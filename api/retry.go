package api

import (
	"context"
	"time"

	"packmate/models"
	"packmate/utils"

	"go.uber.org/zap"
)

// OTPGateway is the slice of the client the onboarding flow depends on.
type OTPGateway interface {
	RequestLoginOTP(ctx context.Context, email string) (*models.OTPChallenge, error)
	RequestRegisterOTP(ctx context.Context, name, email string) (*models.OTPChallenge, error)
	VerifyOTP(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error)
}

// RetryConfig describes the retry behaviour of RetryingGateway.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingGateway decorates an OTPGateway with capped exponential backoff.
// Only transport failures and 5xx responses are retried; rejected codes and
// token errors surface immediately.
type RetryingGateway struct {
	next  OTPGateway
	cfg   RetryConfig
	sleep func(time.Duration)
}

// NewRetryingGateway wraps next; returns nil when next is nil.
func NewRetryingGateway(next OTPGateway, cfg RetryConfig) *RetryingGateway {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryingGateway{next: next, cfg: cfg, sleep: time.Sleep}
}

// RequestLoginOTP retries the login OTP request.
func (g *RetryingGateway) RequestLoginOTP(ctx context.Context, email string) (*models.OTPChallenge, error) {
	return retryCall(ctx, g, "RequestLoginOTP", func() (*models.OTPChallenge, error) {
		return g.next.RequestLoginOTP(ctx, email)
	})
}

// RequestRegisterOTP retries the registration OTP request.
func (g *RetryingGateway) RequestRegisterOTP(ctx context.Context, name, email string) (*models.OTPChallenge, error) {
	return retryCall(ctx, g, "RequestRegisterOTP", func() (*models.OTPChallenge, error) {
		return g.next.RequestRegisterOTP(ctx, name, email)
	})
}

// VerifyOTP retries verification on transport failures. A 4xx (wrong or
// expired code) is final and consumes no extra attempts.
func (g *RetryingGateway) VerifyOTP(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error) {
	return retryCall(ctx, g, "VerifyOTP", func() (*models.TokenPair, error) {
		return g.next.VerifyOTP(ctx, flow, otpCode, sessionID)
	})
}

func retryCall[T any](ctx context.Context, g *RetryingGateway, method string, fn func() (*T, error)) (*T, error) {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !IsRetryable(err) {
			break
		}
		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		utils.GetLogger().Warn("api: retrying OTP gateway call",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if !sleepWithContext(ctx, g.sleep, delay) {
			break
		}
	}
	return nil, lastErr
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if max > 0 && d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, sleep func(time.Duration), d time.Duration) bool {
	if d <= 0 {
		return true
	}
	done := make(chan struct{})
	go func() {
		sleep(d)
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
