package workflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"packmate/api"
	"packmate/keystore"
	"packmate/models"
	"packmate/session"
	"packmate/utils"

	"go.uber.org/zap"
)

// AuthFlow drives OTP onboarding: request a challenge, count it down, verify
// the code, establish the session. The challenge is persisted in the
// keystore so a relaunched app can resume a pending verification.
type AuthFlow struct {
	liveness
	guard   inFlightGuard
	gateway api.OTPGateway
	sess    *session.Store
	keys    *keystore.Store
}

// NewAuthFlow creates an auth flow instance.
func NewAuthFlow(gateway api.OTPGateway, sess *session.Store, keys *keystore.Store) *AuthFlow {
	return &AuthFlow{gateway: gateway, sess: sess, keys: keys}
}

// Begin requests an OTP challenge for the given flow. Name is only used for
// registration. The challenge details are persisted for Verify and for the
// countdown after an app restart.
func (f *AuthFlow) Begin(ctx context.Context, flow models.OTPFlow, name, email string) (*models.OTPChallenge, error) {
	if err := f.guard.begin(); err != nil {
		return nil, err
	}
	defer f.guard.end()

	var challenge *models.OTPChallenge
	var err error
	switch flow {
	case models.OTPFlowLogin:
		challenge, err = f.gateway.RequestLoginOTP(ctx, email)
	case models.OTPFlowRegister:
		challenge, err = f.gateway.RequestRegisterOTP(ctx, name, email)
	default:
		return nil, fmt.Errorf("workflow: unknown OTP flow %q", flow)
	}
	if err != nil {
		return nil, err
	}
	if !f.alive() {
		// The screen is gone; drop the challenge instead of writing state
		// nobody will read.
		return challenge, nil
	}

	if err := f.persistChallenge(flow, challenge); err != nil {
		utils.GetLogger().Warn("workflow: failed to persist OTP challenge", zap.Error(err))
	}
	return challenge, nil
}

// Verify exchanges the entered code for tokens and establishes the session.
// On success the transient challenge keys are cleared.
func (f *AuthFlow) Verify(ctx context.Context, otpCode string) error {
	if err := f.guard.begin(); err != nil {
		return err
	}
	defer f.guard.end()

	sessionID, err := f.keys.Get(keystore.KeySessionID)
	if err != nil {
		return fmt.Errorf("workflow: no pending OTP challenge: %w", err)
	}
	rawFlow, err := f.keys.Get(keystore.KeyOTPFlow)
	if err != nil {
		return fmt.Errorf("workflow: no pending OTP challenge: %w", err)
	}
	flow := models.OTPFlow(rawFlow)
	if !flow.Valid() {
		return fmt.Errorf("workflow: stored OTP flow %q is not valid", rawFlow)
	}

	tokens, err := f.gateway.VerifyOTP(ctx, flow, otpCode, sessionID)
	if err != nil {
		return err
	}
	if !f.alive() {
		return nil
	}

	if err := f.sess.SetSession(tokens.AccessToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("workflow: store session: %w", err)
	}
	f.clearChallenge()
	return nil
}

// PendingChallenge reloads a persisted challenge, if any, so the countdown
// can resume after a restart.
func (f *AuthFlow) PendingChallenge() (*models.OTPChallenge, bool) {
	sessionID, err := f.keys.Get(keystore.KeySessionID)
	if err != nil {
		return nil, false
	}
	challenge := &models.OTPChallenge{SessionID: sessionID}
	if raw, err := f.keys.Get(keystore.KeyAttemptsLeft); err == nil {
		if n, err := strconv.Atoi(raw); err == nil {
			challenge.AttemptsLeft = n
		}
	}
	if raw, err := f.keys.Get(keystore.KeyExpiresAt); err == nil {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			challenge.ExpiresAt = t
		}
	}
	return challenge, true
}

// Abandon clears a pending challenge without verifying.
func (f *AuthFlow) Abandon() {
	f.clearChallenge()
}

func (f *AuthFlow) persistChallenge(flow models.OTPFlow, c *models.OTPChallenge) error {
	if err := f.keys.Set(keystore.KeySessionID, c.SessionID); err != nil {
		return err
	}
	if err := f.keys.Set(keystore.KeyOTPFlow, string(flow)); err != nil {
		return err
	}
	if err := f.keys.Set(keystore.KeyAttemptsLeft, strconv.Itoa(c.AttemptsLeft)); err != nil {
		return err
	}
	return f.keys.Set(keystore.KeyExpiresAt, c.ExpiresAt.Format(time.RFC3339))
}

func (f *AuthFlow) clearChallenge() {
	logger := utils.GetLogger()
	for _, key := range []string{keystore.KeySessionID, keystore.KeyOTPFlow, keystore.KeyAttemptsLeft, keystore.KeyExpiresAt} {
		if err := f.keys.Delete(key); err != nil {
			logger.Warn("workflow: failed to clear challenge key", zap.String("key", key), zap.Error(err))
		}
	}
}
