package workflow_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"packmate/keystore"
	"packmate/models"
	"packmate/session"
	"packmate/workflow"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	requestLoginFn    func(ctx context.Context, email string) (*models.OTPChallenge, error)
	requestRegisterFn func(ctx context.Context, name, email string) (*models.OTPChallenge, error)
	verifyFn          func(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error)
}

func (s stubGateway) RequestLoginOTP(ctx context.Context, email string) (*models.OTPChallenge, error) {
	if s.requestLoginFn == nil {
		panic("RequestLoginOTP not expected")
	}
	return s.requestLoginFn(ctx, email)
}

func (s stubGateway) RequestRegisterOTP(ctx context.Context, name, email string) (*models.OTPChallenge, error) {
	if s.requestRegisterFn == nil {
		panic("RequestRegisterOTP not expected")
	}
	return s.requestRegisterFn(ctx, name, email)
}

func (s stubGateway) VerifyOTP(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error) {
	if s.verifyFn == nil {
		panic("VerifyOTP not expected")
	}
	return s.verifyFn(ctx, flow, otpCode, sessionID)
}

func newKeystore(t *testing.T) *keystore.Store {
	t.Helper()
	ks, err := keystore.Open(filepath.Join(t.TempDir(), "ks"), "pass")
	require.NoError(t, err)
	return ks
}

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthFlow_BeginPersistsChallenge(t *testing.T) {
	ks := newKeystore(t)
	sess := session.NewStore(ks)
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	gw := stubGateway{
		requestLoginFn: func(ctx context.Context, email string) (*models.OTPChallenge, error) {
			require.Equal(t, "a@b.c", email)
			return &models.OTPChallenge{SessionID: "sess-1", AttemptsLeft: 3, ExpiresAt: expires}, nil
		},
	}
	f := workflow.NewAuthFlow(gw, sess, ks)

	challenge, err := f.Begin(context.Background(), models.OTPFlowLogin, "", "a@b.c")
	require.NoError(t, err)
	require.Equal(t, "sess-1", challenge.SessionID)

	storedID, err := ks.Get(keystore.KeySessionID)
	require.NoError(t, err)
	require.Equal(t, "sess-1", storedID)
	storedFlow, err := ks.Get(keystore.KeyOTPFlow)
	require.NoError(t, err)
	require.Equal(t, "login", storedFlow)

	pending, ok := f.PendingChallenge()
	require.True(t, ok)
	require.Equal(t, 3, pending.AttemptsLeft)
	require.True(t, expires.Equal(pending.ExpiresAt))
}

func TestAuthFlow_VerifyEstablishesSessionAndClearsChallenge(t *testing.T) {
	ks := newKeystore(t)
	sess := session.NewStore(ks)
	token := signedToken(t, "42")

	gw := stubGateway{
		requestRegisterFn: func(ctx context.Context, name, email string) (*models.OTPChallenge, error) {
			return &models.OTPChallenge{SessionID: "sess-1", AttemptsLeft: 3, ExpiresAt: time.Now().Add(time.Minute)}, nil
		},
		verifyFn: func(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error) {
			require.Equal(t, models.OTPFlowRegister, flow, "verify must hit the endpoint the challenge was issued under")
			require.Equal(t, "123456", otpCode)
			require.Equal(t, "sess-1", sessionID)
			return &models.TokenPair{AccessToken: token, RefreshToken: "ref"}, nil
		},
	}
	f := workflow.NewAuthFlow(gw, sess, ks)

	_, err := f.Begin(context.Background(), models.OTPFlowRegister, "Ama", "a@b.c")
	require.NoError(t, err)
	require.NoError(t, f.Verify(context.Background(), "123456"))

	require.True(t, sess.IsAuthenticated())
	require.EqualValues(t, 42, sess.UserID())

	_, ok := f.PendingChallenge()
	require.False(t, ok, "transient challenge keys are cleared on success")
}

func TestAuthFlow_VerifyWithoutChallenge(t *testing.T) {
	f := workflow.NewAuthFlow(stubGateway{}, session.NewStore(newKeystore(t)), newKeystore(t))
	require.Error(t, f.Verify(context.Background(), "123456"))
}

func TestAuthFlow_SingleInFlightSubmission(t *testing.T) {
	ks := newKeystore(t)
	release := make(chan struct{})
	started := make(chan struct{})

	gw := stubGateway{
		requestLoginFn: func(ctx context.Context, email string) (*models.OTPChallenge, error) {
			close(started)
			<-release
			return &models.OTPChallenge{SessionID: "sess-1"}, nil
		},
	}
	f := workflow.NewAuthFlow(gw, session.NewStore(ks), ks)

	done := make(chan error, 1)
	go func() {
		_, err := f.Begin(context.Background(), models.OTPFlowLogin, "", "a@b.c")
		done <- err
	}()
	<-started

	_, err := f.Begin(context.Background(), models.OTPFlowLogin, "", "a@b.c")
	require.ErrorIs(t, err, workflow.ErrInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestAuthFlow_ClosedFlowDropsLateChallenge(t *testing.T) {
	ks := newKeystore(t)
	gw := stubGateway{
		requestLoginFn: func(ctx context.Context, email string) (*models.OTPChallenge, error) {
			return &models.OTPChallenge{SessionID: "sess-1"}, nil
		},
	}
	f := workflow.NewAuthFlow(gw, session.NewStore(ks), ks)
	f.Close()

	_, err := f.Begin(context.Background(), models.OTPFlowLogin, "", "a@b.c")
	require.NoError(t, err)

	_, err = ks.Get(keystore.KeySessionID)
	require.ErrorIs(t, err, keystore.ErrKeyNotFound, "a torn-down flow must not write state")
}
