package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"packmate/api"
	"packmate/keystore"
	"packmate/models"
	"packmate/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func authedSession(t *testing.T) *session.Store {
	t.Helper()
	ks, err := keystore.Open(filepath.Join(t.TempDir(), "ks"), "pass")
	require.NoError(t, err)
	s := session.NewStore(ks)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, s.SetSession(token, ""))
	return s
}

func TestRequestLoginOTP_Success(t *testing.T) {
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users/login/request-otp", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Request-Id"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.c", body["email"])

		json.NewEncoder(w).Encode(models.OTPChallenge{
			SessionID:    "sess-1",
			AttemptsLeft: 3,
			ExpiresAt:    expires,
		})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	challenge, err := c.RequestLoginOTP(context.Background(), "a@b.c")
	require.NoError(t, err)
	require.Equal(t, "sess-1", challenge.SessionID)
	require.Equal(t, 3, challenge.AttemptsLeft)
	require.True(t, expires.Equal(challenge.ExpiresAt))
}

func TestRequestOTP_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: "too many attempts"})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	_, err := c.RequestLoginOTP(context.Background(), "a@b.c")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, http.StatusTooManyRequests, authErr.StatusCode)
	require.Equal(t, "too many attempts", authErr.Message)
	require.False(t, api.IsRetryable(err), "4xx is final")
}

func TestRequestOTP_FallbackMessageFor5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	_, err := c.RequestLoginOTP(context.Background(), "a@b.c")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	require.NotEmpty(t, authErr.Message)
	require.True(t, api.IsRetryable(err), "5xx is retryable")
}

func TestRequestOTP_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := api.NewClient(srv.URL, authedSession(t))
	_, err := c.RequestLoginOTP(context.Background(), "a@b.c")

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, api.IsRetryable(err))
}

func TestVerifyOTP_HitsFlowEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/register/verify-otp", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "123456", body["otpCode"])
		require.Equal(t, "sess-1", body["sessionId"])
		json.NewEncoder(w).Encode(models.TokenPair{AccessToken: "acc", RefreshToken: "ref"})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	tokens, err := c.VerifyOTP(context.Background(), models.OTPFlowRegister, "123456", "sess-1")
	require.NoError(t, err)
	require.Equal(t, "acc", tokens.AccessToken)
	require.Equal(t, "ref", tokens.RefreshToken)
}

func TestVerifyOTP_RejectsUnknownFlowAndEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.TokenPair{})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))

	_, err := c.VerifyOTP(context.Background(), models.OTPFlow("sso"), "1", "s")
	require.Error(t, err)

	_, err = c.VerifyOTP(context.Background(), models.OTPFlowLogin, "1", "s")
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestUpdateRole_PatchesWithBearer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/users/update/42", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "SENDER", body["role"])
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	require.NoError(t, c.UpdateRole(context.Background(), 42, models.RoleSender))
	require.Contains(t, gotAuth, "Bearer ")
}

func TestUpdateRole_NoTokenPassesThrough(t *testing.T) {
	ks, err := keystore.Open(filepath.Join(t.TempDir(), "ks"), "pass")
	require.NoError(t, err)
	c := api.NewClient("http://example.invalid", session.NewStore(ks))

	err = c.UpdateRole(context.Background(), 42, models.RoleSender)
	require.ErrorIs(t, err, session.ErrNoToken)
}

func TestSubmitDocumentVerification_SendsPayload(t *testing.T) {
	var got models.DocumentVerificationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/smile-id/document-verification", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	req := models.DocumentVerificationRequest{
		UserID: 42,
		Images: []models.VerificationImage{{ImageTypeID: 3, Image: "A"}},
		IDInfo: &models.IDInfo{Country: "GH", IDType: "PASSPORT"},
	}
	require.NoError(t, c.SubmitDocumentVerification(context.Background(), req))
	require.Equal(t, req, got)
}

func TestCreateTrip_SendsDraft(t *testing.T) {
	var got models.ShipmentDraft
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/trips", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := api.NewClient(srv.URL, authedSession(t))
	draft := models.ShipmentDraft{
		Origin:            models.Place{Country: "GH", City: "Accra"},
		Destination:       models.Place{Country: "NG", City: "Lagos"},
		Mode:              models.ModeCar,
		VehiclePlate:      "GR-1234-20",
		AllowedCategories: []string{"documents"},
		MaxWeightKg:       5,
	}
	require.NoError(t, c.CreateTrip(context.Background(), draft))
	require.Equal(t, "GR-1234-20", got.VehiclePlate)
}
