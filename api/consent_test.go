package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"packmate/api"
	"packmate/models"

	"github.com/stretchr/testify/require"
)

func TestConsentFlow_CapturesRedirectToken(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/consentScreen", r.URL.Path)
		json.NewEncoder(w).Encode(models.ConsentScreen{URL: "https://auth.example/consent"})
	}))
	defer backend.Close()

	flow := api.NewConsentFlow(api.NewClient(backend.URL, authedSession(t)), "0")

	consentURL, err := flow.Start(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://auth.example/consent", consentURL)

	// A redirect without the token parameter is rejected and keeps waiting.
	resp, err := http.Get("http://" + flow.Addr() + "/callback")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get("http://" + flow.Addr() + "/callback?accessToken=tok-1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	token, err := flow.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)
}

func TestConsentFlow_WaitHonorsContext(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ConsentScreen{URL: "https://auth.example/consent"})
	}))
	defer backend.Close()

	flow := api.NewConsentFlow(api.NewClient(backend.URL, authedSession(t)), "0")
	_, err := flow.Start(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = flow.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
