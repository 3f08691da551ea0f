package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"packmate/models"
	"packmate/session"
	"packmate/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the Packmate backend. Unauthenticated onboarding endpoints
// go straight through the HTTP client; bearer-gated endpoints go through the
// session store, which owns the token and its expiry check.
type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Store
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for unauthenticated calls.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.http = c }
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, sess *session.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		sess:    sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestLoginOTP asks for a login OTP to be sent to email.
func (c *Client) RequestLoginOTP(ctx context.Context, email string) (*models.OTPChallenge, error) {
	return c.requestOTP(ctx, "/users/login/request-otp", map[string]string{"email": email})
}

// RequestRegisterOTP asks for a registration OTP for a new account.
func (c *Client) RequestRegisterOTP(ctx context.Context, name, email string) (*models.OTPChallenge, error) {
	return c.requestOTP(ctx, "/users/register/request-otp", map[string]string{"name": name, "email": email})
}

func (c *Client) requestOTP(ctx context.Context, path string, body map[string]string) (*models.OTPChallenge, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var challenge models.OTPChallenge
	if err := json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return nil, fmt.Errorf("api: decode OTP challenge: %w", err)
	}
	return &challenge, nil
}

// VerifyOTP exchanges a code for the token pair, against the endpoint
// matching the flow the challenge was issued under.
func (c *Client) VerifyOTP(ctx context.Context, flow models.OTPFlow, otpCode, sessionID string) (*models.TokenPair, error) {
	if !flow.Valid() {
		return nil, fmt.Errorf("api: unknown OTP flow %q", flow)
	}
	resp, err := c.post(ctx, "/users/"+string(flow)+"/verify-otp", map[string]string{
		"otpCode":   otpCode,
		"sessionId": sessionID,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var tokens models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("api: decode token pair: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, &AuthError{StatusCode: resp.StatusCode, Message: "verification succeeded but no access token was returned"}
	}
	return &tokens, nil
}

// UpdateRole persists the selected role server-side.
func (c *Client) UpdateRole(ctx context.Context, userID int64, r models.Role) error {
	if !r.Valid() {
		return fmt.Errorf("api: unknown role %q", r)
	}
	url := fmt.Sprintf("%s/users/update/%d", c.baseURL, userID)
	resp, err := c.authed(ctx, http.MethodPatch, url, map[string]string{"role": string(r)})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// SubmitDocumentVerification sends the assembled KYC payload.
func (c *Client) SubmitDocumentVerification(ctx context.Context, req models.DocumentVerificationRequest) error {
	resp, err := c.authed(ctx, http.MethodPost, c.baseURL+"/smile-id/document-verification", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateTrip submits the completed trip draft.
func (c *Client) CreateTrip(ctx context.Context, draft models.ShipmentDraft) error {
	resp, err := c.authed(ctx, http.MethodPost, c.baseURL+"/trips", draft)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// ConsentScreenURL fetches the OAuth consent URL for the external handoff.
func (c *Client) ConsentScreenURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/consentScreen", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "ConsentScreenURL", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeError(resp)
	}

	var screen models.ConsentScreen
	if err := json.NewDecoder(resp.Body).Decode(&screen); err != nil {
		return "", fmt.Errorf("api: decode consent screen: %w", err)
	}
	return screen.URL, nil
}

// post issues an unauthenticated JSON POST to path under the base URL.
func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "POST " + path, Err: err}
	}
	return resp, nil
}

// authed issues a bearer-authenticated JSON request through the session
// store. Token errors (session.ErrNoToken, session.ErrTokenExpired) pass
// through untouched.
func (c *Client) authed(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("api: encode request: %w", err)
	}
	header := http.Header{}
	header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.sess.AuthenticatedRequest(ctx, method, url, bytes.NewReader(body), header)
	if err != nil {
		if err == session.ErrNoToken || err == session.ErrTokenExpired {
			return nil, err
		}
		return nil, &NetworkError{Op: method + " " + url, Err: err}
	}
	return resp, nil
}

// decodeError turns a non-2xx response into an AuthError, preferring the
// server's error envelope over the generic fallback.
func decodeError(resp *http.Response) error {
	authErr := &AuthError{StatusCode: resp.StatusCode, Message: "something went wrong, please try again"}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		utils.GetLogger().Warn("api: failed to read error body", zap.Error(err))
		return authErr
	}
	var envelope models.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
		authErr.Message = envelope.Message
	}
	return authErr
}
