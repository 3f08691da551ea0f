package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"packmate/models"
	"packmate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsentFlow drives the OAuth handoff. The backend hands out a consent URL
// the user opens in a browser; the provider redirects back to a loopback
// listener whose callback carries the access token as a query parameter.
type ConsentFlow struct {
	client *Client
	port   string
	addr   string
	tokens chan string
	srv    *http.Server
}

// NewConsentFlow creates a consent flow listening on the given loopback
// port. Port "0" picks a free port; Addr reports the bound address.
func NewConsentFlow(client *Client, port string) *ConsentFlow {
	return &ConsentFlow{
		client: client,
		port:   port,
		tokens: make(chan string, 1),
	}
}

// Start fetches the consent URL and brings up the callback listener. The
// caller opens the returned URL in a browser and then calls Wait.
func (f *ConsentFlow) Start(ctx context.Context) (string, error) {
	consentURL, err := f.client.ConsentScreenURL(ctx)
	if err != nil {
		return "", err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/callback", func(c *gin.Context) {
		token := c.Query("accessToken")
		if token == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "missing accessToken"})
			return
		}
		c.String(http.StatusOK, "Signed in. You can return to the app.")
		select {
		case f.tokens <- token:
		default:
			// A second redirect with the flow already resolved is dropped.
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:"+f.port)
	if err != nil {
		return "", fmt.Errorf("api: consent listener: %w", err)
	}
	f.addr = ln.Addr().String()
	f.srv = &http.Server{Handler: engine}
	go func() {
		if err := f.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			utils.GetLogger().Warn("api: consent listener stopped", zap.Error(err))
		}
	}()
	return consentURL, nil
}

// Addr returns the listener address, valid after Start.
func (f *ConsentFlow) Addr() string { return f.addr }

// Wait blocks for the redirect and returns the captured access token. The
// listener is shut down before returning.
func (f *ConsentFlow) Wait(ctx context.Context) (string, error) {
	defer func() {
		if f.srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := f.srv.Shutdown(shutdownCtx); err != nil {
				utils.GetLogger().Warn("api: consent listener shutdown", zap.Error(err))
			}
		}
	}()

	select {
	case token := <-f.tokens:
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
