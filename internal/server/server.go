// package server runs the temporary localhost listener that completes
// the OAuth2 authorization code flow for the CLI.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// CallbackServer is a one-shot HTTP server that receives a single OAuth
// callback and then shuts down.
type CallbackServer struct {
	handler *OAuthHandler
	srv     *http.Server
	addr    string
	path    string
	logger  *log.Logger
}

// NewCallbackServer builds a server listening at the host and path of the
// OAuth config's redirect URL.
func NewCallbackServer(config *oauth2.Config, state string, logger *log.Logger) (*CallbackServer, error) {
	redirect, err := url.Parse(config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL %q: %w", config.RedirectURL, err)
	}

	path := redirect.Path
	if path == "" {
		path = "/callback"
	}

	handler := NewOAuthHandler(config, state)
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	return &CallbackServer{
		handler: handler,
		srv:     &http.Server{Handler: mux},
		addr:    redirect.Host,
		path:    path,
		logger:  logger,
	}, nil
}

// Start binds the listener and begins serving in the background. Binding
// happens synchronously so a port conflict surfaces here rather than as a
// hung authorization flow.
func (c *CallbackServer) Start() error {
	listener, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.addr, err)
	}
	c.addr = listener.Addr().String()

	c.logger.Debug("callback server listening", "addr", c.addr, "path", c.path)

	go func() {
		if err := c.srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			c.logger.Error("callback server failed", "error", err)
		}
	}()

	return nil
}

// Wait blocks until the callback delivers a token, the context expires,
// or the flow fails. The server is shut down before returning.
func (c *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	defer c.shutdown()

	select {
	case result := <-c.handler.Result():
		if err := result.Error(); err != nil {
			return nil, err
		}
		return result.Token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out: %w", ctx.Err())
	}
}

// Addr returns the bound listen address. Useful when the redirect URL
// leaves the port to the operating system.
func (c *CallbackServer) Addr() string {
	return c.addr
}

func (c *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.srv.Shutdown(ctx); err != nil {
		c.logger.Debug("callback server shutdown", "error", err)
	}
}
