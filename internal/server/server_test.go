package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// fakeTokenEndpoint returns a test server speaking just enough of the
// token exchange protocol for oauth2.Config.Exchange.
func fakeTokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test_token","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:0/callback",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("rejects state mismatch", func(t *testing.T) {
		handler := NewOAuthHandler(testConfig("http://invalid"), "expected-state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected an error result for mismatched state")
		}
	})

	t.Run("reports provider denial", func(t *testing.T) {
		handler := NewOAuthHandler(testConfig("http://invalid"), "s")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&error=access_denied&error_description=nope", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected an error result when the provider denies access")
		}
	})

	t.Run("exchanges code for token", func(t *testing.T) {
		endpoint := fakeTokenEndpoint(t)
		handler := NewOAuthHandler(testConfig(endpoint.URL), "s")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		result := <-handler.Result()
		if err := result.Error(); err != nil {
			t.Fatalf("unexpected error result: %v", err)
		}
		if result.Token == nil || result.Token.AccessToken != "test_token" {
			t.Errorf("unexpected token: %+v", result.Token)
		}
	})

	t.Run("processes only one callback", func(t *testing.T) {
		endpoint := fakeTokenEndpoint(t)
		handler := NewOAuthHandler(testConfig(endpoint.URL), "s")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=abc", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=def", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("replayed callback should be rejected, got %d", second.Code)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("completes a flow", func(t *testing.T) {
		endpoint := fakeTokenEndpoint(t)
		srv, err := NewCallbackServer(testConfig(endpoint.URL), "s", logger)
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		if err := srv.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		resp, err := http.Get(fmt.Sprintf("http://%s/callback?state=s&code=abc", srv.Addr()))
		if err != nil {
			t.Fatalf("callback request failed: %v", err)
		}
		resp.Body.Close()

		token, err := srv.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if token.AccessToken != "test_token" {
			t.Errorf("unexpected access token %q", token.AccessToken)
		}
	})

	t.Run("times out without a callback", func(t *testing.T) {
		srv, err := NewCallbackServer(testConfig("http://invalid"), "s", logger)
		if err != nil {
			t.Fatalf("NewCallbackServer() error = %v", err)
		}
		if err := srv.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if _, err := srv.Wait(ctx); err == nil {
			t.Error("expected a timeout error")
		}
	})

	t.Run("rejects malformed redirect", func(t *testing.T) {
		config := testConfig("http://invalid")
		config.RedirectURL = "://bad"
		if _, err := NewCallbackServer(config, "s", logger); err == nil {
			t.Error("expected an error for a malformed redirect URL")
		}
	})
}
