package sse

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, maxConns int) (*registry.Registry, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(registry.Config{
		MaxConnections:    maxConns,
		HeartbeatInterval: time.Hour,
		ClientTimeout:     2 * time.Hour,
		WelcomeDelay:      20 * time.Millisecond,
		WriteTimeout:      time.Second,
	}, logger.NewNop())
	t.Cleanup(reg.Drain)

	resolver := auth.NewResolver(testSecret, logger.NewNop())

	router := gin.New()
	InitSSERouter(logger.NewNop(), reg, resolver, 25*time.Millisecond, router.Group(""))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return reg, srv
}

func TestConnectStreamsWelcomeAndKeepAlive(t *testing.T) {
	reg, srv := newTestServer(t, 10)

	resp, err := http.Get(srv.URL + "/sse")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := resp.Header.Get("Cache-Control"); got != "no-cache, no-transform" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := resp.Header.Get("Connection"); got != "keep-alive" {
		t.Errorf("Connection = %q", got)
	}

	reader := bufio.NewReader(resp.Body)
	var sawWelcome, sawKeepAlive bool
	for i := 0; i < 40 && !(sawWelcome && sawKeepAlive); i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		if strings.HasPrefix(line, "event: connected") {
			sawWelcome = true
		}
		if strings.HasPrefix(line, ": keep-alive") {
			sawKeepAlive = true
		}
	}
	if !sawWelcome {
		t.Error("stream never carried the connected event")
	}
	if !sawKeepAlive {
		t.Error("stream never carried a keep-alive comment")
	}
	if got := reg.Count(); got != 1 {
		t.Errorf("registry count = %d, want 1", got)
	}
}

func TestDisconnectRemovesConnection(t *testing.T) {
	reg, srv := newTestServer(t, 10)

	resp, err := http.Get(srv.URL + "/sse")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Wait for the registration to be observable, then drop the client.
	waitFor(t, time.Second, func() bool { return reg.Count() == 1 })
	resp.Body.Close()

	waitFor(t, 2*time.Second, func() bool { return reg.Count() == 0 })
}

func TestConnectAtCapacityReturns503(t *testing.T) {
	reg, srv := newTestServer(t, 1)

	if _, err := reg.Register(&nullStream{}, ""); err != nil {
		t.Fatalf("fill capacity: %v", err)
	}

	resp, err := http.Get(srv.URL + "/sse")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestBearerTokenAssociatesUser(t *testing.T) {
	reg, srv := newTestServer(t, 10)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "u1",
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/sse", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	waitFor(t, time.Second, func() bool {
		return len(reg.ListIDsForUser("u1")) == 1
	})
}

type nullStream struct{}

func (nullStream) Write(p []byte) error { return nil }
func (nullStream) Close() error         { return nil }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
