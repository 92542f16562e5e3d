package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MahdiBaghbani/ocmgate/internal/api"
	"github.com/MahdiBaghbani/ocmgate/internal/cache"
	"github.com/MahdiBaghbani/ocmgate/internal/cache/memory"
	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/identity"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/discovery"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/notifications"
	ocmshares "github.com/MahdiBaghbani/ocmgate/internal/ocm/shares"
	"github.com/MahdiBaghbani/ocmgate/internal/ocm/spec"
	"github.com/MahdiBaghbani/ocmgate/internal/server"
	"github.com/MahdiBaghbani/ocmgate/internal/share"
	"github.com/MahdiBaghbani/ocmgate/internal/store"
	storejson "github.com/MahdiBaghbani/ocmgate/internal/store/json"
	"github.com/MahdiBaghbani/ocmgate/internal/wellknown"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() *config.Config {
	return &config.Config{
		Mode:         "dev",
		PublicOrigin: "https://b.example",
		ListenAddr:   ":0",
		TLS:          config.TLSConfig{Mode: "off"},
		Federation: config.FederationConfig{
			IncomingEnabled:    true,
			OutgoingEnabled:    true,
			Provider:           "ocmgate",
			RateLimitPerMinute: 0,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, counter cache.Counter) *server.Server {
	t.Helper()

	d, err := storejson.NewDriver(&store.DriverConfig{Driver: "json", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	drv := d.(*storejson.Driver)
	if err := drv.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { drv.Close() })

	auth := identity.NewUserAuth(4)
	hash, err := auth.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	users := identity.NewMemoryPartyRepo()
	users.Create(context.Background(), &identity.User{Username: "bob", PasswordHash: hash})

	svc := share.NewService(drv, users, cfg.Federation)

	srv, err := server.New(cfg, testLogger, server.Deps{
		WellKnown:     wellknown.NewHandler(discovery.NewDocument(cfg), testLogger),
		Shares:        ocmshares.NewHandler(svc, nil, testLogger),
		Notifications: notifications.NewHandler(svc, testLogger),
		LocalShares:   api.NewSharesHandler(svc, nil, testLogger),
		Auth:          auth,
		Users:         users,
		RateCounter:   counter,
	})
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}
	return srv
}

func TestRoutes_Discovery(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	for _, path := range []string{"/.well-known/ocm", "/ocm-provider"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", path, rec.Code)
		}

		var doc spec.Discovery
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("%s: invalid discovery document: %v", path, err)
		}
		if doc.APIVersion != spec.APIVersion {
			t.Errorf("%s: apiVersion = %q", path, doc.APIVersion)
		}
		if doc.EndPoint != "https://b.example/ocm" {
			t.Errorf("%s: endPoint = %q", path, doc.EndPoint)
		}
	}
}

func TestRoutes_DiscoveryIsByteStable(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	fetch := func() []byte {
		req := httptest.NewRequest(http.MethodGet, "/.well-known/ocm", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Body.Bytes()
	}

	first := fetch()
	second := fetch()
	if string(first) != string(second) {
		t.Error("discovery responses differ between requests")
	}
}

func TestRoutes_OCMEndpointsArePublic(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	// No credentials: the federation endpoint must answer with its own
	// validation error, never a 401.
	req := httptest.NewRequest(http.MethodPost, "/ocm/shares", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code == http.StatusUnauthorized {
		t.Error("federation endpoints must not require local credentials")
	}
}

func TestRoutes_HealthzIsPublic(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRoutes_APIRequiresAuth(t *testing.T) {
	srv := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/shares", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/shares", nil)
	req.SetBasicAuth("bob", "hunter2")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRoutes_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Federation.RateLimitPerMinute = 2

	mem := memory.New(time.Minute, 0)
	t.Cleanup(func() { mem.Close() })

	srv := newTestServer(t, cfg, mem)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/ocm/shares", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := post(); code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited too early", i)
		}
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}

	// The limit is per endpoint group; the local API is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.RemoteAddr = "198.51.100.7:4242"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestServer_MissingDeps(t *testing.T) {
	_, err := server.New(testConfig(), testLogger, server.Deps{})
	if err == nil {
		t.Fatal("expected error for empty deps")
	}
}
