package httpclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MahdiBaghbani/ocmgate/internal/config"
	"github.com/MahdiBaghbani/ocmgate/internal/httpclient"
)

func devConfig() *config.OutboundHTTPConfig {
	return &config.OutboundHTTPConfig{
		SSRFMode:         "off",
		TimeoutMS:        2000,
		ConnectTimeoutMS: 500,
		MaxRedirects:     2,
		MaxResponseBytes: 1024,
	}
}

func TestClient_SSRFProtection(t *testing.T) {
	cfg := &config.OutboundHTTPConfig{
		SSRFMode:         "strict",
		TimeoutMS:        1000,
		ConnectTimeoutMS: 500,
		MaxRedirects:     3,
		MaxResponseBytes: 1048576,
	}
	client := httpclient.New(cfg)

	tests := []struct {
		name string
		url  string
	}{
		{"localhost blocked", "http://localhost/test"},
		{"127.0.0.1 blocked", "http://127.0.0.1/test"},
		{"loopback IPv6 blocked", "http://[::1]/test"},
		{"private 192.168 blocked", "http://192.168.1.1/test"},
		{"private 10.x blocked", "http://10.0.0.1/test"},
		{"private 172.16 blocked", "http://172.16.0.1/test"},
		{"link-local blocked", "http://169.254.1.1/test"},
	}

	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Get(ctx, tt.url)
			if err == nil {
				t.Errorf("expected SSRF error, got nil")
			} else if !httpclient.IsSSRFError(err) {
				t.Errorf("expected SSRF error, got: %v", err)
			}
		})
	}
}

func TestClient_SSRFOff(t *testing.T) {
	client := httpclient.New(devConfig())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestClient_FollowsSameHostRedirect(t *testing.T) {
	client := httpclient.New(devConfig())

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusFound)
			return
		}
		w.Write([]byte("landed"))
	}))
	defer srv.Close()

	body, resp, err := client.GetJSON(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != "landed" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func TestClient_BlocksCrossHostRedirect(t *testing.T) {
	client := httpclient.New(devConfig())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://other.example.org/", http.StatusFound)
	}))
	defer srv.Close()

	_, err := client.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected redirect error")
	}
	if !httpclient.IsRedirectError(err) {
		t.Errorf("expected redirect error, got: %v", err)
	}
}

func TestClient_TooManyRedirects(t *testing.T) {
	client := httpclient.New(devConfig())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Redirect forever
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := client.Get(context.Background(), srv.URL+"/a")
	if err == nil {
		t.Fatal("expected redirect error")
	}
	if !httpclient.IsRedirectError(err) {
		t.Errorf("expected redirect error, got: %v", err)
	}
}

func TestClient_GetJSONSizeLimit(t *testing.T) {
	client := httpclient.New(devConfig())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	_, _, err := client.GetJSON(context.Background(), srv.URL)
	if err != httpclient.ErrResponseTooLarge {
		t.Errorf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestClient_PostJSON(t *testing.T) {
	client := httpclient.New(devConfig())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := client.PostJSON(context.Background(), srv.URL, []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
