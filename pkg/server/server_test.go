package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/autoroute/pkg/buildinfo"
	"github.com/matzehuels/autoroute/pkg/cache"
	"github.com/matzehuels/autoroute/pkg/observability"
)

const testBoard = `{
	"grid": {"width": 48, "height": 48},
	"leads": [
		{"name": "A", "x": 10, "y": 10},
		{"name": "B", "x": 35, "y": 37}
	],
	"connections": [{"from": "A", "to": "B"}]
}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestRequestIDEcho(t *testing.T) {
	ts := newTestServer(t, Config{})
	const id = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

	tests := []struct {
		name, sent string
		echoed     bool
	}{
		{"valid uuid", id, true},
		{"garbage", "not-a-uuid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
			req.Header.Set(RequestIDHeader, tt.sent)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			got := resp.Header.Get(RequestIDHeader)
			if (got == tt.sent) != tt.echoed {
				t.Errorf("request ID = %q, sent %q", got, tt.sent)
			}
		})
	}
}

func TestVersionAndExample(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/v1/version")
	if err != nil {
		t.Fatal(err)
	}
	var info buildinfo.Info
	_ = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if info.Version != buildinfo.Version {
		t.Errorf("version = %q", info.Version)
	}

	resp, err = http.Get(ts.URL + "/v1/example")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var b struct {
		Leads []json.RawMessage `json:"leads"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&b)
	if len(b.Leads) == 0 {
		t.Error("example board has no leads")
	}
}

func TestRoute(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/route", `{"board": `+testBoard+`, "formats": ["json", "txt"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.RequestID == "" || got.BoardHash == "" {
		t.Errorf("missing ids: %+v", got)
	}
	if got.Report.Summary.Routed != 1 {
		t.Errorf("summary = %+v", got.Report.Summary)
	}
	if _, ok := got.Artifacts["json"]; ok {
		t.Error("json report duplicated in artifacts")
	}
	if !bytes.Contains(got.Artifacts["txt"], []byte("@")) {
		t.Error("ascii artifact missing leads")
	}
}

func TestRouteArtifact(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/route/png", `{"board": `+testBoard+`, "scale": 2}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 96 {
		t.Errorf("bounds = %v", b)
	}
}

func TestRouteErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 4096, MaxParallelism: 4})

	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"malformed", "/v1/route", `{`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"unknown field", "/v1/route", `{"bored": {}}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"missing board", "/v1/route", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown lead", "/v1/route", `{"board": {"leads": [{"name": "A", "x": 1, "y": 1}], "connections": [{"from": "A", "to": "Z"}]}}`,
			http.StatusBadRequest, "INVALID_CONFIG"},
		{"overlap", "/v1/route", `{"board": {"grid": {"width": 32, "height": 32}, "leads": [{"name": "A", "x": 5, "y": 5}, {"name": "B", "x": 6, "y": 6}]}}`,
			http.StatusUnprocessableEntity, "OVERLAP"},
		{"bad format", "/v1/route/gif", `{"board": ` + testBoard + `}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", "/v1/route", `{"board": "` + strings.Repeat("x", 8192) + `"}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"too many cells", "/v1/route/png", `{"board": {"grid": {"width": 4096, "height": 4096}}, "scale": 32}`,
			http.StatusBadRequest, "INVALID_INPUT"},
		{"too many workers", "/v1/route", `{"board": {"grid": {"width": 32, "height": 32}, "search": {"parallelism": 64}}}`,
			http.StatusBadRequest, "INVALID_INPUT"},
		{"png too large", "/v1/route/png", `{"board": {"grid": {"width": 1024, "height": 1024}}, "scale": 32}`,
			http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", body.Code, tt.code, body.Error)
			}
			if body.RequestID == "" {
				t.Error("error response missing request ID")
			}
		})
	}
}

func TestRouteCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, Config{Cache: fc})

	var first, second RouteResponse
	_ = json.NewDecoder(post(t, ts.URL+"/v1/route", `{"board": `+testBoard+`}`).Body).Decode(&first)
	_ = json.NewDecoder(post(t, ts.URL+"/v1/route", `{"board": `+testBoard+`}`).Body).Decode(&second)

	if first.Cached.Route || !second.Cached.Route {
		t.Errorf("cached = %+v then %+v", first.Cached, second.Cached)
	}
	if first.RouteHash != second.RouteHash {
		t.Error("route hash changed between requests")
	}
}

type recordingHTTP struct {
	observability.NoopHTTPHooks
	statuses chan int
}

func (h *recordingHTTP) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.statuses <- status
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHTTP{statuses: make(chan int, 1)}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/v1/nothing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	select {
	case status := <-hooks.statuses:
		if status != http.StatusNotFound {
			t.Errorf("hook status = %d, want 404", status)
		}
	case <-time.After(time.Second):
		t.Fatal("OnResponse not called")
	}
}

func TestStatusFor(t *testing.T) {
	if statusFor(context.Canceled) != http.StatusInternalServerError {
		t.Error("uncoded errors should map to 500")
	}
}

type closeCounter struct {
	cache.Cache
	closed chan struct{}
}

func (c *closeCounter) Close() error {
	close(c.closed)
	return nil
}

func TestStartListenErrorClosesCache(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	c := &closeCounter{Cache: cache.NewNullCache(), closed: make(chan struct{})}
	s := New(Config{Addr: l.Addr().String(), Cache: c})
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start() on a busy address should fail")
	}
	select {
	case <-c.closed:
	default:
		t.Error("cache not closed after listen failure")
	}
}

func TestLimitDefaults(t *testing.T) {
	cfg := Config{}
	cfg.setDefaults()
	if cfg.MaxCells != DefaultMaxCells || cfg.MaxParallelism < 1 {
		t.Errorf("limits = %d cells, %d workers", cfg.MaxCells, cfg.MaxParallelism)
	}
}

func TestStartShutdown(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
