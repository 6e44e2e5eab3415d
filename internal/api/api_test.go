package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/countdown/internal/api/auth"
	"github.com/good-yellow-bee/countdown/internal/api/health"
	"github.com/good-yellow-bee/countdown/internal/storage"
	"github.com/good-yellow-bee/countdown/internal/timers"
)

var testSecret = []byte("test-jwt-secret-32-bytes-long!!")

// testServer creates a test server over a lazily opened SQLite database.
func testServer(t testing.TB) (*Server, *storage.Lazy) {
	t.Helper()

	store := storage.NewLazy(storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "countdown.db")))
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC()
	svc := timers.NewService(store.Timers(),
		timers.WithLocation(time.UTC),
		timers.WithClock(func() time.Time { return now }),
	)

	cfg := &Config{
		Address:          ":0",
		JWTSecret:        testSecret,
		TokenTTL:         15 * time.Minute,
		RateLimitPerIP:   10000,
		RateLimitPerShop: 10000,
	}

	srv, err := New(cfg, svc)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	srv.RegisterHealthChecker(health.NewStorageChecker(store))
	return srv, store
}

func token(t testing.TB, shop string) string {
	t.Helper()
	tok, err := auth.NewJWTService(testSecret, time.Hour).GenerateToken(shop)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return tok
}

func request(t testing.TB, srv *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// runningTimer is a timer whose window contains the current day.
func runningTimer(name string) map[string]any {
	now := time.Now().UTC()
	return map[string]any{
		"name":        name,
		"description": "Ends soon",
		"startDate":   now.AddDate(0, 0, -1).Format("2006-01-02"),
		"startTime":   "00:00",
		"endDate":     now.AddDate(0, 0, 1).Format("2006-01-02"),
		"endTime":     "23:59:59",
		"urgency":     "blink",
	}
}

func TestNew_Validation(t *testing.T) {
	svc := timers.NewService(nil)
	if _, err := New(nil, svc); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(&Config{JWTSecret: testSecret}, nil); err == nil {
		t.Error("expected error for nil service")
	}
	if _, err := New(&Config{}, svc); err == nil {
		t.Error("expected error for missing secret")
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, store := testServer(t)

	for _, path := range []string{"/health", "/health/live"} {
		if rec := request(t, srv, "GET", path, "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
	if store.Connected() {
		t.Error("liveness probes must not open storage")
	}

	rec := request(t, srv, "GET", "/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d; body: %s", rec.Code, rec.Body.String())
	}
	if !store.Connected() {
		t.Error("readiness probe should open storage")
	}
}

func TestStorageOpensOnFirstRequest(t *testing.T) {
	srv, store := testServer(t)
	if store.Connected() {
		t.Fatal("storage connected before first use")
	}

	rec := request(t, srv, "GET", "/api/timers?shop=a", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}
	if !store.Connected() {
		t.Error("storage not connected after first request")
	}
}

func TestAdminToStorefrontFlow(t *testing.T) {
	srv, _ := testServer(t)
	shopA := token(t, "shop-a.myshopify.com")

	rec := request(t, srv, "POST", "/api/v1/timers", shopA, runningTimer("Flash sale"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&created)
	if created.Data.Status != "active" {
		t.Errorf("status = %q, want active", created.Data.Status)
	}

	for _, path := range []string{"/api/timers", "/apps/count-down-timer/api/timers"} {
		rec = request(t, srv, "GET", path+"?shop=shop-a.myshopify.com", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		if got := rec.Header().Get("Cache-Control"); got != "public, max-age=60" {
			t.Errorf("%s Cache-Control = %q", path, got)
		}
		var feed struct {
			Timers []struct {
				ID      string `json:"id"`
				Urgency string `json:"urgency"`
			} `json:"timers"`
		}
		json.NewDecoder(rec.Body).Decode(&feed)
		if len(feed.Timers) != 1 || feed.Timers[0].ID != created.Data.ID || feed.Timers[0].Urgency != "blink" {
			t.Errorf("%s feed = %+v", path, feed)
		}
	}

	// Other shops see nothing
	rec = request(t, srv, "GET", "/api/timers?shop=shop-b.myshopify.com", "", nil)
	if rec.Code != http.StatusOK || bytes.Contains(rec.Body.Bytes(), []byte(created.Data.ID)) {
		t.Errorf("shop-b feed: %d %s", rec.Code, rec.Body.String())
	}

	// Kill switch hides the timer from the storefront
	rec = request(t, srv, "PATCH", "/api/v1/timers/"+created.Data.ID+"/active", shopA, map[string]bool{"active": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d", rec.Code)
	}
	rec = request(t, srv, "GET", "/api/timers?shop=shop-a.myshopify.com", "", nil)
	if bytes.Contains(rec.Body.Bytes(), []byte(created.Data.ID)) {
		t.Errorf("disabled timer still served: %s", rec.Body.String())
	}

	rec = request(t, srv, "DELETE", "/api/v1/timers/"+created.Data.ID, shopA, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestStorefront_MissingShopOnBothPaths(t *testing.T) {
	srv, _ := testServer(t)

	for _, path := range []string{"/api/timers", "/apps/count-down-timer/api/timers"} {
		rec := request(t, srv, "GET", path, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, rec.Code)
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte(`"Shop parameter is required"`)) {
			t.Errorf("%s body = %s", path, rec.Body.String())
		}
	}
}

func TestStorefront_CORSPreflight(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/timers?shop=a", nil)
	req.Header.Set("Origin", "https://shop-a.myshopify.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code >= 400 {
		t.Errorf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAdminRequiresToken(t *testing.T) {
	srv, _ := testServer(t)

	rec := request(t, srv, "GET", "/api/v1/timers", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	forged, _ := auth.NewJWTService([]byte("some-other-secret-32-bytes-long"), time.Hour).GenerateToken("shop-a")
	rec = request(t, srv, "GET", "/api/v1/timers", forged, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("forged token status = %d, want 401", rec.Code)
	}
}

func TestAdminShopIsolation(t *testing.T) {
	srv, _ := testServer(t)

	rec := request(t, srv, "POST", "/api/v1/timers", token(t, "shop-a"), runningTimer("Mine"))
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&created)

	shopB := token(t, "shop-b")
	if rec := request(t, srv, "GET", "/api/v1/timers/"+created.Data.ID, shopB, nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-shop get status = %d, want 404", rec.Code)
	}
	// Idempotent delete answers 204 but must not remove shop-a's record
	request(t, srv, "DELETE", "/api/v1/timers/"+created.Data.ID, shopB, nil)
	if rec := request(t, srv, "GET", "/api/v1/timers/"+created.Data.ID, token(t, "shop-a"), nil); rec.Code != http.StatusOK {
		t.Errorf("owner get status = %d, want 200", rec.Code)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, _ := testServer(t)

	rec := request(t, srv, "GET", "/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp Response
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRun_Shutdown(t *testing.T) {
	srv, _ := testServer(t)
	srv.server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
