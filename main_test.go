package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wangshuonpu/webserver/internal/auth"
	"github.com/wangshuonpu/webserver/internal/config"
	"github.com/wangshuonpu/webserver/internal/database"
)

type fakeHitStore struct {
	mu   sync.Mutex
	hits []database.RecordHitParams
	err  error
}

func (s *fakeHitStore) RecordHit(_ context.Context, arg database.RecordHitParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.hits = append(s.hits, arg)
	return nil
}

func (s *fakeHitStore) CountHits(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.hits)), s.err
}

func (s *fakeHitStore) CountHitsByStatus(context.Context) ([]database.CountHitsByStatusRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[int32]int64{}
	for _, h := range s.hits {
		counts[h.Status]++
	}
	var rows []database.CountHitsByStatusRow
	for _, status := range []int32{200, 304, 404, 500} {
		if n := counts[status]; n > 0 {
			rows = append(rows, database.CountHitsByStatusRow{Status: status, Hits: n})
		}
	}
	return rows, s.err
}

func (s *fakeHitStore) DeleteHits(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = nil
	return s.err
}

func newTestSite(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	for name, body := range map[string]string{
		"index.html": "<h1>home</h1>",
		"app.js":     "console.log(1)",
	} {
		if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newTestStatic(t *testing.T, apiCfg *apiConfig) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.WebRoot = newTestSite(t)
	h, err := newStaticHandler(cfg, apiCfg)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestStaticHandlerCountsAndRecords(t *testing.T) {
	store := &fakeHitStore{}
	apiCfg := &apiConfig{db: store}
	h := newTestStatic(t, apiCfg)

	tests := []struct {
		target     string
		wantStatus int
	}{
		{target: "/", wantStatus: http.StatusOK},
		{target: "/app.js", wantStatus: http.StatusOK},
		{target: "/missing.png", wantStatus: http.StatusNotFound},
		{target: "/about", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		if rec := get(h, tt.target); rec.Code != tt.wantStatus {
			t.Errorf("GET %s: Code = %d, want %d", tt.target, rec.Code, tt.wantStatus)
		}
		apiCfg.pendingHits.Wait()
	}

	if got := apiCfg.fileServerHits.Load(); got != int64(len(tests)) {
		t.Errorf("fileServerHits = %d, want %d", got, len(tests))
	}
	if len(store.hits) != len(tests) {
		t.Fatalf("recorded %d hits, want %d", len(store.hits), len(tests))
	}
	for i, tt := range tests {
		hit := store.hits[i]
		if hit.Path != strings.SplitN(tt.target, "?", 2)[0] || int(hit.Status) != tt.wantStatus {
			t.Errorf("hit %d = %+v, want %s %d", i, hit, tt.target, tt.wantStatus)
		}
		if hit.ID == uuid.Nil {
			t.Errorf("hit %d has no id", i)
		}
	}
}

func TestStaticHandlerStoreFailureKeepsResponse(t *testing.T) {
	apiCfg := &apiConfig{db: &fakeHitStore{err: errors.New("db down")}}
	h := newTestStatic(t, apiCfg)

	rec := get(h, "/app.js")
	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Errorf("Code = %d body = %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/js" {
		t.Errorf("Content-Type = %q, want text/js", got)
	}
}

// blockingHitStore holds every insert until its context ends.
type blockingHitStore struct {
	fakeHitStore
	started chan struct{}
}

func (s *blockingHitStore) RecordHit(ctx context.Context, _ database.RecordHitParams) error {
	close(s.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestStaticHandlerDoesNotWaitForStore(t *testing.T) {
	store := &blockingHitStore{started: make(chan struct{})}
	apiCfg := &apiConfig{db: store}
	srv := httptest.NewServer(newTestStatic(t, apiCfg))
	defer srv.Close()

	client := &http.Client{Timeout: hitRecordTimeout}
	start := time.Now()
	resp, err := client.Get(srv.URL + "/app.js")
	if err != nil {
		t.Fatalf("GET /app.js: %v", err)
	}
	resp.Body.Close()
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if elapsed >= hitRecordTimeout/2 {
		t.Errorf("response took %s, want well under %s", elapsed, hitRecordTimeout)
	}

	select {
	case <-store.started:
	case <-time.After(time.Second):
		t.Fatal("hit was never handed to the store")
	}
	apiCfg.pendingHits.Wait()
}

func TestAdminMetrics(t *testing.T) {
	store := &fakeHitStore{}
	apiCfg := &apiConfig{db: store}
	static := newTestStatic(t, apiCfg)
	get(static, "/index.html")
	get(static, "/nope.css")
	apiCfg.pendingHits.Wait()

	rec := get(apiCfg.adminMux(), "/admin/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"requested 2 times", "2 requests recorded", "<li>200: 1</li>", "<li>404: 1</li>"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics page missing %q:\n%s", want, body)
		}
	}
}

func TestLoginAndReset(t *testing.T) {
	hash, err := auth.HashPassword("letmein")
	if err != nil {
		t.Fatal(err)
	}
	store := &fakeHitStore{}
	apiCfg := &apiConfig{
		db:                store,
		platform:          "prod",
		jwtSecret:         "test-secret",
		adminPasswordHash: hash,
		adminID:           uuid.New(),
	}
	get(newTestStatic(t, apiCfg), "/app.js")
	apiCfg.pendingHits.Wait()
	mux := apiCfg.adminMux()

	post := func(target, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	if rec := post("/api/login", `{"password":"nope"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: Code = %d, want 401", rec.Code)
	}
	if rec := post("/api/login", `{`, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: Code = %d, want 400", rec.Code)
	}

	rec := post("/api/login", `{"password":"letmein"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: Code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if id, err := auth.ValidateJWT(payload.Token, "test-secret"); err != nil || id != apiCfg.adminID {
		t.Errorf("token subject = %v, %v; want %v", id, err, apiCfg.adminID)
	}

	if rec := post("/admin/reset", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("reset without token: Code = %d, want 401", rec.Code)
	}
	if rec := post("/admin/reset", "", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("reset with bad token: Code = %d, want 401", rec.Code)
	}
	if apiCfg.fileServerHits.Load() != 1 || len(store.hits) != 1 {
		t.Fatal("rejected reset must not clear hits")
	}

	if rec := post("/admin/reset", "", payload.Token); rec.Code != http.StatusOK {
		t.Fatalf("reset: Code = %d, want 200", rec.Code)
	}
	if apiCfg.fileServerHits.Load() != 0 || len(store.hits) != 0 {
		t.Errorf("after reset: hits = %d, stored = %d", apiCfg.fileServerHits.Load(), len(store.hits))
	}
}

func TestResetOnDevNeedsNoToken(t *testing.T) {
	apiCfg := &apiConfig{platform: "dev"}
	apiCfg.fileServerHits.Store(5)

	rec := httptest.NewRecorder()
	apiCfg.adminMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/reset", nil))
	if rec.Code != http.StatusOK || apiCfg.fileServerHits.Load() != 0 {
		t.Errorf("Code = %d hits = %d", rec.Code, apiCfg.fileServerHits.Load())
	}
}

func TestLoginDisabled(t *testing.T) {
	apiCfg := &apiConfig{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"x"}`))
	apiCfg.adminMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Code = %d, want 403", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := get((&apiConfig{}).adminMux(), "/api/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("Code = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestListenLimitsConnections(t *testing.T) {
	ln, err := listen("127.0.0.1:0", 1)
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})}
	go srv.Serve(ln)
	defer srv.Close()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/ping.txt")
	if err != nil {
		t.Fatalf("GET through limited listener: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
}
