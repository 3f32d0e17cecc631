// Setlist - Playlist Association Rule Mining and Song Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/setlist/internal/auth"
	"github.com/tomtom215/setlist/internal/dataset"
	"github.com/tomtom215/setlist/internal/models"
	"github.com/tomtom215/setlist/internal/recommend"
	"github.com/tomtom215/setlist/internal/recommend/storage"
	"github.com/tomtom215/setlist/internal/recommend/training"
)

const playlistsCSV = `pid,track_name,artist_name
0,A,x
0,B,x
0,C,x
1,A,x
1,B,x
2,A,x
2,C,x
3,B,x
3,C,x
`

type stubFetcher struct {
	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func (f *stubFetcher) Fetch(ctx context.Context, _ string) (*dataset.Dataset, error) {
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return dataset.Parse(strings.NewReader(playlistsCSV))
}

type testEnv struct {
	router  http.Handler
	engine  *recommend.Engine
	store   storage.Store
	trainer *training.Trainer
	jwt     *auth.JWTManager
}

type envOptions struct {
	fetcher   training.DatasetFetcher
	noTrainer bool
	withAuth  bool
	rateLimit int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	store, err := storage.NewFileStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	engine, err := recommend.NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	env := &testEnv{engine: engine, store: store}

	if !opts.noTrainer {
		fetcher := opts.fetcher
		if fetcher == nil {
			fetcher = &stubFetcher{}
		}
		env.trainer, err = training.NewTrainer(training.Config{
			MinSupport:     0.5,
			MinConfidence:  0.5,
			MaxItemsetSize: 5,
			Workers:        2,
			DatasetURL:     "https://example.com/playlists.csv",
		}, store, fetcher, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewTrainer() error = %v", err)
		}
		env.trainer.AddListener(func(ctx context.Context, _ models.ModelInfo) error {
			_, err := engine.Reload(ctx, store)
			return err
		})
	}

	if opts.withAuth {
		env.jwt, err = auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
		if err != nil {
			t.Fatalf("NewJWTManager() error = %v", err)
		}
	}

	h, err := NewHandler(HandlerConfig{Engine: engine, Store: store, Trainer: env.trainer})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = opts.rateLimit == 0
	if opts.rateLimit > 0 {
		mwCfg.RateLimitRequests = opts.rateLimit
	}
	env.router = NewRouter(h, NewChiMiddleware(mwCfg), env.jwt).SetupChi()
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) train(t *testing.T) {
	t.Helper()
	if _, err := env.trainer.Train(context.Background(), training.Request{}); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
}

// decodeResponse decodes the envelope, re-decoding Data into data when set.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	if data != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		if err != nil {
			t.Fatalf("re-encode data: %v", err)
		}
		if err := json.Unmarshal(raw, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return resp
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	resp := decodeResponse(t, rec, nil)
	if resp.Status != "error" || resp.Error == nil {
		t.Fatalf("response = %+v, want error envelope", resp)
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %q, want %q", resp.Error.Code, code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	var health models.HealthResponse
	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	decodeResponse(t, rec, &health)
	if health.Status != "degraded" || health.ModelLoaded || health.Service != ServiceName {
		t.Errorf("health before training = %+v", health)
	}

	assertError(t, env.do(t, http.MethodGet, "/health/ready", ""), http.StatusServiceUnavailable, ErrCodeModelUnavailable)

	env.train(t)

	rec = env.do(t, http.MethodGet, "/health", "")
	decodeResponse(t, rec, &health)
	if health.Status != "healthy" || !health.ModelLoaded || health.ModelVersion != "1.0" || health.NumRules != 6 {
		t.Errorf("health after training = %+v", health)
	}
	if health.CacheEntries == nil || *health.CacheEntries != 0 {
		t.Errorf("cache_entries = %v, want 0 with the default cache", health.CacheEntries)
	}
	if rec := env.do(t, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}

func TestRecommend(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	assertError(t, env.do(t, http.MethodPost, "/api/recommender", `{"songs":["A"]}`),
		http.StatusServiceUnavailable, ErrCodeModelUnavailable)

	env.train(t)

	var got models.RecommendResponse
	rec := env.do(t, http.MethodPost, "/api/recommender", `{"songs":["a  "]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec, &got)
	if strings.Join(got.Songs, ",") != "B,C" {
		t.Errorf("songs = %v, want [B C]", got.Songs)
	}
	if got.Version != "1.0" || got.ModelDate.IsZero() {
		t.Errorf("response = %+v", got)
	}
	if resp.Metadata.Cached {
		t.Error("first response marked cached")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}

	rec = env.do(t, http.MethodPost, "/api/recommender", `{"songs":["A"],"top_n":1}`)
	resp = decodeResponse(t, rec, &got)
	if len(got.Songs) != 1 || got.Songs[0] != "B" {
		t.Errorf("top_n=1 songs = %v, want [B]", got.Songs)
	}

	rec = env.do(t, http.MethodPost, "/api/recommender", `{"songs":["A"],"top_n":1}`)
	resp = decodeResponse(t, rec, nil)
	if !resp.Metadata.Cached {
		t.Error("repeated request not served from cache")
	}

	rec = env.do(t, http.MethodPost, "/api/recommender", `{"songs":["Unknown"]}`)
	decodeResponse(t, rec, &got)
	if rec.Code != http.StatusOK || len(got.Songs) != 0 {
		t.Errorf("unknown song: status %d songs %v", rec.Code, got.Songs)
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})
	env.train(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed", `{"songs":`},
		{"missing songs", `{}`},
		{"empty list", `{"songs":[]}`},
		{"blank song", `{"songs":["A","   "]}`},
		{"wrong type", `{"songs":"A"}`},
		{"unknown field", `{"songs":["A"],"limit":3}`},
		{"trailing data", `{"songs":["A"]}{"songs":["B"]}`},
		{"top_n too large", `{"songs":["A"],"top_n":5000}`},
		{"oversized body", `{"songs":["` + strings.Repeat("x", maxBodyBytes) + `"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertError(t, env.do(t, http.MethodPost, "/api/recommender", tt.body),
				http.StatusBadRequest, ErrCodeInvalidInput)
		})
	}
}

func TestModelInfoAndVersions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	assertError(t, env.do(t, http.MethodGet, "/model/info", ""), http.StatusNotFound, ErrCodeNoModel)

	var versions models.ModelVersionsResponse
	decodeResponse(t, env.do(t, http.MethodGet, "/model/versions", ""), &versions)
	if versions.CurrentVersion != "" || len(versions.Versions) != 0 {
		t.Errorf("versions before training = %+v", versions)
	}

	env.train(t)
	env.train(t)

	var info models.ModelInfoResponse
	rec := env.do(t, http.MethodGet, "/model/info", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decodeResponse(t, rec, &info)
	if info.CurrentVersion != "2.0" || info.NumRules != 6 || info.NumItemsets != 6 {
		t.Errorf("info = %+v", info)
	}
	if strings.Join(info.AvailableVersions, ",") != "1.0,2.0" {
		t.Errorf("AvailableVersions = %v", info.AvailableVersions)
	}

	decodeResponse(t, env.do(t, http.MethodGet, "/model/versions", ""), &versions)
	if versions.CurrentVersion != "2.0" || len(versions.Versions) != 2 || versions.Versions[0].Version != "1.0" {
		t.Errorf("versions = %+v", versions)
	}
}

func TestReloadModel(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{noTrainer: true})

	assertError(t, env.do(t, http.MethodPost, "/reload-model", ""), http.StatusNotFound, ErrCodeNoModel)

	// Train out of band, as a separate trainer process would.
	tr, err := training.NewTrainer(training.Config{MinSupport: 0.5, MinConfidence: 0.5}, env.store, &stubFetcher{}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Train(context.Background(), training.Request{DatasetURL: "https://example.com/p.csv"}); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if env.engine.Status().Loaded {
		t.Fatal("engine loaded a model before reload")
	}

	var reload models.ReloadResponse
	rec := env.do(t, http.MethodPost, "/reload-model", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeResponse(t, rec, &reload)
	if reload.Version != "1.0" || reload.NumRules != 6 {
		t.Errorf("reload = %+v", reload)
	}
	if st := env.engine.Status(); !st.Loaded || st.Version != "1.0" {
		t.Errorf("engine status = %+v", st)
	}
}

func TestTrain(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	var res models.TrainResponse
	rec := env.do(t, http.MethodPost, "/train", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeResponse(t, rec, &res)
	if res.Version != "1.0" || res.NumRules != 6 || res.DatasetStats.TotalPlaylists != 4 {
		t.Errorf("train = %+v", res)
	}

	rec = env.do(t, http.MethodPost, "/train", `{"min_support":0.75,"max_itemset_size":1,"dataset_url":"https://example.com/other.csv"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeResponse(t, rec, &res)
	if res.Version != "2.0" || res.NumItemsets != 3 || res.Params.MinSupport != 0.75 {
		t.Errorf("train with overrides = %+v", res)
	}
	if st := env.engine.Status(); st.Version != "2.0" {
		t.Errorf("engine version = %q, want 2.0 after listener reload", st.Version)
	}
}

func TestTrain_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"min_support":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", `{"support":0.5}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"support out of range", `{"min_support":1.5}`, http.StatusBadRequest, ErrCodeValidation},
		{"itemset size too large", `{"max_itemset_size":11}`, http.StatusBadRequest, ErrCodeValidation},
		{"not a url", `{"dataset_url":"playlists"}`, http.StatusBadRequest, ErrCodeValidation},
		{"unsupported scheme", `{"dataset_url":"ftp://example.com/p.csv"}`, http.StatusBadRequest, ErrCodeInvalidURL},
		{"file url", `{"dataset_url":"file:///etc/passwd"}`, http.StatusBadRequest, ErrCodeInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertError(t, env.do(t, http.MethodPost, "/train", tt.body), tt.status, tt.code)
		})
	}
}

func TestTrain_Disabled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{noTrainer: true})
	assertError(t, env.do(t, http.MethodPost, "/train", ""), http.StatusServiceUnavailable, ErrCodeTrainingDisabled)
}

func TestTrain_Conflict(t *testing.T) {
	t.Parallel()
	fetcher := &stubFetcher{block: make(chan struct{}), started: make(chan struct{})}
	env := newTestEnv(t, envOptions{fetcher: fetcher})

	done := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/train", http.NoBody))
		done <- rec.Code
	}()
	<-fetcher.started

	assertError(t, env.do(t, http.MethodPost, "/train", ""), http.StatusConflict, ErrCodeTrainingInProgress)

	close(fetcher.block)
	if code := <-done; code != http.StatusOK {
		t.Errorf("first run status = %d, want 200", code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{withAuth: true})

	assertError(t, env.do(t, http.MethodPost, "/train", ""), http.StatusUnauthorized, auth.CodeAuthentication)
	assertError(t, env.do(t, http.MethodPost, "/reload-model", "", "Authorization", "Bearer nope"),
		http.StatusUnauthorized, auth.CodeAuthentication)

	token, err := env.jwt.GenerateToken("ops@example.com", auth.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if rec := env.do(t, http.MethodPost, "/train", "", "Authorization", "Bearer "+token); rec.Code != http.StatusOK {
		t.Errorf("authorized train status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Read endpoints stay public.
	if rec := env.do(t, http.MethodPost, "/api/recommender", `{"songs":["A"]}`); rec.Code != http.StatusOK {
		t.Errorf("recommend status = %d", rec.Code)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{})

	assertError(t, env.do(t, http.MethodGet, "/nope", ""), http.StatusNotFound, ErrCodeNotFound)
	assertError(t, env.do(t, http.MethodGet, "/api/recommender", ""), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)

	rec := env.do(t, http.MethodGet, "/health", "", "X-Request-ID", "trace-123")
	if got := rec.Header().Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want trace-123", got)
	}
	if resp := decodeResponse(t, rec, nil); resp.Metadata.RequestID != "trace-123" {
		t.Errorf("metadata request_id = %q", resp.Metadata.RequestID)
	}

	rec = env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, envOptions{rateLimit: 2})

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/model/versions", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	assertError(t, env.do(t, http.MethodGet, "/model/versions", ""), http.StatusTooManyRequests, ErrCodeRateLimited)

	// Probes bypass the limiter.
	if rec := env.do(t, http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
}
