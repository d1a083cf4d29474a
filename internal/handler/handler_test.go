package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/corpus"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeSearcher struct {
	res *model.SearchResult
	err error
	got model.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req model.SearchRequest) (*model.SearchResult, error) {
	f.got = req
	return f.res, f.err
}

type fakeDatabase struct {
	err      error
	statsErr error
	rows     int64
}

func (f fakeDatabase) Ping(context.Context) error { return f.err }

func (f fakeDatabase) TableStats(context.Context) (*model.TableStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return &model.TableStats{Table: "agency_properties", RowCount: f.rows}, nil
}

type fakeGenerator struct {
	err   error
	inUse int64
}

func (f fakeGenerator) Name() string                 { return "rules" }
func (f fakeGenerator) Health(context.Context) error { return f.err }
func (f fakeGenerator) Slots() int64                 { return 1 }
func (f fakeGenerator) InUse() int64                 { return f.inUse }

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,OPTIONS"},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, s Searcher, exposeSQL bool, db DatabaseStatus, gen GeneratorStatus) *gin.Engine {
	t.Helper()
	c, err := corpus.Load()
	require.NoError(t, err)
	return NewRouter(cfg,
		NewSearchHandler(s, c.Samples, exposeSQL, nil),
		NewHealthHandler(db, gen, "test"),
		nil)
}

func postSearch(router http.Handler, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSearchSuccess(t *testing.T) {
	loc := "Zagreb"
	price := 150000.0
	searcher := &fakeSearcher{res: &model.SearchResult{
		Intent:  &model.QueryIntent{Location: &loc},
		Records: []model.PropertyRecord{{Location: &loc, Price: &price}},
		SQL:     "SELECT * FROM agency_properties WHERE lokacija ILIKE '%Zagreb%' LIMIT 20",
	}}

	for _, expose := range []bool{false, true} {
		t.Run(fmt.Sprintf("expose=%v", expose), func(t *testing.T) {
			router := newTestRouter(t, testConfig(), searcher, expose, fakeDatabase{}, fakeGenerator{})
			rec := postSearch(router, `{"query":"flats in Zagreb","limit":5}`)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, model.SearchRequest{Query: "flats in Zagreb", Limit: 5}, searcher.got)

			body := decode(t, rec)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, "flats in Zagreb", body["query"])
			assert.Equal(t, float64(1), body["total_results"])
			assert.Contains(t, body, "processing_time")
			assert.Equal(t, "Zagreb", body["intent"].(map[string]any)["location"])

			results := body["results"].([]any)
			require.Len(t, results, 1)
			record := results[0].(map[string]any)
			for _, key := range []string{"location", "price", "primary_image"} {
				assert.Contains(t, record, key)
			}

			if expose {
				assert.Equal(t, searcher.res.SQL, body["sql_query"])
			} else {
				assert.NotContains(t, body, "sql_query")
			}
		})
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"empty", apperrors.ErrEmptyQuery, http.StatusBadRequest},
		{"not understood", fmt.Errorf("%w: %w", apperrors.ErrNotUnderstood, apperrors.ErrSQLValidation), http.StatusOK},
		{"timeout", apperrors.ErrGenerationTimeout, http.StatusGatewayTimeout},
		{"busy", apperrors.ErrGeneratorBusy, http.StatusServiceUnavailable},
		{"generation", apperrors.ErrGeneration, http.StatusServiceUnavailable},
		{"database", apperrors.ErrDatabase, http.StatusInternalServerError},
		{"too large", apperrors.ErrResultTooLarge, http.StatusInternalServerError},
		{"unexpected", errors.New("nil pointer somewhere"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("%w: password=hunter2 at 10.0.0.5", tt.err)
			searcher := &fakeSearcher{res: &model.SearchResult{Intent: &model.QueryIntent{}}, err: err}
			router := newTestRouter(t, testConfig(), searcher, true, fakeDatabase{}, fakeGenerator{})

			rec := postSearch(router, `{"query":"anything"}`)
			assert.Equal(t, tt.status, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, apperrors.UserMessage(err), body["error"])
			assert.NotContains(t, rec.Body.String(), "hunter2")
			assert.Equal(t, []any{}, body["results"])
			assert.NotContains(t, body, "sql_query")
		})
	}
}

func TestSearchInvalidBody(t *testing.T) {
	router := newTestRouter(t, testConfig(), &fakeSearcher{}, false, fakeDatabase{}, fakeGenerator{})
	rec := postSearch(router, `{"query":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestRequestIDPreserved(t *testing.T) {
	router := newTestRouter(t, testConfig(), &fakeSearcher{res: &model.SearchResult{}}, false, fakeDatabase{}, fakeGenerator{})
	rec := postSearch(router, `{"query":"x"}`, "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	router := newTestRouter(t, cfg, &fakeSearcher{res: &model.SearchResult{}}, false, fakeDatabase{}, fakeGenerator{})

	assert.Equal(t, http.StatusOK, postSearch(router, `{"query":"x"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, postSearch(router, `{"query":"x"}`).Code)

	// Other routes are not limited.
	req := httptest.NewRequest(http.MethodGet, "/api/search/examples", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExamples(t *testing.T) {
	router := newTestRouter(t, testConfig(), &fakeSearcher{}, false, fakeDatabase{}, fakeGenerator{})
	req := httptest.NewRequest(http.MethodGet, "/api/search/examples", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	examples := decode(t, rec)["examples"].([]any)
	require.Len(t, examples, 6)
	first := examples[0].(map[string]any)
	assert.NotEmpty(t, first["query"])
	assert.NotEmpty(t, first["description"])
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         DatabaseStatus
		gen        fakeGenerator
		wantCode   int
		wantStatus string
		wantAccel  string
	}{
		{"healthy", fakeDatabase{}, fakeGenerator{}, http.StatusOK, "healthy", "available"},
		{"generator down", fakeDatabase{}, fakeGenerator{err: errors.New("no route")}, http.StatusOK, "degraded", "available"},
		{"database down", fakeDatabase{err: errors.New("refused")}, fakeGenerator{}, http.StatusServiceUnavailable, "unhealthy", "available"},
		{"busy", fakeDatabase{}, fakeGenerator{inUse: 1}, http.StatusOK, "healthy", "busy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, testConfig(), &fakeSearcher{}, false, tt.db, tt.gen)
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body model.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "test", body.Version)
			assert.Equal(t, tt.wantAccel, body.Accelerator.Status)
			assert.Equal(t, int64(1), body.Accelerator.Slots)
			assert.Equal(t, "rules", body.Generator.Details["backend"])
		})
	}
}

func TestHealthComponents(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		db         fakeDatabase
		gen        fakeGenerator
		wantCode   int
		wantStatus string
		wantDetail map[string]any
	}{
		{
			name: "database with row count", path: "/api/health/database",
			db: fakeDatabase{rows: 1234}, wantCode: http.StatusOK, wantStatus: "healthy",
			wantDetail: map[string]any{"table": "agency_properties", "row_count": float64(1234)},
		},
		{
			name: "database down", path: "/api/health/database",
			db: fakeDatabase{err: errors.New("refused")}, wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy",
		},
		{
			name: "database count fails", path: "/api/health/database",
			db: fakeDatabase{statsErr: errors.New("relation does not exist")}, wantCode: http.StatusOK, wantStatus: "degraded",
		},
		{
			name: "llm", path: "/api/health/llm",
			gen: fakeGenerator{inUse: 1}, wantCode: http.StatusOK, wantStatus: "healthy",
			wantDetail: map[string]any{"backend": "rules", "slots": float64(1), "in_use": float64(1)},
		},
		{
			name: "llm down", path: "/api/health/llm",
			gen: fakeGenerator{err: errors.New("no route")}, wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy",
			wantDetail: map[string]any{"backend": "rules", "slots": float64(1), "in_use": float64(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, testConfig(), &fakeSearcher{}, false, tt.db, tt.gen)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body model.ComponentHealth
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantDetail, body.Details)
			if tt.wantStatus != "healthy" {
				assert.NotEmpty(t, body.Error)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testConfig(), &fakeSearcher{res: &model.SearchResult{}}, false, fakeDatabase{}, fakeGenerator{})
	postSearch(router, `{"query":"x"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, testConfig(), &fakeSearcher{}, false, fakeDatabase{}, fakeGenerator{})
	req := httptest.NewRequest(http.MethodOptions, "/api/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}
