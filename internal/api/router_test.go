package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/avpulse/internal/domain/dto"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &mockAnalysisService{
		summary:  &dto.SummaryResponse{Symbol: "IBM", Interval: "5min"},
		analysis: &dto.AnalysisResponse{Symbol: "IBM", Records: 3},
	}
	r := NewRouter(NewHandler(svc), RouterOptions{})

	for _, path := range []string{"/api/v1/summary?symbol=IBM&interval=5", "/api/v1/analysis?symbol=IBM&interval=5"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s: expected X-Request-ID header to be set", path)
		}
		var out map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: invalid json response: %v", path, err)
		}
		if out["symbol"] != "IBM" {
			t.Fatalf("%s: unexpected body %v", path, out)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown route should 404, got %d", w.Code)
	}
}

func TestNewRouter_RateLimitFromOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(NewHandler(&mockAnalysisService{analysis: &dto.AnalysisResponse{Symbol: "IBM"}}), RouterOptions{RateLimit: 1, RateWindow: time.Hour})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analysis?symbol=IBM&interval=5", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestRouterOptions_Defaults(t *testing.T) {
	got := RouterOptions{}.withDefaults()
	if got.RateLimit != 60 || got.RateWindow != time.Minute || got.RequestTimeout != 30*time.Second {
		t.Fatalf("unexpected defaults %+v", got)
	}
	custom := RouterOptions{RateLimit: 5, RateWindow: time.Second, RequestTimeout: time.Second}.withDefaults()
	if custom.RateLimit != 5 || custom.RateWindow != time.Second || custom.RequestTimeout != time.Second {
		t.Fatalf("custom values overwritten %+v", custom)
	}
}
