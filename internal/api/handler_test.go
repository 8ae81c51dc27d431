package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/avpulse/internal/analytics"
	"github.com/guttosm/avpulse/internal/domain/dto"
	"github.com/guttosm/avpulse/internal/domain/models"
	"github.com/guttosm/avpulse/internal/quote"
	"github.com/guttosm/avpulse/internal/service"
)

type mockAnalysisService struct {
	summary  *dto.SummaryResponse
	analysis *dto.AnalysisResponse
	report   *dto.ReportResponse
	list     []models.Snapshot
	err      error
	got      service.Request
}

func (m *mockAnalysisService) Summary(_ context.Context, req service.Request) (*dto.SummaryResponse, error) {
	m.got = req
	return m.summary, m.err
}

func (m *mockAnalysisService) Analyze(_ context.Context, req service.Request) (*dto.AnalysisResponse, error) {
	m.got = req
	return m.analysis, m.err
}

func (m *mockAnalysisService) Report(_ context.Context, req service.Request) (*dto.ReportResponse, error) {
	m.got = req
	return m.report, m.err
}

func (m *mockAnalysisService) Snapshots(_ context.Context, _ string, _ int) ([]models.Snapshot, error) {
	return m.list, m.err
}

var _ service.AnalysisService = (*mockAnalysisService)(nil)

func setupRouterWithMock(s service.AnalysisService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/summary", h.GetSummary)
	v1.GET("/analysis", h.GetAnalysis)
	v1.GET("/report", h.GetReport)
	v1.GET("/snapshots", h.GetSnapshots)
	return r
}

func TestGetAnalysis_TableDriven(t *testing.T) {
	ok := &dto.AnalysisResponse{
		Symbol:       "IBM",
		Interval:     "60min",
		MaxVolume:    &analytics.MaxVolume{Dates: []string{"2024-01-03"}, Volume: 200},
		AverageClose: &analytics.CloseAverage{Days: 2, Average: 9.5},
	}

	cases := []struct {
		name   string
		svc    *mockAnalysisService
		query  string
		status int
		assert func(t *testing.T, body []byte)
	}{
		{name: "missing symbol", svc: &mockAnalysisService{}, query: "/api/v1/analysis?interval=5", status: http.StatusBadRequest},
		{name: "missing interval", svc: &mockAnalysisService{}, query: "/api/v1/analysis?symbol=IBM", status: http.StatusBadRequest},
		{name: "unsupported interval", svc: &mockAnalysisService{}, query: "/api/v1/analysis?symbol=IBM&interval=7", status: http.StatusBadRequest},
		{name: "service validation", svc: &mockAnalysisService{err: fmt.Errorf("%w: unknown source", service.ErrInvalidRequest)}, query: "/api/v1/analysis?symbol=IBM&interval=5&source=x", status: http.StatusBadRequest},
		{name: "no data", svc: &mockAnalysisService{err: fmt.Errorf("%w: Invalid API call.", quote.ErrNoData)}, query: "/api/v1/analysis?symbol=NOPE&interval=5", status: http.StatusNotFound},
		{name: "no snapshot", svc: &mockAnalysisService{err: service.ErrSnapshotNotFound}, query: "/api/v1/analysis?symbol=IBM&interval=5&source=store", status: http.StatusNotFound},
		{name: "provider failure", svc: &mockAnalysisService{err: fmt.Errorf("%w: dial tcp", service.ErrProvider)}, query: "/api/v1/analysis?symbol=IBM&interval=5", status: http.StatusBadGateway},
		{name: "timeout", svc: &mockAnalysisService{err: fmt.Errorf("fetch: %w", context.DeadlineExceeded)}, query: "/api/v1/analysis?symbol=IBM&interval=5", status: http.StatusGatewayTimeout},
		{name: "internal error", svc: &mockAnalysisService{err: errors.New("db down")}, query: "/api/v1/analysis?symbol=IBM&interval=5", status: http.StatusInternalServerError},
		{
			name:   "success",
			svc:    &mockAnalysisService{analysis: ok},
			query:  "/api/v1/analysis?symbol=ibm&interval=60min",
			status: http.StatusOK,
			assert: func(t *testing.T, body []byte) {
				var out dto.AnalysisResponse
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.MaxVolume == nil || out.MaxVolume.Volume != 200 || out.AverageClose.Average != 9.5 {
					t.Fatalf("unexpected body: %+v", out)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouterWithMock(tc.svc)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.query, nil))
			if w.Code != tc.status {
				t.Fatalf("want %d got %d body=%s", tc.status, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				var e dto.ErrorResponse
				if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Message == "" {
					t.Fatalf("expected error body, got %s", w.Body.String())
				}
			}
			if tc.assert != nil {
				tc.assert(t, w.Body.Bytes())
			}
		})
	}
}

func TestGetSummary_PassesRequest(t *testing.T) {
	svc := &mockAnalysisService{summary: &dto.SummaryResponse{Symbol: "IBM", Latest: &dto.LatestBar{Close: "147.78", Volume: "1,210"}}}
	r := setupRouterWithMock(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/summary?symbol=IBM&interval=15&source=store", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d", w.Code)
	}
	if svc.got.Symbol != "IBM" || svc.got.Interval != 15 || svc.got.Source != service.SourceStore {
		t.Fatalf("unexpected request %+v", svc.got)
	}
	var out dto.SummaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Latest == nil || out.Latest.Volume != "1,210" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestGetReport(t *testing.T) {
	svc := &mockAnalysisService{report: &dto.ReportResponse{
		Summary:  &dto.SummaryResponse{Symbol: "IBM"},
		Analysis: &dto.AnalysisResponse{Symbol: "IBM", Records: 2},
	}}
	r := setupRouterWithMock(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/report?symbol=ibm&interval=60min", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var out dto.ReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Summary == nil || out.Analysis == nil || out.Analysis.Records != 2 || svc.got.Interval != 60 {
		t.Fatalf("unexpected body %s (req %+v)", w.Body.String(), svc.got)
	}

	w = httptest.NewRecorder()
	r = setupRouterWithMock(&mockAnalysisService{err: quote.ErrNoData})
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/report?symbol=X&interval=5", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404 got %d", w.Code)
	}
}

func TestGetSnapshots(t *testing.T) {
	cases := []struct {
		name   string
		svc    *mockAnalysisService
		query  string
		status int
	}{
		{name: "ok", svc: &mockAnalysisService{list: []models.Snapshot{{ID: 1, Symbol: "IBM"}}}, query: "/api/v1/snapshots?symbol=IBM", status: http.StatusOK},
		{name: "bad limit", svc: &mockAnalysisService{}, query: "/api/v1/snapshots?symbol=IBM&limit=x", status: http.StatusBadRequest},
		{name: "store disabled", svc: &mockAnalysisService{err: service.ErrStoreDisabled}, query: "/api/v1/snapshots?symbol=IBM", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			setupRouterWithMock(tc.svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.query, nil))
			if w.Code != tc.status {
				t.Fatalf("want %d got %d", tc.status, w.Code)
			}
		})
	}
}
