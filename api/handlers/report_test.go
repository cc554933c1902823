package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/reportform-dashboard/api/handlers"
	"github.com/linesmerrill/reportform-dashboard/config"
	"github.com/linesmerrill/reportform-dashboard/dashboard"
	"github.com/linesmerrill/reportform-dashboard/databases/mocks"
	"github.com/linesmerrill/reportform-dashboard/models"
)

var syncedReports = []models.Report{
	{ID: 1, Location: "Gate A", Status: models.StatusOngoing, UpdateAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	{ID: 2, Location: "Dock 4", Status: models.StatusResolved, UpdateAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
}

// newTestApp builds an App around a mocked backend. When load is true the
// view has already read syncedReports once.
func newTestApp(t *testing.T, db *mocks.ReportDatabase, load bool) *handlers.App {
	t.Helper()
	a := &handlers.App{
		Config: config.Config{Backend: config.BackendSupabase, RequestTimeout: 5 * time.Second},
		DB:     db,
		View:   dashboard.New(db, nil),
		Hub:    handlers.NewHub(),
	}
	if load {
		db.On("ReadAll", mock.Anything).Return(syncedReports, nil).Once()
		require.NoError(t, a.View.Load(context.Background()))
	}
	a.Router = a.New()
	return a
}

func serve(a *handlers.App, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func decodeReports(t *testing.T, rr *httptest.ResponseRecorder) models.ReportsResponse {
	t.Helper()
	var resp models.ReportsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, false)

	rr := serve(a, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"alive": true, "backend": "supabase", "loading": true}`, rr.Body.String())
}

func TestReport_ReportsHandlerWhileLoading(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, false)

	rr := serve(a, http.MethodGet, "/api/v1/reports", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"loading": true, "reports": []}`, rr.Body.String())
}

func TestReport_ReportsHandler(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, true)

	rr := serve(a, http.MethodGet, "/api/v1/reports", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeReports(t, rr)
	assert.False(t, resp.Loading)
	require.Len(t, resp.Reports, 2)
	assert.Equal(t, syncedReports[0], resp.Reports[0].Report)
	assert.True(t, resp.Reports[0].InReview)
	assert.False(t, resp.Reports[1].InReview)
}

func TestReport_RefreshHandler(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, false)
	db.On("ReadAll", mock.Anything).Return(nil, errors.New("connection refused")).Once()
	db.On("ReadAll", mock.Anything).Return(syncedReports[:1], nil).Once()

	rr := serve(a, http.MethodPost, "/api/v1/reports/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var e models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "failed to fetch reports", e.Response.Message)
	assert.True(t, a.View.Loading())

	rr = serve(a, http.MethodPost, "/api/v1/reports/refresh", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeReports(t, rr)
	assert.False(t, resp.Loading)
	assert.Len(t, resp.Reports, 1)
}

func TestReport_RefreshHandlerTimeout(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, false)
	db.On("ReadAll", mock.Anything).Return(nil, context.DeadlineExceeded).Once()

	rr := serve(a, http.MethodPost, "/api/v1/reports/refresh", "")

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
}

func TestReport_StageHandler(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{name: "staged", target: "/api/v1/reports/1/stage", body: `{"status":"Resolved"}`, want: http.StatusOK},
		{name: "bad body", target: "/api/v1/reports/1/stage", body: `{"status":`, want: http.StatusBadRequest},
		{name: "label instead of value", target: "/api/v1/reports/1/stage", body: `{"status":"In Progress"}`, want: http.StatusBadRequest},
		{name: "unknown report", target: "/api/v1/reports/9/stage", body: `{"status":"Ongoing"}`, want: http.StatusNotFound},
		{name: "id overflows int64", target: "/api/v1/reports/99999999999999999999/stage", body: `{"status":"Ongoing"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(a, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	assert.Equal(t, map[int64]models.Status{1: models.StatusResolved}, a.View.Pending())
	db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReport_StageHandlerUsesURLVars(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/reports/2/stage", strings.NewReader(`{"status":"Ongoing"}`))
	req = mux.SetURLVars(req, map[string]string{"report_id": "2"})
	rr := httptest.NewRecorder()
	handlers.Report{View: a.View}.StageHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message": "status Ongoing staged for report 2"}`, rr.Body.String())
}

func TestReport_PendingHandler(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, true)
	require.NoError(t, a.View.Stage(2, models.StatusOngoing))

	rr := serve(a, http.MethodGet, "/api/v1/reports/pending", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"2": "Ongoing"}`, rr.Body.String())
}

func TestReport_CommitHandlerNothingStaged(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)

	rr := serve(a, http.MethodPost, "/api/v1/reports/1/commit", "")

	assert.Equal(t, http.StatusConflict, rr.Code)
	db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReport_CommitHandler(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)
	require.NoError(t, a.View.Stage(1, models.StatusResolved))

	resynced := []models.Report{
		{ID: 1, Location: "Gate A", Status: models.StatusResolved, UpdateAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		syncedReports[1],
	}
	db.On("UpdateStatus", mock.Anything, int64(1), models.StatusResolved).Return(nil).Once()
	db.On("ReadAll", mock.Anything).Return(resynced, nil).Once()

	rr := serve(a, http.MethodPost, "/api/v1/reports/1/commit", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeReports(t, rr)
	assert.Equal(t, models.StatusResolved, resp.Reports[0].Status)
	assert.False(t, resp.Reports[0].Staged)
	assert.Empty(t, a.View.Pending())
	db.AssertExpectations(t)
}

func TestReport_CommitHandlerWriteFailure(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)
	require.NoError(t, a.View.Stage(1, models.StatusResolved))
	db.On("UpdateStatus", mock.Anything, int64(1), models.StatusResolved).Return(errors.New("network error")).Once()

	rr := serve(a, http.MethodPost, "/api/v1/reports/1/commit", "")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	var e models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e))
	assert.Equal(t, "failed to update status", e.Response.Message)
	assert.Contains(t, e.Response.Error, "network error")
	assert.Equal(t, map[int64]models.Status{1: models.StatusResolved}, a.View.Pending())
}

func TestReport_CommitHandlerReloadFailure(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)
	require.NoError(t, a.View.Stage(1, models.StatusResolved))
	db.On("UpdateStatus", mock.Anything, int64(1), models.StatusResolved).Return(nil).Once()
	db.On("ReadAll", mock.Anything).Return(nil, errors.New("timeout")).Once()

	rr := serve(a, http.MethodPost, "/api/v1/reports/1/commit", "")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "status updated but failed to fetch reports")
}

func TestRoutesRejectNonNumericIDs(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, true)

	rr := serve(a, http.MethodPost, "/api/v1/reports/abc/commit", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
