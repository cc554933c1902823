package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/linesmerrill/reportform-dashboard/api/handlers"
	"github.com/linesmerrill/reportform-dashboard/databases/mocks"
	"github.com/linesmerrill/reportform-dashboard/models"
)

func serveForm(a *handlers.App, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func TestDashboard_DashboardHandler(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, true)

	rr := serve(a, http.MethodGet, "/?error=update_failed", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "Gate A")
	assert.Contains(t, body, "Dock 4")
	assert.Contains(t, body, "The status update was not saved")
	assert.NotContains(t, body, "Loading...")
}

func TestDashboard_DashboardHandlerWhileLoading(t *testing.T) {
	a := newTestApp(t, &mocks.ReportDatabase{}, false)

	rr := serve(a, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Loading...")
}

func TestDashboard_StageFormHandler(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		status   string
		location string
		pending  map[int64]models.Status
	}{
		{name: "staged", target: "/reports/1/stage", status: "Resolved", location: "/", pending: map[int64]models.Status{1: models.StatusResolved}},
		{name: "invalid status", target: "/reports/1/stage", status: "Closed", location: "/?error=invalid_status", pending: map[int64]models.Status{}},
		{name: "unknown report", target: "/reports/42/stage", status: "Resolved", location: "/?error=unknown_report", pending: map[int64]models.Status{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, &mocks.ReportDatabase{}, true)

			rr := serveForm(a, tt.target, url.Values{"status": {tt.status}})

			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, tt.location, rr.Header().Get("Location"))
			assert.Equal(t, tt.pending, a.View.Pending())
		})
	}
}

func TestDashboard_CommitFormHandler(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, true)

	// nothing staged: no request, plain redirect
	rr := serveForm(a, "/reports/2/commit", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	assert.NoError(t, a.View.Stage(2, models.StatusOngoing))
	db.On("UpdateStatus", mock.Anything, int64(2), models.StatusOngoing).Return(errors.New("503")).Once()

	rr = serveForm(a, "/reports/2/commit", nil)
	assert.Equal(t, "/?error=update_failed", rr.Header().Get("Location"))
	assert.Equal(t, map[int64]models.Status{2: models.StatusOngoing}, a.View.Pending())

	db.On("UpdateStatus", mock.Anything, int64(2), models.StatusOngoing).Return(nil).Once()
	db.On("ReadAll", mock.Anything).Return(nil, errors.New("timeout")).Once()

	rr = serveForm(a, "/reports/2/commit", nil)
	assert.Equal(t, "/?error=refresh_failed", rr.Header().Get("Location"))
	db.AssertExpectations(t)
}

func TestDashboard_RefreshFormHandler(t *testing.T) {
	db := &mocks.ReportDatabase{}
	a := newTestApp(t, db, false)
	db.On("ReadAll", mock.Anything).Return(syncedReports, nil).Once()

	rr := serveForm(a, "/refresh", nil)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.False(t, a.View.Loading())
	assert.Len(t, a.View.Page().Rows, 2)
}
