package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/linesmerrill/reportform-dashboard/config"
	"github.com/linesmerrill/reportform-dashboard/dashboard"
	"github.com/linesmerrill/reportform-dashboard/models"
	templates "github.com/linesmerrill/reportform-dashboard/templates/html"
)

// flash codes carried on the redirect back to the dashboard
const (
	flashUpdateFailed  = "update_failed"
	flashRefreshFailed = "refresh_failed"
	flashBadStatus     = "invalid_status"
	flashUnknownReport = "unknown_report"
)

var flashMessages = map[string]string{
	flashUpdateFailed:  "The status update was not saved. Your selection is kept; press Update to try again.",
	flashRefreshFailed: "The reports could not be refreshed from the server.",
	flashBadStatus:     "That status is not one of the allowed values.",
	flashUnknownReport: "That report is no longer in the list.",
}

// Dashboard serves the HTML report dashboard
type Dashboard struct {
	View *dashboard.View
}

// DashboardHandler renders the report table
func (d Dashboard) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	p := d.View.Page()
	data := templates.DashboardData{
		Loading: p.Loading,
		Rows:    p.Rows,
		Flash:   flashMessages[r.URL.Query().Get("error")],
	}

	var buf bytes.Buffer
	if err := templates.RenderDashboard(&buf, data); err != nil {
		config.ErrorStatus("failed to render dashboard", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// StageFormHandler stages the status picked in a row's selector
func (d Dashboard) StageFormHandler(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}
	status, err := models.ParseStatus(r.FormValue("status"))
	if err != nil {
		zap.S().Warnw("rejected staged status", "id", id, "error", err)
		redirectToDashboard(w, r, flashBadStatus)
		return
	}
	if err := d.View.Stage(id, status); err != nil {
		if errors.Is(err, dashboard.ErrUnknownReport) {
			redirectToDashboard(w, r, flashUnknownReport)
			return
		}
		redirectToDashboard(w, r, flashBadStatus)
		return
	}
	redirectToDashboard(w, r, "")
}

// CommitFormHandler commits a row's staged status. Pressing Update on a row
// with nothing staged does nothing.
func (d Dashboard) CommitFormHandler(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	err = d.View.Commit(r.Context(), id)
	var rf *dashboard.ReadFailure
	switch {
	case err == nil, errors.Is(err, dashboard.ErrNothingStaged):
		redirectToDashboard(w, r, "")
	case errors.As(err, &rf):
		// the update went through, only the reload failed
		redirectToDashboard(w, r, flashRefreshFailed)
	default:
		redirectToDashboard(w, r, flashUpdateFailed)
	}
}

// RefreshFormHandler reloads the report set on the operator's request
func (d Dashboard) RefreshFormHandler(w http.ResponseWriter, r *http.Request) {
	if err := d.View.Load(r.Context()); err != nil {
		redirectToDashboard(w, r, flashRefreshFailed)
		return
	}
	redirectToDashboard(w, r, "")
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request, flash string) {
	target := "/"
	if flash != "" {
		target += "?" + url.Values{"error": {flash}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
