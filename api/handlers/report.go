package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/reportform-dashboard/config"
	"github.com/linesmerrill/reportform-dashboard/dashboard"
	"github.com/linesmerrill/reportform-dashboard/models"
)

// Report handles the JSON report endpoints
type Report struct {
	View *dashboard.View
}

// ReportsHandler returns the current report set with effective statuses
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, reportsResponse(re.View.Page()))
}

// RefreshHandler reloads the report set from the backend
func (re Report) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := re.View.Load(r.Context()); err != nil {
		config.ErrorStatus("failed to fetch reports", backendStatus(err), w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportsResponse(re.View.Page()))
}

// PendingHandler returns the staged, uncommitted statuses keyed by report id
func (re Report) PendingHandler(w http.ResponseWriter, r *http.Request) {
	pending := re.View.Pending()
	out := make(map[string]models.Status, len(pending))
	for id, s := range pending {
		out[strconv.FormatInt(id, 10)] = s
	}
	writeJSON(w, http.StatusOK, out)
}

// StageHandler stages a status for a report without sending it to the backend
func (re Report) StageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	var req models.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		config.ErrorStatus("failed to parse status", http.StatusBadRequest, w, err)
		return
	}

	if err := re.View.Stage(id, status); err != nil {
		if errors.Is(err, dashboard.ErrUnknownReport) {
			config.ErrorStatus("failed to stage status", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to stage status", http.StatusBadRequest, w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("status %s staged for report %d", status, id),
	})
}

// CommitHandler sends the staged status of a report to the backend and
// returns the reloaded report set
func (re Report) CommitHandler(w http.ResponseWriter, r *http.Request) {
	id, err := reportID(r)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	err = re.View.Commit(r.Context(), id)
	var rf *dashboard.ReadFailure
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, reportsResponse(re.View.Page()))
	case errors.Is(err, dashboard.ErrNothingStaged):
		config.ErrorStatus("nothing to commit", http.StatusConflict, w, err)
	case errors.As(err, &rf):
		config.ErrorStatus("status updated but failed to fetch reports", backendStatus(err), w, err)
	default:
		config.ErrorStatus("failed to update status", backendStatus(err), w, err)
	}
}

func reportID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["report_id"], 10, 64)
}

func reportsResponse(p dashboard.Page) models.ReportsResponse {
	return models.ReportsResponse{Loading: p.Loading, Reports: p.Rows}
}

// backendStatus maps a failed backend call to the status reported upstream
func backendStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
