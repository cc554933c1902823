// Package dashboard holds the report list view: the last synced report set,
// the operator's staged status edits, and the operations that move data
// between them and the remote report table.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/linesmerrill/reportform-dashboard/databases"
	"github.com/linesmerrill/reportform-dashboard/models"
)

var (
	// ErrNothingStaged is returned by Commit when the id has no staged status.
	// No request is sent.
	ErrNothingStaged = errors.New("no staged status for report")
	// ErrUnknownReport is returned by Stage for an id that is not in the synced set
	ErrUnknownReport = errors.New("report not found")
)

// ReadFailure is returned when reading the report table fails
type ReadFailure struct {
	Err error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("failed to fetch reports: %v", e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// WriteFailure is returned when the status update for a report fails
type WriteFailure struct {
	ID     int64
	Status models.Status
	Err    error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("failed to update status of report %d to %s: %v", e.ID, e.Status, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// Page is a consistent snapshot of the view for rendering
type Page struct {
	Loading bool
	Rows    []models.ReportRow
}

// View owns the synced report set and the pending edit map. All mutation goes
// through its methods; the lock is never held across a backend call.
type View struct {
	db  databases.ReportDatabase
	log *zap.SugaredLogger

	mu      sync.Mutex
	reports []models.Report
	pending map[int64]models.Status
	loading bool
	// issued counts loads started, applied is the newest one whose result
	// replaced the report set
	issued  uint64
	applied uint64

	subMu       sync.Mutex
	subscribers []func(Page)
}

// New returns a view in the loading state. Nothing is fetched until Load is called.
func New(db databases.ReportDatabase, log *zap.SugaredLogger) *View {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &View{
		db:      db,
		log:     log,
		pending: make(map[int64]models.Status),
		loading: true,
	}
}

// Subscribe registers fn to receive a snapshot every time a load replaces the report set
func (v *View) Subscribe(fn func(Page)) {
	v.subMu.Lock()
	defer v.subMu.Unlock()
	v.subscribers = append(v.subscribers, fn)
}

// Load reads every row of the report table and replaces the synced set with
// the result. On failure the view keeps its previous state, including the
// loading flag.
//
// When loads overlap, a result older than one already applied is dropped.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.issued++
	gen := v.issued
	v.mu.Unlock()

	reports, err := v.db.ReadAll(ctx)
	if err != nil {
		v.log.Errorw("error fetching reports", "error", err)
		return &ReadFailure{Err: err}
	}

	v.mu.Lock()
	if gen < v.applied {
		v.mu.Unlock()
		v.log.Debugw("dropping stale report load", "generation", gen, "applied", v.applied)
		return nil
	}
	v.applied = gen
	v.replace(reports)
	page := v.page()
	v.mu.Unlock()

	v.notify(page)
	return nil
}

// replace swaps in a freshly read report set. A pending edit survives only
// while its report is still present and has not been modified since the
// edit was staged. Callers hold v.mu.
func (v *View) replace(reports []models.Report) {
	previous := make(map[int64]models.Report, len(v.reports))
	for _, r := range v.reports {
		previous[r.ID] = r
	}
	present := make(map[int64]models.Report, len(reports))
	for _, r := range reports {
		present[r.ID] = r
	}

	for id := range v.pending {
		cur, ok := present[id]
		if !ok {
			delete(v.pending, id)
			continue
		}
		if prev, ok := previous[id]; ok && cur.UpdateAt.After(prev.UpdateAt) {
			v.log.Debugw("discarding staged status for report modified remotely", "id", id)
			delete(v.pending, id)
		}
	}

	v.reports = reports
	v.loading = false
}

// Stage records status as the operator's intended status for report id.
// Nothing is sent to the backend.
func (v *View) Stage(id int64, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.find(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownReport, id)
	}
	v.pending[id] = status
	return nil
}

// Commit sends the staged status for report id to the backend and, once the
// backend accepts it, reloads the report set. A failed update leaves the
// staged status in place so calling Commit again resends the same value.
func (v *View) Commit(ctx context.Context, id int64) error {
	v.mu.Lock()
	status, ok := v.pending[id]
	v.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNothingStaged, id)
	}

	if err := v.db.UpdateStatus(ctx, id, status); err != nil {
		v.log.Errorw("error updating status", "id", id, "status", status, "error", err)
		return &WriteFailure{ID: id, Status: status, Err: err}
	}
	v.log.Infof("Status for report ID %d updated to %s", id, status)

	v.mu.Lock()
	// the operator may have picked another value while the update was in flight
	if v.pending[id] == status {
		delete(v.pending, id)
	}
	v.mu.Unlock()

	return v.Load(ctx)
}

// Page returns a snapshot of the view with each row's effective status resolved
func (v *View) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page()
}

// EffectiveStatus is the staged status for id if there is one, else its synced status
func (v *View) EffectiveStatus(id int64) (models.Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r, ok := v.find(id)
	if !ok {
		return "", false
	}
	if s, staged := v.pending[id]; staged {
		return s, true
	}
	return r.Status, true
}

// Pending returns a copy of the staged edits
func (v *View) Pending() map[int64]models.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[int64]models.Status, len(v.pending))
	for id, s := range v.pending {
		out[id] = s
	}
	return out
}

// Loading reports whether no load has succeeded yet
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *View) page() Page {
	p := Page{Loading: v.loading, Rows: make([]models.ReportRow, 0, len(v.reports))}
	for _, r := range v.reports {
		row := models.ReportRow{Report: r, EffectiveStatus: r.Status}
		if s, ok := v.pending[r.ID]; ok {
			row.EffectiveStatus = s
			row.Staged = true
		}
		row.InReview = row.EffectiveStatus == models.StatusOngoing
		p.Rows = append(p.Rows, row)
	}
	return p
}

func (v *View) find(id int64) (models.Report, bool) {
	for _, r := range v.reports {
		if r.ID == id {
			return r, true
		}
	}
	return models.Report{}, false
}

func (v *View) notify(p Page) {
	v.subMu.Lock()
	subs := make([]func(Page), len(v.subscribers))
	copy(subs, v.subscribers)
	v.subMu.Unlock()
	for _, fn := range subs {
		fn(p)
	}
}
