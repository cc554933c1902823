package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/reportform-dashboard/api"
	"github.com/linesmerrill/reportform-dashboard/config"
	"github.com/linesmerrill/reportform-dashboard/dashboard"
	"github.com/linesmerrill/reportform-dashboard/databases"
	"github.com/linesmerrill/reportform-dashboard/logging"
	"github.com/linesmerrill/reportform-dashboard/models"
)

// EventReportsSynced is broadcast over /ws whenever the report set is replaced
const EventReportsSynced = "reports_synced"

// App stores the router, the report view and its backend so they can be reused
type App struct {
	Router *mux.Router
	Config config.Config
	DB     databases.ReportDatabase
	View   *dashboard.View
	Hub    *Hub

	closers []func(context.Context) error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	var operator *api.OperatorAuth
	if a.Config.AuthEnabled() {
		operator = api.NewOperatorAuth(a.Config.OperatorEmail, a.Config.OperatorPasswordHash)
	}
	timeout := api.TimeoutMiddleware(a.Config.RequestTimeout)
	protect := func(h http.HandlerFunc) http.Handler {
		return operator.Middleware(timeout(h))
	}

	d := Dashboard{View: a.View}
	re := Report{View: a.View}

	r := mux.NewRouter()
	r.Use(api.RequestLogger)

	// healthchex
	r.HandleFunc("/health", a.healthCheckHandler).Methods("GET")

	r.Handle("/", protect(d.DashboardHandler)).Methods("GET")
	r.Handle("/refresh", protect(d.RefreshFormHandler)).Methods("POST")
	r.Handle("/reports/{report_id:[0-9]+}/stage", protect(d.StageFormHandler)).Methods("POST")
	r.Handle("/reports/{report_id:[0-9]+}/commit", protect(d.CommitFormHandler)).Methods("POST")
	r.Handle("/ws", operator.Middleware(http.HandlerFunc(a.Hub.HandleWebSocket))).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/reports", protect(re.ReportsHandler)).Methods("GET")
	apiCreate.Handle("/reports/refresh", protect(re.RefreshHandler)).Methods("POST")
	apiCreate.Handle("/reports/pending", protect(re.PendingHandler)).Methods("GET")
	apiCreate.Handle("/reports/{report_id:[0-9]+}/stage", protect(re.StageHandler)).Methods("PUT")
	apiCreate.Handle("/reports/{report_id:[0-9]+}/commit", protect(re.CommitHandler)).Methods("POST")

	return r
}

// Initialize connects to the configured backend and wires the view, the
// websocket hub and the router together
func (a *App) Initialize(ctx context.Context) error {
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := a.openReportDatabase(ctx)
	if err != nil {
		// if we fail to reach the backend, then kill the pod
		zap.S().With(err).Error("failed to open report backend")
		return err
	}
	a.DB = db
	a.View = dashboard.New(db, logging.New("dashboard"))
	a.Hub = NewHub()
	a.View.Subscribe(func(p dashboard.Page) {
		a.Hub.Broadcast(EventReportsSynced, reportsResponse(p))
	})

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close releases the backend connection and disconnects dashboards
func (a *App) Close(ctx context.Context) error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func (a *App) openReportDatabase(ctx context.Context) (databases.ReportDatabase, error) {
	conf := &a.Config
	switch conf.Backend {
	case config.BackendSupabase:
		logAPIKey(conf.SupabaseKey)
		client := &http.Client{Timeout: conf.QueryTimeout}
		zap.S().Infow("using supabase report backend", "url", conf.SupabaseURL, "table", conf.ReportTable)
		return databases.NewRESTReportDatabase(conf.SupabaseURL, conf.SupabaseKey, conf.ReportTable, client), nil

	case config.BackendPostgres:
		db, err := databases.OpenPostgres(conf.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := api.WithQueryTimeout(ctx, conf.QueryTimeout)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })
		zap.S().Infow("using postgres report backend", "table", conf.ReportTable)
		return databases.NewPostgresReportDatabase(db, conf.ReportTable), nil

	case config.BackendMongo:
		client, err := databases.NewClient(conf)
		if err != nil {
			return nil, fmt.Errorf("failed to create new client: %w", err)
		}
		connectCtx, cancel := api.WithQueryTimeout(ctx, conf.QueryTimeout)
		defer cancel()
		if err := client.Connect(connectCtx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)
		zap.S().Infow("using mongo report backend", "database", conf.DatabaseName, "collection", conf.ReportTable)
		return databases.NewMongoReportDatabase(databases.NewDatabase(conf, client), conf.ReportTable), nil
	}
	return nil, fmt.Errorf("unknown backend %q", conf.Backend)
}

// logAPIKey reports what the supabase key will be allowed to do, as far as
// its own claims tell
func logAPIKey(key string) {
	info, err := databases.InspectAPIKey(key)
	if err != nil {
		zap.S().Debugw("could not inspect supabase key", "error", err)
		return
	}
	if info.Expired(time.Now()) {
		zap.S().Warnw("supabase key has expired", "expiredAt", info.ExpiresAt)
	}
	if info.Role == "anon" {
		zap.S().Warnw("supabase key has the anon role, status updates depend on row level security policies")
		return
	}
	zap.S().Infow("supabase key inspected", "role", info.Role)
}

func (a *App) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthCheckResponse{
		Alive:   true,
		Backend: a.Config.Backend,
	}
	if a.View != nil {
		resp.Loading = a.View.Loading()
	}
	writeJSON(w, http.StatusOK, resp)
}
