package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/reportform-dashboard/models"
)

// Backend names accepted in BACKEND
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// DefaultReportTable is the table the dashboard reads and updates
const DefaultReportTable = "reportform"

// Config holds the project config values
type Config struct {
	Env     string
	BaseURL string
	Port    string

	Backend     string
	ReportTable string

	// supabase
	SupabaseURL string
	SupabaseKey string

	// postgres
	DatabaseURL string

	// mongo
	URL          string
	DatabaseName string

	OperatorEmail        string
	OperatorPasswordHash string

	RefreshSchedule string
	RequestTimeout  time.Duration
	QueryTimeout    time.Duration
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	env := getEnv("ENV", "production")
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		Env:                  env,
		BaseURL:              os.Getenv("BASE_URL"),
		Port:                 getEnv("PORT", "8080"),
		Backend:              strings.ToLower(getEnv("BACKEND", BackendSupabase)),
		ReportTable:          getEnv("REPORT_TABLE", DefaultReportTable),
		SupabaseURL:          strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey:          os.Getenv("SUPABASE_KEY"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		URL:                  os.Getenv("DB_URI"),
		DatabaseName:         os.Getenv("DB_NAME"),
		OperatorEmail:        os.Getenv("OPERATOR_EMAIL"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		RefreshSchedule:      os.Getenv("REFRESH_SCHEDULE"),
		RequestTimeout:       getDuration("REQUEST_TIMEOUT", 30*time.Second),
		QueryTimeout:         getDuration("QUERY_TIMEOUT", 10*time.Second),
	}
}

// Validate checks that the selected backend has what it needs to connect
func (c *Config) Validate() error {
	if c.ReportTable == "" {
		return fmt.Errorf("report table name is empty")
	}
	switch c.Backend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the %s backend", c.Backend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", c.Backend)
		}
	case BackendMongo:
		if c.URL == "" || c.DatabaseName == "" {
			return fmt.Errorf("DB_URI and DB_NAME are required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if (c.OperatorEmail == "") != (c.OperatorPasswordHash == "") {
		return fmt.Errorf("OPERATOR_EMAIL and OPERATOR_PASSWORD_HASH must be set together")
	}
	return nil
}

// AuthEnabled reports whether operator credentials were configured
func (c *Config) AuthEnabled() bool {
	return c.OperatorEmail != "" && c.OperatorPasswordHash != ""
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	resp := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		resp.Response.Error = err.Error()
	}
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		zap.S().Warnw("ignoring invalid duration", "key", key, "value", v)
		return fallback
	}
	return d
}
