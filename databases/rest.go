package databases

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/linesmerrill/reportform-dashboard/models"
)

// BackendError is the error body PostgREST returns for a rejected request
type BackendError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend returned %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, msg)
}

// timestamp layouts PostgREST emits for timestamptz and timestamp columns
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// restReportRow is a reportform row as PostgREST serialises it; any column may be null
type restReportRow struct {
	ID        int64   `json:"id"`
	File      *string `json:"file"`
	Location  *string `json:"location"`
	DateTime  *string `json:"date_time"`
	Detail    *string `json:"detail"`
	CreatedBy *string `json:"created_by"`
	UpdateAt  *string `json:"update_at"`
	Status    *string `json:"status"`
}

func (r restReportRow) toModel() models.Report {
	return models.Report{
		ID:        r.ID,
		File:      deref(r.File),
		Location:  deref(r.Location),
		DateTime:  parseTimestamp(deref(r.DateTime)),
		Detail:    deref(r.Detail),
		CreatedBy: deref(r.CreatedBy),
		UpdateAt:  parseTimestamp(deref(r.UpdateAt)),
		Status:    models.Status(deref(r.Status)),
	}
}

type restReportDatabase struct {
	baseURL string
	key     string
	table   string
	client  *http.Client
}

// NewRESTReportDatabase returns a report database that talks to a Supabase
// project's PostgREST endpoint. baseURL is the project URL without the
// /rest/v1 suffix; a nil client means http.DefaultClient.
func NewRESTReportDatabase(baseURL, key, table string, client *http.Client) ReportDatabase {
	if client == nil {
		client = http.DefaultClient
	}
	return &restReportDatabase{
		baseURL: baseURL,
		key:     key,
		table:   table,
		client:  client,
	}
}

func (c *restReportDatabase) ReadAll(ctx context.Context) ([]models.Report, error) {
	q := url.Values{}
	q.Set("select", "*")
	req, err := c.newRequest(ctx, http.MethodGet, q, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var rows []restReportRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode %s rows: %w", c.table, err)
	}
	reports := make([]models.Report, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}

func (c *restReportDatabase) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	body, err := json.Marshal(map[string]models.Status{"status": status})
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	req, err := c.newRequest(ctx, http.MethodPatch, q, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

func (c *restReportDatabase) newRequest(ctx context.Context, method string, q url.Values, body io.Reader) (*http.Request, error) {
	u := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, url.PathEscape(c.table), q.Encode())
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	be := &BackendError{StatusCode: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(b) > 0 && json.Unmarshal(b, be) != nil {
		be.Message = string(b)
	}
	return be
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
