package templates

import (
	"html/template"
	"io"
	"time"

	"github.com/linesmerrill/reportform-dashboard/models"
)

// DashboardData is what the dashboard page renders
type DashboardData struct {
	Loading bool
	Rows    []models.ReportRow
	// Flash is an optional message shown above the table
	Flash string
}

// displayTime matches the en-US locale string browsers show for a Date
const displayTime = "1/2/2006, 3:04:05 PM"

var dashboardFuncs = template.FuncMap{
	"localTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(displayTime)
	},
	"statuses": func() []models.Status { return models.Statuses },
}

var dashboard = template.Must(template.New("dashboard").Funcs(dashboardFuncs).Parse(dashboardHTML))

// RenderDashboard writes the report dashboard page
func RenderDashboard(w io.Writer, data DashboardData) error {
	return dashboard.Execute(w, data)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Report Dashboard</title>
  <style>
    .container { padding: 20px; background-color: white; color: black; min-height: 100vh; }
    h2 { text-align: center; margin-bottom: 20px; }
    table { width: 100%; border-collapse: collapse; margin-top: 20px; background: white; }
    th, td { padding: 12px; border: 1px solid #ddd; text-align: left; }
    th { background-color: #f4f4f4; font-weight: bold; }
    .status-yellow { color: #b58900; font-weight: bold; }
    .status-green { color: green; font-weight: bold; }
    .flash { padding: 10px; background: #fdecea; color: #611a15; border-radius: 4px; }
    select { padding: 5px; border-radius: 4px; border: 1px solid #ccc; cursor: pointer; }
    button { padding: 6px 12px; background-color: #007bff; color: white; border: none; border-radius: 4px; cursor: pointer; transition: 0.3s; }
    button:hover { background-color: #0056b3; }
    form { display: inline; margin: 0; }
  </style>
</head>
<body>
<div class="container">
  <h2>Report Dashboard</h2>
  {{- if .Flash}}
  <p class="flash" role="alert">{{.Flash}}</p>
  {{- end}}
  {{- if .Loading}}
  <p>Loading...</p>
  {{- else}}
  <form method="post" action="/refresh"><button type="submit">Refresh</button></form>
  <table>
    <thead>
      <tr>
        <th>ID</th>
        <th>File</th>
        <th>Location</th>
        <th>Date &amp; Time</th>
        <th>Detail</th>
        <th>Created By</th>
        <th>Updated At</th>
        <th>Status</th>
        <th>Action</th>
      </tr>
    </thead>
    <tbody>
      {{- range .Rows}}
      {{- $row := .}}
      <tr id="report-{{.ID}}">
        <td>{{.ID}}</td>
        <td><a href="{{.File}}" target="_blank" rel="noopener noreferrer">View File</a></td>
        <td>{{.Location}}</td>
        <td>{{localTime .DateTime}}</td>
        <td>{{.Detail}}</td>
        <td>{{.CreatedBy}}</td>
        <td>{{localTime .UpdateAt}}</td>
        <td class="{{if .InReview}}status-yellow{{else}}status-green{{end}}">
          <form method="post" action="/reports/{{.ID}}/stage">
            <select name="status" onchange="this.form.submit()">
              {{- range statuses}}
              <option value="{{.}}"{{if eq . $row.EffectiveStatus}} selected{{end}}>{{.Label}}</option>
              {{- end}}
            </select>
          </form>
        </td>
        <td>
          <form method="post" action="/reports/{{.ID}}/commit"><button type="submit">Update</button></form>
        </td>
      </tr>
      {{- end}}
    </tbody>
  </table>
  {{- end}}
</div>
<script>
  (function () {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function () { location.reload(); };
  })();
</script>
</body>
</html>
`
