package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/juparave/gapaudit/internal/domain"
	"github.com/juparave/gapaudit/internal/util"
)

// Formats supported by Render
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Formatter renders gap reports and saves them to disk
type Formatter struct {
	outputDir string
}

// NewFormatter creates a Formatter that saves into outputDir
func NewFormatter(outputDir string) *Formatter {
	return &Formatter{outputDir: outputDir}
}

// Render writes rows in the given format
func Render(w io.Writer, rows []domain.ReportRow, format string) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// ContentType returns the MIME type of a report format
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns gap_report_<timestamp>.<ext> for the report date
func Filename(rpt *domain.Report, format string) string {
	if format == "" {
		format = FormatCSV
	}
	return fmt.Sprintf("gap_report_%s.%s", rpt.Date.Format("20060102_150405"), format)
}

// Write saves the report into the output directory and returns its path
func (f *Formatter) Write(rpt *domain.Report, format string) (string, error) {
	if err := util.EnsureDir(f.outputDir); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, rpt.Rows, format); err != nil {
		return "", err
	}

	path := filepath.Join(f.outputDir, Filename(rpt, format))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, Segoe UI, Helvetica, Arial, sans-serif; color: #222;">
<h2>Regulatory Gap Report</h2>
<p>{{.Source}} &middot; {{.Date.Format "Jan 2, 2006 15:04"}}{{if .Model}} &middot; {{.Model}}{{end}}</p>
{{if .Rows}}
<p><strong>{{.Critical}}</strong> critical, <strong>{{.Partial}}</strong> partial, <strong>{{.Compliant}}</strong> compliant, {{.Planned}} with a remediation plan</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr style="background: #f0f0f0;"><th>Area</th><th>Status</th><th>Notes</th></tr>
{{range .Rows}}<tr><td>{{.Area}}</td><td>{{.Status}}</td><td>{{.Notes}}</td></tr>
{{end}}</table>
{{else}}
<p>No compliance gaps were identified.</p>
{{end}}
</body>
</html>
`))

// ToHTML renders the report as an HTML email body
func (f *Formatter) ToHTML(rpt *domain.Report) string {
	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		*domain.Report
		Critical, Partial, Compliant, Planned int
	}{
		Report:    rpt,
		Critical:  rpt.CriticalCount(),
		Partial:   rpt.CountByStatus(domain.StatusPartialGap),
		Compliant: rpt.CountByStatus(domain.StatusCompliant),
		Planned:   rpt.PlannedCount(),
	})
	if err != nil {
		return fmt.Sprintf("<p>failed to render report: %s</p>", template.HTMLEscapeString(err.Error()))
	}
	return buf.String()
}
