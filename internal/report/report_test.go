package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/juparave/gapaudit/internal/domain"
	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	findings := []domain.Finding{
		{Area: "Velocity Gaps", Description: "No real-time monitoring", RecommendedFix: domain.FixIncreaseVelocityWeight},
		{Area: "Thresholds", Description: "Static limits", RecommendedFix: domain.FixIncreaseSensitivity},
	}
	entries := []domain.ReviewEntry{
		{FindingIndex: 0, Status: domain.StatusCriticalGap, Notes: "Deploy rule"},
		{FindingIndex: 1, Status: domain.StatusCompliant},
	}

	rows, err := Export(findings, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.ReportRow{
		{Area: "Velocity Gaps", Status: "Critical Gap", Notes: "Deploy rule"},
		{Area: "Thresholds", Status: "Compliant", Notes: ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], rows[i])
		}
	}
}

func TestExportEmpty(t *testing.T) {
	rows, err := Export(nil, nil)
	if err != nil {
		t.Fatalf("empty export should succeed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %+v", rows)
	}
}

func TestExportIndexOutOfRange(t *testing.T) {
	findings := []domain.Finding{{Area: "a"}}
	entries := []domain.ReviewEntry{{FindingIndex: 0}, {FindingIndex: 1}}

	if _, err := Export(findings, entries); !domain.IsKind(err, domain.KindIndexOutOfRange) {
		t.Fatalf("expected IndexOutOfRange, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name string
		rows []domain.ReportRow
		want string
	}{
		{
			name: "single",
			rows: []domain.ReportRow{{Area: "Velocity Gaps", Status: "Critical Gap", Notes: "Deploy rule"}},
			want: "Area,Status,Notes\nVelocity Gaps,Critical Gap,Deploy rule\n",
		},
		{
			name: "empty_has_header",
			rows: nil,
			want: "Area,Status,Notes\n",
		},
		{
			name: "quoting",
			rows: []domain.ReportRow{{Area: "Wires, large", Status: "Partial Gap", Notes: "said \"later\""}},
			want: "Area,Status,Notes\n\"Wires, large\",Partial Gap,\"said \"\"later\"\"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteCSV(&buf, tt.rows); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestWriteXLSX(t *testing.T) {
	rows := []domain.ReportRow{{Area: "Velocity Gaps", Status: "Critical Gap", Notes: "Deploy rule"}}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading workbook: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{Header, {"Velocity Gaps", "Critical Gap", "Deploy rule"}}
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %v", len(want), got)
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestFormatterWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	rpt := &domain.Report{
		Date: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Rows: []domain.ReportRow{{Area: "A", Status: "Compliant"}},
	}

	path, err := NewFormatter(dir).Write(rpt, FormatCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "gap_report_20260304_050607.csv" {
		t.Errorf("unexpected file name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Area,Status,Notes\nA,Compliant,\n" {
		t.Errorf("unexpected content %q", data)
	}

	if _, err := NewFormatter(dir).Write(rpt, "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestToHTML(t *testing.T) {
	f := NewFormatter("")

	rpt := &domain.Report{
		Date:     time.Now(),
		Source:   "notice.pdf",
		Findings: []domain.Finding{{Area: "<script>"}},
		Entries:  []domain.ReviewEntry{{Status: domain.StatusCriticalGap}},
		Rows:     []domain.ReportRow{{Area: "<script>", Status: "Critical Gap"}},
	}
	html := f.ToHTML(rpt)
	if strings.Contains(html, "<script>") {
		t.Error("area must be escaped")
	}
	if !strings.Contains(html, "<strong>1</strong> critical") {
		t.Errorf("missing status counts: %s", html)
	}

	empty := f.ToHTML(&domain.Report{Date: time.Now()})
	if !strings.Contains(empty, "No compliance gaps") {
		t.Errorf("empty report should say so: %s", empty)
	}
}
