package report

import (
	"fmt"

	"github.com/juparave/gapaudit/internal/domain"
)

// Header is the column order shared by every report format
var Header = []string{"Area", "Status", "Notes"}

// Export flattens findings and their review entries into report rows, one row
// per entry in entry order. An entry pointing past the findings fails the
// whole export.
func Export(findings []domain.Finding, entries []domain.ReviewEntry) ([]domain.ReportRow, error) {
	rows := make([]domain.ReportRow, 0, len(entries))
	for _, e := range entries {
		if e.FindingIndex < 0 || e.FindingIndex >= len(findings) {
			return nil, domain.NewError(domain.KindIndexOutOfRange,
				fmt.Sprintf("entry references finding %d but only %d exist", e.FindingIndex, len(findings)), nil)
		}
		rows = append(rows, domain.ReportRow{
			Area:   findings[e.FindingIndex].Area,
			Status: e.Status.Label(),
			Notes:  e.Notes,
		})
	}
	return rows, nil
}

func record(r domain.ReportRow) []string {
	return []string{r.Area, r.Status, r.Notes}
}
