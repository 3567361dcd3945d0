package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/juparave/gapaudit/internal/domain"
)

// WriteCSV writes rows as UTF-8 comma separated values. The header is always
// written, even for an empty report.
func WriteCSV(w io.Writer, rows []domain.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for i, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
