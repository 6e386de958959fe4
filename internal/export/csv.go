package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/raine/places-collector/internal/collector"
)

// WriteCSV writes rows to w with a header line.
func WriteCSV(w io.Writer, rows []collector.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(Strings(row)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
