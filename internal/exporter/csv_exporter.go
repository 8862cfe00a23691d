package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"companion/internal/tags"
)

// SchemaVersion identifies the CSV export format version.
// Increment when adding new columns or changing the format.
const SchemaVersion = "1"

var csvColumns = []string{
	"schemaVersion",
	"kind",
	"appid",
	"name",
	"playtimeForever",
	"imgIconUrl",
	"taggedAt",
}

// CSVExporter writes tagged games to CSV format.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes tag records to the given writer in CSV format.
func (e *CSVExporter) Export(w io.Writer, records []tags.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(e.recordToRow(record)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}

// recordToRow converts a tag record to a CSV row following the column order.
func (e *CSVExporter) recordToRow(record tags.Record) []string {
	row := make([]string, len(csvColumns))

	row[0] = SchemaVersion
	row[1] = string(record.Kind)
	row[2] = strconv.FormatInt(record.AppID, 10)
	row[3] = record.Name
	row[4] = strconv.FormatInt(record.PlaytimeForever, 10)
	row[5] = record.ImgIconURL
	row[6] = formatTime(record.CreatedAt)

	return row
}

// formatTime formats a time to RFC3339 string.
func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
