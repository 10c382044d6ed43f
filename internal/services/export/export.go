// Package export writes the record collection as downloadable files.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"occurrences/internal/model"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"

	// DateLayout is used for the CSV Date column and the file name.
	DateLayout = "2006-01-02"
)

// CSVHeader is the first line of every CSV export.
var CSVHeader = []string{"ID", "Date", "Comment", "Status", "Category", "Priority", "Latitude", "Longitude"}

// Filename returns occurrences_<date>.<format> for the day of now.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("occurrences_%s.%s", now.Format(DateLayout), format)
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// JSON writes every record, all fields included, as a two-space indented array.
func JSON(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// CSV writes one row per record. Dates are rendered in loc. The comment is
// always quoted with embedded quotes doubled; missing coordinates are empty.
func CSV(w io.Writer, records []model.Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(CSVHeader, ",") + "\n")

	for i := range records {
		r := &records[i]
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt().In(loc).Format(DateLayout),
			quote(r.Comment),
			field(string(r.Status)),
			field(r.Category.Label()),
			field(r.Priority.Label()),
			coordinate(r.Latitude),
			coordinate(r.Longitude),
		}
		bw.WriteString(strings.Join(row, ",") + "\n")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// field quotes s only when it would otherwise break the row.
func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func coordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
