package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ccollicutt/accesslens/pkg/record"
)

var csvHeader = []string{
	"ip_address", "timestamp", "method", "path", "protocol",
	"status_code", "response_size", "referrer", "user_agent", "response_time",
}

// WriteCSV writes entries as CSV with a header row. Absent optional fields
// are empty cells.
func WriteCSV(w io.Writer, entries []*record.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		rt := ""
		if e.ResponseTime != nil && *e.ResponseTime != 0 {
			rt = strconv.FormatFloat(*e.ResponseTime, 'f', -1, 64)
		}
		row := []string{
			e.IPAddress,
			e.Timestamp.ISO(),
			e.Method.String(),
			e.Path,
			e.Protocol,
			strconv.Itoa(e.StatusCode),
			strconv.FormatInt(e.ResponseSize, 10),
			e.Referrer,
			e.UserAgent,
			rt,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes entries to path. Nothing is written when entries is empty.
func SaveCSV(path string, entries []*record.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	f, err := os.Create(path) // #nosec G304 -- user-provided output path is expected
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}

	if err := WriteCSV(f, entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing CSV file: %w", err)
	}
	return f.Close()
}
