package parser

import (
	"context"
	"errors"
	"io"

	"github.com/ccollicutt/accesslens/pkg/record"
)

// EntrySource provides an iterator over parsed log entries.
// Implementations must be safe for sequential access (not concurrent).
type EntrySource interface {
	// Next returns the next parsed entry.
	// Returns io.EOF when no more entries are available.
	Next(ctx context.Context) (*record.LogEntry, error)

	// Close releases any resources held by the source.
	Close() error
}

// Collect drains src into a slice. The source is not closed.
func Collect(ctx context.Context, src EntrySource) ([]*record.LogEntry, error) {
	var entries []*record.LogEntry
	for {
		entry, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
}
