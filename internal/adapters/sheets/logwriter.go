package sheets

import (
	"context"
	"sync"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
)

// LogWriter implements Writer by logging rows instead of writing them.
// Used when no spreadsheet is configured, which keeps local dev and
// tests runnable without credentials.
type LogWriter struct {
	loc          *time.Location
	totalColumns int
	logger       logger.Logger

	mu   sync.Mutex
	rows map[string]string // clickID -> messenger, mirrors the sheet for updates
}

// NewLogWriter creates a log-only writer.
func NewLogWriter(loc *time.Location, totalColumns int) *LogWriter {
	if loc == nil {
		loc = time.UTC
	}
	if totalColumns <= 0 {
		totalColumns = defaultTotalColumns
	}
	return &LogWriter{
		loc:          loc,
		totalColumns: totalColumns,
		logger:       logger.Get().Named("sheets-log"),
		rows:         make(map[string]string),
	}
}

// Append logs the serialized row at info level.
func (w *LogWriter) Append(ctx context.Context, e model.LeadEvent) error {
	row := BuildRow(e, w.loc, w.totalColumns)

	w.mu.Lock()
	w.rows[e.ClickID] = e.Messenger
	w.mu.Unlock()

	w.logger.Info(ctx, "row logged (no spreadsheet configured)",
		logger.String("clickID", e.ClickID),
		logger.String("event", e.Event),
		logger.Any("row", row),
	)
	return nil
}

// UpdateMessenger patches the in-memory mirror of previously logged rows.
func (w *LogWriter) UpdateMessenger(ctx context.Context, clickID, messenger string) (bool, error) {
	w.mu.Lock()
	_, exists := w.rows[clickID]
	if exists {
		w.rows[clickID] = messenger
	}
	w.mu.Unlock()

	if !exists {
		return false, nil
	}

	w.logger.Info(ctx, "messenger cell updated (no spreadsheet configured)",
		logger.String("clickID", clickID),
		logger.String("messenger", messenger),
	)
	return true, nil
}
