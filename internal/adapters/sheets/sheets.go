// Package sheets writes lead event rows to the external spreadsheet,
// which is the system of record for marketing analytics.
package sheets

import (
	"context"

	"github.com/okian/leadgate/internal/domain/model"
)

// Writer appends genuine lead events as rows and patches the messenger
// column of previously written rows.
type Writer interface {
	// Append adds one row for e at the bottom of the sheet.
	Append(ctx context.Context, e model.LeadEvent) error

	// UpdateMessenger sets the messenger column of the row whose click id
	// matches clickID. Returns false if no such row exists.
	UpdateMessenger(ctx context.Context, clickID, messenger string) (bool, error)
}
