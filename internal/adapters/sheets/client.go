package sheets

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/logger"
	"github.com/okian/leadgate/pkg/metrics"
	"github.com/okian/leadgate/pkg/retry"
)

// Default client configuration constants.
const (
	defaultSheetName    = "Leads"
	defaultTotalColumns = 15
)

// Client implements Writer against the Google Sheets API.
type Client struct {
	svc             *sheetsapi.Service
	spreadsheetID   string
	sheetName       string
	credentialsFile string
	totalColumns    int
	loc             *time.Location
	retryCfg        retry.Config
	logger          logger.Logger
}

// NewClient creates a Sheets API client for the given spreadsheet.
func NewClient(ctx context.Context, spreadsheetID string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		spreadsheetID: spreadsheetID,
		sheetName:     defaultSheetName,
		totalColumns:  defaultTotalColumns,
		loc:           time.UTC,
		retryCfg:      retry.DefaultConfig(),
		logger:        logger.Get().Named("sheets"),
	}

	for _, opt := range opts {
		opt(c)
	}

	var apiOpts []option.ClientOption
	if c.credentialsFile != "" {
		apiOpts = append(apiOpts, option.WithCredentialsFile(c.credentialsFile))
	}
	apiOpts = append(apiOpts, option.WithScopes(sheetsapi.SpreadsheetsScope))

	svc, err := sheetsapi.NewService(ctx, apiOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	c.svc = svc

	return c, nil
}

// Append adds one row for e at the bottom of the sheet. Each attempt that
// fails is retried with exponential backoff before giving up.
func (c *Client) Append(ctx context.Context, e model.LeadEvent) error {
	row := BuildRow(e, c.loc, c.totalColumns)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{row}}
	rng := fmt.Sprintf("%s!A1", c.sheetName)

	err := retry.DoWithNotify(ctx, c.retryCfg, func() error {
		_, err := c.svc.Spreadsheets.Values.
			Append(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return err
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RecordSheetAppendRetry()
		c.logger.Warn(ctx, "sheet append attempt failed",
			logger.Int("attempt", attempt),
			logger.String("clickID", e.ClickID),
			logger.String("next_delay", nextDelay.String()),
			logger.Error(err),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to append row for click %s: %w", e.ClickID, err)
	}

	c.logger.Debug(ctx, "row appended",
		logger.String("clickID", e.ClickID),
		logger.String("event", e.Event),
	)
	return nil
}

// UpdateMessenger sets the messenger column of the row whose click id
// matches clickID. The click-id column is scanned top to bottom; the
// first match wins.
func (c *Client) UpdateMessenger(ctx context.Context, clickID, messenger string) (bool, error) {
	rowIndex, err := c.findRowByClickID(ctx, clickID)
	if err != nil {
		return false, err
	}
	if rowIndex == 0 {
		return false, nil
	}

	rng := fmt.Sprintf("%s!%s%d", c.sheetName, colLetter(colMessenger), rowIndex)
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{{messenger}}}

	err = retry.Do(ctx, c.retryCfg, func() error {
		_, err := c.svc.Spreadsheets.Values.
			Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		metrics.RecordSheetUpdateError()
		return false, fmt.Errorf("failed to update messenger cell for click %s: %w", clickID, err)
	}

	metrics.RecordSheetUpdate()
	return true, nil
}

// findRowByClickID returns the 1-based row index holding clickID in the
// click-id column, or 0 when absent.
func (c *Client) findRowByClickID(ctx context.Context, clickID string) (int, error) {
	col := colLetter(colClickID)
	rng := fmt.Sprintf("%s!%s:%s", c.sheetName, col, col)

	var resp *sheetsapi.ValueRange
	err := retry.Do(ctx, c.retryCfg, func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.
			Get(c.spreadsheetID, rng).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read click-id column: %w", err)
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v, ok := row[0].(string); ok && v == clickID {
			return i + 1, nil
		}
	}
	return 0, nil
}
