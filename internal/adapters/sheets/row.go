package sheets

import (
	"strconv"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
)

// Row layout constants. The sheet is a fixed 15-column grid, A through O.
const (
	timestampLayout = "02.01.2006 15:04:05"

	colClickID = 1 // A
	// columns B..N are positional, see BuildRow
	colMessenger = 15 // O
)

// BuildRow serializes a lead event into the sheet's column order:
// click id, timestamp, event, page city, the five UTM parameters,
// time on page, IP, geo city, user agent, referrer, messenger.
// The row is padded or truncated to totalColumns.
func BuildRow(e model.LeadEvent, loc *time.Location, totalColumns int) []interface{} {
	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	if loc != nil {
		ts = ts.In(loc)
	}

	row := []interface{}{
		e.ClickID,
		ts.Format(timestampLayout),
		e.Event,
		e.PageCity,
		e.UTM.Source,
		e.UTM.Medium,
		e.UTM.Campaign,
		e.UTM.Content,
		e.UTM.Term,
		strconv.FormatInt(e.DwellTimeMS, 10),
		e.IP,
		e.GeoCity,
		e.UserAgent,
		e.Referrer,
		e.Messenger,
	}

	return padRow(row, totalColumns)
}

// padRow pads row with empty strings up to n columns, or truncates it.
// n <= 0 leaves the row as is.
func padRow(row []interface{}, n int) []interface{} {
	if n <= 0 {
		return row
	}
	if len(row) > n {
		return row[:n]
	}
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

// colLetter converts a 1-based column index to its A1-notation letter,
// e.g. 1 -> A, 15 -> O, 27 -> AA.
func colLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}
