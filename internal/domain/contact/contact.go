// Package contact parses bot confirmation messages into click ids.
package contact

import (
	"errors"
	"regexp"
	"strings"
)

// Sentinel kinds for confirmation parsing errors.
var (
	ErrBadStartPayload = errors.New("bad payload: expected '/start <id>'")
	ErrEmptyPayload    = errors.New("empty payload")
	ErrNoClickID       = errors.New("click_id not found in text")
)

// Counter-issued ids are integers starting at 1000, so a click id is a run
// of 4 to 7 digits. Prefill text places the id last, so the LAST match wins.
var clickIDRe = regexp.MustCompile(`\b(\d{4,7})\b`)

// ParseStart extracts the click id from a Telegram deep-link start command
// of the form "/start <id>".
func ParseStart(msg string) (string, error) {
	parts := strings.Fields(msg)
	if len(parts) < 2 {
		return "", ErrBadStartPayload
	}
	return parts[1], nil
}

// ExtractClickID finds the click id inside free WhatsApp text. Returns the
// last integer of 4-7 digits, since the id is appended to the prefill.
func ExtractClickID(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyPayload
	}
	ids := clickIDRe.FindAllString(text, -1)
	if len(ids) == 0 {
		return "", ErrNoClickID
	}
	return ids[len(ids)-1], nil
}
