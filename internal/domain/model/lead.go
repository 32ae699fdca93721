// Package model contains domain models passed between layers.
package model

import "time"

// Action classifies the kind of follow-through a lead event represents.
type Action string

// Actions recognized by the validator.
const (
	// ActionButtonClick is a bare messenger/button press with no proof the
	// visitor ever followed through.
	ActionButtonClick Action = "button_click"

	// ActionOutboundConfirmed carries an outbound-confirmation signal: a bot
	// contact referencing an issued click id, or a submitted lead form.
	ActionOutboundConfirmed Action = "outbound_confirmed"
)

// Valid reports whether a is a recognized action.
func (a Action) Valid() bool {
	return a == ActionButtonClick || a == ActionOutboundConfirmed
}

// Source event names used in the sheet's event column.
const (
	EventTelegramClick = "telegram_click"
	EventWhatsAppClick = "whatsapp_click"
	EventFormSubmit    = "form_submit"
	EventLead          = "lead"
)

// Messenger identifiers written to the sheet's messenger column.
const (
	MessengerTelegram = "telegram"
	MessengerWhatsApp = "whatsapp"
)

// UTM carries the marketing attribution parameters. Missing fields stay
// empty; they never invalidate an event.
type UTM struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Content  string `json:"content"`
	Term     string `json:"term"`
}

// Form holds the lead-form contact fields.
type Form struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LeadEvent is the write-once fact this service produces. It is assembled by
// the metadata collector and, once validated as genuine, appended to the
// external spreadsheet which is the system of record.
type LeadEvent struct {
	EventID       string    // idempotency key (client supplied or derived)
	ClickID       string    // row id in the sheet, column A
	SessionID     string    // visitor session identifier
	Event         string    // source event name, e.g. telegram_click
	Action        Action    // validator input
	PageCity      string    // landing page city variant
	LandingPageID string    // landing page identifier
	UTM           UTM       // marketing attribution
	DwellTimeMS   int64     // time on page in milliseconds
	IP            string    // client IP as seen at ingress
	GeoCity       string    // GeoIP-resolved city, empty when disabled
	UserAgent     string    // client user agent
	Referrer      string    // document referrer
	Messenger     string    // set on outbound confirmation
	Form          *Form     // present for form submissions only
	OccurredAt    time.Time // event timestamp
}

// Confirmed returns a copy promoted to a genuine conversion via messenger.
func (e LeadEvent) Confirmed(messenger string) LeadEvent {
	e.Action = ActionOutboundConfirmed
	e.Messenger = messenger
	return e
}
