// Package collect assembles lead events from client-supplied payloads
// and request-derived metadata.
//
// Collection is best effort: missing marketing fields stay empty and
// never invalidate an event. Validation happens elsewhere.
package collect

import (
	"time"

	"github.com/google/uuid"

	"github.com/okian/leadgate/internal/domain/model"
)

// Payload is the client-supplied slice of a lead event.
type Payload struct {
	EventID       string     `json:"event_id"`
	SessionID     string     `json:"session_id"`
	PageCity      string     `json:"page_city"`
	LandingPageID string     `json:"landing_page_id"`
	UTMSource     string     `json:"utm_source"`
	UTMMedium     string     `json:"utm_medium"`
	UTMCampaign   string     `json:"utm_campaign"`
	UTMContent    string     `json:"utm_content"`
	UTMTerm       string     `json:"utm_term"`
	TimeOnPageMS  int64      `json:"time_on_page_ms"`
	Referrer      string     `json:"referrer"`
	Form          *FormInput `json:"form,omitempty"`
}

// FormInput carries the lead-form contact fields of a payload.
type FormInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RequestMeta is the slice of a lead event derived from the HTTP request
// rather than its body.
type RequestMeta struct {
	IP        string
	UserAgent string
	Referrer  string
}

// CityResolver maps an IP to a city name; empty means unknown.
type CityResolver interface {
	City(ip string) string
}

// Collector turns payloads into lead events.
type Collector struct {
	geo CityResolver
}

// New creates a collector with the given geo resolver.
func New(geo CityResolver) *Collector {
	return &Collector{geo: geo}
}

// Assemble builds a lead event of kind event/action from p and meta.
// It always succeeds: absent fields stay empty and an absent event id
// is generated so the event remains idempotency-tracked.
func (c *Collector) Assemble(event string, action model.Action, p Payload, meta RequestMeta) model.LeadEvent {
	e := model.LeadEvent{
		EventID:       p.EventID,
		SessionID:     p.SessionID,
		Event:         event,
		Action:        action,
		PageCity:      p.PageCity,
		LandingPageID: p.LandingPageID,
		UTM: model.UTM{
			Source:   p.UTMSource,
			Medium:   p.UTMMedium,
			Campaign: p.UTMCampaign,
			Content:  p.UTMContent,
			Term:     p.UTMTerm,
		},
		DwellTimeMS: p.TimeOnPageMS,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		Referrer:    p.Referrer,
		OccurredAt:  time.Now(),
	}

	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}

	// The body's referrer wins; the header is a fallback.
	if e.Referrer == "" {
		e.Referrer = meta.Referrer
	}

	if p.Form != nil {
		e.Form = &model.Form{Name: p.Form.Name, Phone: p.Form.Phone}
	}

	if c.geo != nil && meta.IP != "" {
		e.GeoCity = c.geo.City(meta.IP)
	}

	return e
}
