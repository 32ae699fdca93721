package loadgen

import "time"

// Config holds configuration for the lead traffic test
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of lead scenarios to generate
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for generated scenarios
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Scenario kinds a generated lead can take.
const (
	KindGenuine        = "genuine"         // outbound-confirmed event via POST /events
	KindFalsePositive  = "false_positive"  // bare button click via POST /events
	KindDuplicate      = "duplicate"       // replay of a prior genuine event
	KindForm           = "form"            // lead form via POST /events/form_submit
	KindClickConfirmed = "click_confirmed" // messenger click followed by bot confirmation
	KindClickAbandoned = "click_abandoned" // messenger click never confirmed
)

// Scenario is one synthetic lead to play against the service.
type Scenario struct {
	Kind      string  `json:"kind"`
	Messenger string  `json:"messenger,omitempty"` // telegram or whatsapp for click kinds
	Request   Payload `json:"request"`
}

// Payload is the wire body for event and click endpoints.
type Payload struct {
	EventID       string     `json:"event_id"`
	SessionID     string     `json:"session_id"`
	ActionType    string     `json:"action_type,omitempty"`
	TS            string     `json:"ts,omitempty"`
	PageCity      string     `json:"page_city"`
	LandingPageID string     `json:"landing_page_id"`
	UTMSource     string     `json:"utm_source"`
	UTMMedium     string     `json:"utm_medium"`
	UTMCampaign   string     `json:"utm_campaign"`
	UTMContent    string     `json:"utm_content,omitempty"`
	UTMTerm       string     `json:"utm_term,omitempty"`
	TimeOnPageMS  int64      `json:"time_on_page_ms"`
	Referrer      string     `json:"referrer,omitempty"`
	Form          *FormInput `json:"form,omitempty"`
}

// FormInput carries the lead-form contact fields.
type FormInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AckResponse represents the response from event submission
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Logged    bool   `json:"logged"`
	Reason    string `json:"reason,omitempty"`
}

// ClickResponse represents the response from a messenger click
type ClickResponse struct {
	Status  string `json:"status"`
	ClickID string `json:"click_id"`
	Link    string `json:"link"`
}

// ConfirmResponse represents the response from a bot confirmation
type ConfirmResponse struct {
	Status  string `json:"status"`
	ClickID string `json:"click_id"`
}

// Stats holds test statistics
type Stats struct {
	ScenariosGenerated int
	ScenariosSubmitted int
	EventsAccepted     int
	EventsRejected     int
	EventsDuplicate    int
	FormsAccepted      int
	ClicksIssued       int
	ClicksConfirmed    int
	ClicksAbandoned    int
	Failed             int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
