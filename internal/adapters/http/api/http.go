// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/leadgate/internal/domain/collect"
	"github.com/okian/leadgate/internal/domain/dedupe"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/internal/domain/validate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// NextClickID allocates a click id for messenger deep links.
	NextClickID(ctx context.Context) string

	// Assemble builds a lead event from the payload and request metadata.
	Assemble(event string, action model.Action, p collect.Payload, meta collect.RequestMeta) model.LeadEvent

	// Classify returns the validation verdict for an assembled event.
	Classify(ctx context.Context, e model.LeadEvent) validate.Verdict

	// Submit enqueues a genuine event for sheet logging.
	// Returns false on backpressure.
	Submit(ctx context.Context, e model.LeadEvent) bool

	// RegisterPending stores an unconfirmed click keyed by its click id.
	RegisterPending(ctx context.Context, e model.LeadEvent)

	// Confirm promotes the pending click for clickID, or patches the
	// messenger cell of an already written row. Returns ErrUnknownClickID
	// when neither exists.
	Confirm(ctx context.Context, clickID, messenger string) error
}

// Config carries the handler-facing slice of service configuration.
type Config struct {
	TelegramBotUsername string
	WhatsAppNumber      string
	WhatsAppPrefill     string
	CORSOrigins         []string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	eventsHandler *EventsHandler
	clicksHandler *ClicksHandler
	formsHandler  *FormsHandler
	botHandler    *BotHandler
	cors          corsPolicy
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, cfg Config) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		eventsHandler: NewEventsHandler(deps),
		clicksHandler: NewClicksHandler(deps, cfg),
		formsHandler:  NewFormsHandler(deps),
		botHandler:    NewBotHandler(deps),
		cors:          newCORSPolicy(cfg.CORSOrigins),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events/telegram_click", s.cors.wrap(MetricsMiddleware(s.clicksHandler.HandleTelegramClick, "telegram_click")))
	mux.HandleFunc("/events/whatsapp_click", s.cors.wrap(MetricsMiddleware(s.clicksHandler.HandleWhatsAppClick, "whatsapp_click")))
	mux.HandleFunc("/events/form_submit", s.cors.wrap(MetricsMiddleware(s.formsHandler.HandleFormSubmit, "form_submit")))
	mux.HandleFunc("/events", s.cors.wrap(MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events")))
	mux.HandleFunc("/bot/telegram", MetricsMiddleware(s.botHandler.HandleTelegram, "bot_telegram"))
	mux.HandleFunc("/bot/whatsapp", MetricsMiddleware(s.botHandler.HandleWhatsApp, "bot_whatsapp"))
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	collect.Payload
	ActionType string `json:"action_type"`
	TS         string `json:"ts"`
}

func (e eventRequest) validate() error {
	switch {
	case strings.TrimSpace(e.SessionID) == "":
		return errors.New("missing session_id")
	case strings.TrimSpace(e.TS) == "":
		return errors.New("missing ts")
	case !model.Action(e.ActionType).Valid():
		return errors.New("unknown action_type")
	}
	if _, err := time.Parse(time.RFC3339, e.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Logged    bool   `json:"logged"`
	Reason    string `json:"reason,omitempty"`
}

type clickResponse struct {
	Status  string `json:"status"`
	ClickID string `json:"click_id"`
	Link    string `json:"link"`
}

type confirmResponse struct {
	Status  string `json:"status"`
	ClickID string `json:"click_id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// clientIP extracts the originating client address, honoring the usual
// proxy headers before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

// requestMeta derives the request-scoped metadata passed to the collector.
func requestMeta(r *http.Request) collect.RequestMeta {
	return collect.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}
