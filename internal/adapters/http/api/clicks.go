package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/okian/leadgate/internal/domain/collect"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/metrics"
)

// ClicksHandler handles messenger button clicks. A click allocates an id,
// parks the collected event in the pending registry, and hands the
// browser a deep link carrying the id. Nothing reaches the sheet until
// the bot confirms the visitor actually wrote in.
type ClicksHandler struct {
	deps Dependencies
	cfg  Config
}

// NewClicksHandler creates a new clicks handler.
func NewClicksHandler(deps Dependencies, cfg Config) *ClicksHandler {
	return &ClicksHandler{deps: deps, cfg: cfg}
}

// HandleTelegramClick handles POST /events/telegram_click requests.
func (h *ClicksHandler) HandleTelegramClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.telegram_click"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.cfg.TelegramBotUsername == "" {
		writeError(w, http.StatusInternalServerError, "not_configured", wrapKind(op, ErrNotConfigured, nil))
		return
	}
	h.handleClick(w, r, op, model.EventTelegramClick, model.MessengerTelegram, func(clickID string) string {
		return "https://t.me/" + h.cfg.TelegramBotUsername + "?start=" + clickID
	})
}

// HandleWhatsAppClick handles POST /events/whatsapp_click requests.
func (h *ClicksHandler) HandleWhatsAppClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.whatsapp_click"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if h.cfg.WhatsAppNumber == "" {
		writeError(w, http.StatusInternalServerError, "not_configured", wrapKind(op, ErrNotConfigured, nil))
		return
	}
	h.handleClick(w, r, op, model.EventWhatsAppClick, model.MessengerWhatsApp, func(clickID string) string {
		return "https://wa.me/" + h.cfg.WhatsAppNumber + "?text=" + url.QueryEscape(h.cfg.WhatsAppPrefill+clickID)
	})
}

func (h *ClicksHandler) handleClick(w http.ResponseWriter, r *http.Request, op, event, messenger string, link func(string) string) {
	var p collect.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	metrics.RecordEventReceived(event)

	// A bare click has no follow-through proof yet, so it is held pending
	// rather than logged.
	e := h.deps.Assemble(event, model.ActionButtonClick, p, requestMeta(r))
	e.ClickID = h.deps.NextClickID(r.Context())
	h.deps.RegisterPending(r.Context(), e)

	metrics.RecordClickLinkIssued(messenger)

	writeJSON(w, http.StatusOK, clickResponse{
		Status:  "ok",
		ClickID: e.ClickID,
		Link:    link(e.ClickID),
	})
}
