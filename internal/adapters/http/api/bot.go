package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/leadgate/internal/domain/contact"
	"github.com/okian/leadgate/internal/domain/model"
)

// BotHandler handles confirmation webhooks from the messenger bots.
// A bot message referencing an issued click id is the proof that the
// visitor actually opened the chat and wrote in.
type BotHandler struct {
	deps Dependencies
}

// NewBotHandler creates a new bot handler.
func NewBotHandler(deps Dependencies) *BotHandler {
	return &BotHandler{deps: deps}
}

// botRequest mirrors the webhook schema for POST /bot/{telegram,whatsapp}.
type botRequest struct {
	Msg string `json:"msg"`
}

// HandleTelegram handles POST /bot/telegram requests. The Telegram bot
// relays the visitor's "/start <click_id>" message.
func (h *BotHandler) HandleTelegram(w http.ResponseWriter, r *http.Request) {
	const op = "api.bot_telegram"
	h.handleConfirm(w, r, op, model.MessengerTelegram, contact.ParseStart)
}

// HandleWhatsApp handles POST /bot/whatsapp requests. WhatsApp carries no
// start payload, so the click id is extracted from the message text.
func (h *BotHandler) HandleWhatsApp(w http.ResponseWriter, r *http.Request) {
	const op = "api.bot_whatsapp"
	h.handleConfirm(w, r, op, model.MessengerWhatsApp, contact.ExtractClickID)
}

func (h *BotHandler) handleConfirm(w http.ResponseWriter, r *http.Request, op, messenger string, parse func(string) (string, error)) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req botRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	clickID, err := parse(req.Msg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.Confirm(r.Context(), clickID, messenger); err != nil {
		if errors.Is(err, ErrUnknownClickID) {
			writeError(w, http.StatusNotFound, "unknown_click_id", wrapKind(op, ErrUnknownClickID, nil))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{Status: "ok", ClickID: clickID})
}
