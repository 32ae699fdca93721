// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/metrics"
)

// EventsHandler handles generic lead-event ingestion.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
//
// Flow: decode → validate shape → dedupe → assemble → classify. A false
// positive is acknowledged but never logged; a genuine event is enqueued
// for the sheet, and the dedupe entry is rolled back on backpressure.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	metrics.RecordEventReceived(model.EventLead)

	e := h.deps.Assemble(model.EventLead, model.Action(req.ActionType), req.Payload, requestMeta(r))
	if ts, err := time.Parse(time.RFC3339, req.TS); err == nil {
		e.OccurredAt = ts
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), e.EventID) {
		metrics.RecordEventDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	verdict := h.deps.Classify(r.Context(), e)
	if !verdict.Genuine {
		// Acknowledged but never logged; the dedupe entry stays so a
		// replayed false positive is still recognized.
		metrics.RecordEventRejected()
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "rejected", Logged: false, Reason: verdict.Reason})
		return
	}

	metrics.RecordEventGenuine()

	if ok := h.deps.Submit(r.Context(), e); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), e.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, nil))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Logged: true})
}
