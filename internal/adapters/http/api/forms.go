package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/leadgate/internal/domain/collect"
	"github.com/okian/leadgate/internal/domain/model"
	"github.com/okian/leadgate/pkg/metrics"
)

// FormsHandler handles lead-form submissions. A submitted form is genuine
// follow-through: it is logged to the sheet and forwarded to the CRM.
type FormsHandler struct {
	deps Dependencies
}

// NewFormsHandler creates a new forms handler.
func NewFormsHandler(deps Dependencies) *FormsHandler {
	return &FormsHandler{deps: deps}
}

// HandleFormSubmit handles POST /events/form_submit requests.
func (h *FormsHandler) HandleFormSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.form_submit"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var p collect.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateForm(p.Form); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	metrics.RecordEventReceived(model.EventFormSubmit)

	e := h.deps.Assemble(model.EventFormSubmit, model.ActionOutboundConfirmed, p, requestMeta(r))

	if h.deps.SeenAndRecord(r.Context(), e.EventID) {
		metrics.RecordEventDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	metrics.RecordEventGenuine()

	if ok := h.deps.Submit(r.Context(), e); !ok {
		h.deps.Unrecord(r.Context(), e.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", wrapKind(op, ErrBackpressure, nil))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Logged: true})
}

func validateForm(f *collect.FormInput) error {
	switch {
	case f == nil:
		return errors.New("missing form")
	case strings.TrimSpace(f.Name) == "":
		return errors.New("missing form.name")
	case strings.TrimSpace(f.Phone) == "":
		return errors.New("missing form.phone")
	}
	return nil
}
