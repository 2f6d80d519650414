package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
)

// MemberHandlers serves the dashboard member and outreach endpoints. All
// requests are scoped to a single tenant.
type MemberHandlers struct {
	TenantID string
	Members  *service.MemberService
	Gate     *service.AutosendService
	Outreach *service.OutreachService
	Clock    func() time.Time // Optional: defaults to time.Now
	Logger   *slog.Logger     // Optional
}

// List handles GET /api/members?contact_state=&q=&limit=&offset=.
func (h *MemberHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := ParseLimitOffset(r, defaultMemberListLimit, maxMemberListLimit)
	opts := model.MemberListOptions{
		TenantID: h.TenantID,
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("contact_state"); raw != "" {
		var state model.ContactState
		if err := state.UnmarshalText([]byte(raw)); err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
			return
		}
		opts.ContactState = &state
	}

	members, err := h.Members.List(r.Context(), opts)
	if err != nil {
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "list_failed", Logger: h.logger()})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /api/members/{id}.
func (h *MemberHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	m, err := h.Members.Get(r.Context(), h.TenantID, id)
	if err != nil {
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "get_failed", Logger: h.logger()})
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// UpdateContactState handles PATCH /api/members/{id}/contact-state.
func (h *MemberHandlers) UpdateContactState(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	var req model.UpdateContactStateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	m, err := h.Members.UpdateContactState(r.Context(), h.TenantID, id, req)
	if err != nil {
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "update_failed", Logger: h.logger()})
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// Autosend handles GET /api/members/{id}/autosend and reports whether an
// automated message to the member would be allowed right now.
func (h *MemberHandlers) Autosend(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	now := h.now()
	decision, err := h.Gate.Evaluate(r.Context(), h.TenantID, id, now)
	if err != nil {
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "evaluate_failed", Logger: h.logger()})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"member_id":    id,
		"allowed":      decision.Allowed,
		"reason":       decision.Reason,
		"cooldown":     h.Gate.Cooldown().String(),
		"evaluated_at": now.UTC(),
	})
}

// sendMessageBody is the request body for manual sends.
type sendMessageBody struct {
	Body string `json:"body"`
}

// SendMessage handles POST /api/members/{id}/messages. Manual messages are
// delivered immediately and are not subject to the autosend gate.
func (h *MemberHandlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := memberID(w, r)
	if !ok {
		return
	}
	var body sendMessageBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	msg, err := h.Outreach.SendManual(r.Context(), &model.CreateOutboundMessageRequest{
		TenantID: h.TenantID,
		MemberID: id,
		Body:     body.Body,
	})
	if err != nil {
		if errors.Is(err, service.ErrDeliveryFailed) {
			// The message row is kept as failed with the Slack error.
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "delivery_failed", Err: err})
			return
		}
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "send_failed", Logger: h.logger()})
		return
	}
	WriteJSON(w, http.StatusCreated, msg)
}

// QueueOutbound handles POST /api/outbound, queueing an automated message for
// the next autosend run.
func (h *MemberHandlers) QueueOutbound(w http.ResponseWriter, r *http.Request) {
	var req model.CreateOutboundMessageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.TenantID = h.TenantID
	msg, err := h.Outreach.QueueAuto(r.Context(), &req)
	if err != nil {
		RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "queue_failed", Logger: h.logger()})
		return
	}
	WriteJSON(w, http.StatusAccepted, msg)
}

func memberID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("member id is required")})
		return "", false
	}
	return id, true
}

func (h *MemberHandlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *MemberHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
