package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/slackauth"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
)

// SlackEventHandlers serves the Slack Events API request URL.
type SlackEventHandlers struct {
	Svc    *service.SlackEventService
	Clock  func() time.Time // Optional: defaults to time.Now
	Logger *slog.Logger     // Optional
}

// Events handles POST /api/slack/events.
//
// The raw body is read once and verified before anything parses it. A
// url_verification handshake echoes its challenge. Redeliveries of an event
// that is already stored are acknowledged with 200 so Slack stops retrying.
func (h *SlackEventHandlers) Events(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSlackEventBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "body_too_large", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "read_failed", Err: err})
		return
	}

	res, err := h.Svc.Handle(r.Context(), service.InboundRequest{
		Timestamp: r.Header.Get(slackauth.HeaderTimestamp),
		Signature: r.Header.Get(slackauth.HeaderSignature),
		Body:      body,
		Now:       h.now(),
	})
	if err != nil {
		h.writeEventError(w, r, err)
		return
	}

	switch res.Kind {
	case service.InboundChallenge:
		WriteJSON(w, http.StatusOK, map[string]string{"challenge": res.Challenge})
	case service.InboundDuplicate:
		eventID := ""
		if res.Event != nil {
			eventID = res.Event.EventID
		}
		h.logger().InfoContext(r.Context(), "slack redelivery acknowledged",
			slog.String("event_id", eventID),
			slog.String("retry_num", r.Header.Get(headerSlackRetryNum)),
			slog.String("retry_reason", r.Header.Get(headerSlackRetryReason)))
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "duplicate": true})
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "duplicate": false})
	}
}

func (h *SlackEventHandlers) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	if reason, ok := slackauth.IsVerifyError(err); ok {
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_signature", Err: errors.New(reason)})
		return
	}
	if errors.Is(err, model.ErrUnsupportedPayload) {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "unsupported_payload", Err: err})
		return
	}
	RenderError(ErrorOpts{W: w, R: r, Err: err, FallbackCode: "ingest_failed", Logger: h.logger()})
}

func (h *SlackEventHandlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *SlackEventHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
