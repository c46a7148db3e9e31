// Package intent implements the bridge endpoints the host UI talks to: share
// events, the method channel, the event channel and content index rows.
package intent

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/MahdiBaghbani/shareintake-go/internal/components/api"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/contentref"
	"github.com/MahdiBaghbani/shareintake-go/internal/components/handoff"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/appctx"
	"github.com/MahdiBaghbani/shareintake-go/internal/platform/logutil"
)

// Share actions. Only "send" is ingested; the platform form is accepted too.
const (
	ActionSend         = "send"
	platformActionSend = "android.intent.action.SEND"
)

// ShareRequest is the body of POST /api/shares.
type ShareRequest struct {
	URI    string `json:"uri"`
	Launch bool   `json:"launch"`
	Type   string `json:"type,omitempty"`
	Action string `json:"action,omitempty"`
}

// ShareResponse is returned for every parsed share event. Path is null when
// the ingest produced no file.
type ShareResponse struct {
	EventID string  `json:"eventId"`
	Path    *string `json:"path"`
	Ignored bool    `json:"ignored,omitempty"`
}

// MethodCallRequest is the body of POST /api/channels/intent/init.
type MethodCallRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MethodCallResponse carries the method result; null when there is none.
type MethodCallResponse struct {
	Result *string `json:"result"`
}

// RowRequest is the body of POST /api/index/rows.
type RowRequest struct {
	Collection string `json:"collection"`
	ID         int64  `json:"id"`
	Data       string `json:"data"`
}

// ChannelsResponse describes the bridge channels.
type ChannelsResponse struct {
	MethodChannel string   `json:"methodChannel"`
	EventChannel  string   `json:"eventChannel"`
	Methods       []string `json:"methods"`
}

// Handler serves the bridge endpoints.
type Handler struct {
	intake   *handoff.Intake
	bridge   *handoff.Bridge
	index    contentindex.Index
	settings Settings
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler creates the bridge handler. index may be nil, in which case
// row registration answers 501.
func NewHandler(intake *handoff.Intake, index contentindex.Index, settings Settings, log *slog.Logger) *Handler {
	log = logutil.NoopIfNil(log)
	settings.ApplyDefaults()

	h := &Handler{
		intake:   intake,
		bridge:   intake.Bridge(),
		index:    index,
		settings: settings,
		log:      log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// HandleShare handles POST /api/shares.
// Once the body parses the answer is 200 whether or not a file was produced.
func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !h.decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.URI) == "" {
		api.WriteBadRequest(w, api.ReasonMissingField, "uri is required")
		return
	}
	ref, err := contentref.Parse(req.URI)
	if err != nil {
		api.WriteBadRequest(w, api.ReasonInvalidURI, err.Error())
		return
	}

	eventID := appctx.NewEventID()
	ctx := appctx.WithEventID(r.Context(), eventID)
	log := appctx.GetLogger(ctx)

	if !isSendAction(req.Action) {
		log.Info("ignoring share event with unsupported action", "action", req.Action)
		api.WriteJSON(w, http.StatusOK, ShareResponse{EventID: eventID, Ignored: true})
		return
	}

	origin := handoff.OriginActive
	if req.Launch {
		origin = handoff.OriginLaunch
	}

	ev := h.intake.Handle(ctx, origin, ref)

	resp := ShareResponse{EventID: ev.ID}
	if ev.Result.OK() {
		path := ev.Result.Path
		resp.Path = &path
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// HandleMethodCall handles POST /api/channels/intent/init.
func (h *Handler) HandleMethodCall(w http.ResponseWriter, r *http.Request) {
	var req MethodCallRequest
	if !h.decode(w, r, &req) {
		return
	}

	switch req.Method {
	case "":
		api.WriteBadRequest(w, api.ReasonMissingField, "method is required")
	case handoff.MethodGetSharedFile:
		resp := MethodCallResponse{}
		if path, ok := h.bridge.TakeSharedFile(); ok {
			resp.Result = &path
		}
		api.WriteJSON(w, http.StatusOK, resp)
	default:
		appctx.GetLogger(r.Context()).Debug("unknown method channel call", "method", req.Method)
		api.WriteNotImplemented(w, req.Method)
	}
}

// HandleChannels handles GET /api/channels.
func (h *Handler) HandleChannels(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, ChannelsResponse{
		MethodChannel: handoff.MethodChannel,
		EventChannel:  handoff.EventChannel,
		Methods:       []string{handoff.MethodGetSharedFile},
	})
}

// HandlePutRow handles POST /api/index/rows.
func (h *Handler) HandlePutRow(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		api.WriteError(w, http.StatusNotImplemented, api.ReasonNotImplemented, "no content index configured")
		return
	}

	var req RowRequest
	if !h.decode(w, r, &req) {
		return
	}

	row := contentindex.Row{Collection: req.Collection, ID: req.ID, Data: req.Data}
	if err := h.index.Put(r.Context(), row); err != nil {
		if errors.Is(err, contentindex.ErrInvalidRow) {
			api.WriteBadRequest(w, api.ReasonInvalidField, err.Error())
			return
		}
		appctx.GetLogger(r.Context()).Error("failed to store content index row", "error", err)
		api.WriteInternalError(w, "failed to store row")
		return
	}

	row = row.Normalize()
	api.WriteJSON(w, http.StatusCreated, RowRequest{Collection: row.Collection, ID: row.ID, Data: row.Data})
}

// decode reads a JSON body into v, writing a 400 or 413 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.settings.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.WriteError(w, http.StatusRequestEntityTooLarge, api.ReasonBodyTooLarge, "request body too large")
			return false
		}
		api.WriteBadRequest(w, api.ReasonBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func isSendAction(action string) bool {
	switch {
	case action == "":
		return true
	case strings.EqualFold(action, ActionSend), action == platformActionSend:
		return true
	default:
		return false
	}
}

// checkOrigin accepts requests without an Origin header, loopback origins
// and the configured origins. Hosts are compared exactly, never by prefix.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		switch strings.ToLower(u.Hostname()) {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}

	for _, allowed := range h.settings.AllowedOrigins {
		if sameOrigin(u, allowed) {
			return true
		}
	}
	return false
}

// sameOrigin reports whether u has the scheme and host (with port) of allowed.
func sameOrigin(u *url.URL, allowed string) bool {
	a, err := url.Parse(strings.TrimSpace(allowed))
	if err != nil || a.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, a.Scheme) && strings.EqualFold(u.Host, a.Host)
}
