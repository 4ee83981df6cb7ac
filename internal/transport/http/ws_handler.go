package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirepush/internal/core"
	"github.com/vovakirdan/wirepush/internal/proto"
	"github.com/vovakirdan/wirepush/internal/utils"
)

var errMalformedFrame = errors.New("malformed frame")

// WSHandler upgrades HTTP connections and bridges their frames to the router.
type WSHandler struct {
	router          *core.Router
	rooms           *Rooms
	maxMessageBytes int64
	sendBuffer      int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(router *core.Router, rooms *Rooms, maxMessageBytes int64, sendBuffer int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		router:          router,
		rooms:           rooms,
		maxMessageBytes: maxMessageBytes,
		sendBuffer:      sendBuffer,
		log:             logger,
	}
}

// ServeHTTP handles GET /ws/{appId}.
func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	appID := r.PathValue("appId")
	if _, err := h.router.Registry().Lookup(appID); err != nil {
		writeJSON(w, stdhttp.StatusNotFound, ErrorResponse{Error: "app not found", Code: core.ErrCodeAppNotFound})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("app_id", appID).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.maxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := newClient(utils.NewID(), appID, h.sendBuffer, cancel)
	h.rooms.register(cl)
	ref := core.Conn{AppID: appID, ID: cl.id}
	defer func() {
		h.router.Disconnect(ref)
		h.rooms.unregister(cl)
	}()

	cl.deliver(proto.Outbound{Event: core.EventConnectionEstablished, Args: []any{cl.id}})
	h.log.Debug().Str("app_id", appID).Str("conn_id", cl.id).Msg("connection established")

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, ref)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, cl)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	if cl.terminated.Load() {
		conn.Close(websocket.StatusPolicyViolation, "terminated")
		return
	}

	status, reason := closeStatus(err)
	if status != websocket.StatusNormalClosure {
		h.log.Warn().Err(err).Str("conn_id", cl.id).Int("status", int(status)).Msg("ws connection closed with error")
	}
	conn.Close(status, reason)
}

// closeStatus maps the error that ended a connection to the close frame sent
// back to the peer.
func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing"
	case errors.Is(err, errMalformedFrame):
		return websocket.StatusPolicyViolation, closeReason(err)
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, "closing"
	}
	return websocket.StatusInternalError, closeReason(err)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, ref core.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			return fmt.Errorf("%w: binary frames are not supported", errMalformedFrame)
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.log.Warn().Err(err).Str("conn_id", ref.ID).Msg("failed to decode inbound frame")
			return fmt.Errorf("%w: %v", errMalformedFrame, err)
		}
		h.dispatch(ref, inbound)
	}
}

func (h *WSHandler) dispatch(ref core.Conn, inbound proto.Inbound) {
	switch inbound.Event {
	case core.EventSubscribe:
		args := proto.ParseSubscribe(inbound)
		if err := h.router.Subscribe(ref, args.Channel, args.AuthKey, args.Data); err != nil {
			h.log.Debug().Err(err).Str("conn_id", ref.ID).Str("channel", args.Channel).Msg("subscribe refused")
		}
	case core.EventUnsubscribe:
		h.router.Unsubscribe(ref, inbound.String(0))
	case core.EventChannelEvent:
		args := proto.ParseChannelEvent(inbound)
		h.router.Relay(ref, args.Channel, args.Event, args.Data)
	default:
		h.log.Debug().Str("conn_id", ref.ID).Str("event", inbound.Event).Msg("ignoring unknown event")
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, cl *client) error {
	for {
		select {
		case frame := <-cl.send:
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				h.log.Error().Err(err).Str("conn_id", cl.id).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// closeReason fits an error into the 123 byte limit of a close frame.
func closeReason(err error) string {
	const limit = 120
	msg := err.Error()
	if len(msg) > limit {
		msg = msg[:limit]
	}
	return msg
}
