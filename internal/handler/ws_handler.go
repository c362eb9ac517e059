package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lumastream/chat-gateway/internal/config"
	"github.com/lumastream/chat-gateway/internal/domain"
	"github.com/lumastream/chat-gateway/internal/hub"
	"github.com/lumastream/chat-gateway/internal/service"
	"github.com/lumastream/chat-gateway/internal/telemetry"
	"github.com/lumastream/chat-gateway/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub     *hub.Hub
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	bearer := bearerFromRequest(r)
	remoteAddr := r.RemoteAddr

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)

	h.hub.Register(client)
	telemetry.GaugeAdd(telemetry.ConnectionsOpen, 1)

	// Identity is resolved before any inbound frame is read; the auth ack is
	// queued ahead of everything else the client will receive.
	h.service.HandleConnect(context.Background(), client, bearer, remoteAddr)

	go client.WritePump()
	go client.ReadPump(h.handleFrame, h.handleClose)
}

// bearerFromRequest extracts the optional credential from the upgrade
// request: Authorization header first, token query parameter as fallback.
func bearerFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	return r.URL.Query().Get("token")
}

func (h *WSHandler) handleFrame(client *hub.Client, message []byte) {
	ctx := context.Background()
	l := log.L()

	var frame domain.Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		h.sendError(client, "invalid frame")
		return
	}

	switch frame.Event {
	case domain.EventJoin:
		var payload domain.JoinPayload
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.ChannelID == "" {
			h.sendError(client, "invalid join payload")
			return
		}
		if err := h.service.HandleJoin(ctx, client, payload.ChannelID); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("join failed")
		}

	case domain.EventChat:
		var content string
		if err := json.Unmarshal(frame.Data, &content); err != nil {
			h.sendError(client, "invalid chat payload")
			return
		}
		if err := h.service.HandlePublish(ctx, client, content); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("publish failed")
		}

	case domain.EventLeave:
		if err := h.service.HandleLeave(ctx, client); err != nil {
			l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("leave failed")
		}

	case domain.EventPing:
		if pong, err := domain.EncodeFrame(domain.EventPong, nil); err == nil {
			client.SendFrame(pong)
		}

	default:
		h.sendError(client, "unknown event")
	}
}

func (h *WSHandler) handleClose(client *hub.Client) {
	telemetry.GaugeAdd(telemetry.ConnectionsOpen, -1)
	if err := h.service.HandleDisconnect(context.Background(), client); err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldClientID, client.ID).Msg("disconnect cleanup failed")
	}
}

// sendError reports a malformed frame back to its sender. The frame is
// dropped, the connection stays alive.
func (h *WSHandler) sendError(client *hub.Client, message string) {
	if frame, err := domain.NewErrorFrame(domain.ErrCodeBadRequest, message); err == nil {
		client.SendFrame(frame)
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/chat/ws", h.HandleWebSocket)
}
