package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/codeclash/arena-backend/internal/middleware"
	"github.com/codeclash/arena-backend/internal/realtime"
	"github.com/codeclash/arena-backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams room lifecycle events to connected participants.
type WSHandler struct {
	notifier       *realtime.Notifier
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(notifier *realtime.Notifier, sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		notifier:       notifier,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// RoomStream godoc
// WS /ws/v1/rooms/:room_id?token=...
// Upgrades to WebSocket and forwards room events. Broadcast events reach
// every participant; sender-only events (answer results) reach only their
// addressee. Delivery is best-effort; clients reconcile through the GET
// session snapshot after a reconnect.
func (h *WSHandler) RoomStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	roomID, err := uuid.Parse(c.Param("room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room ID"})
		return
	}

	// Only participants may stream a room.
	session, err := h.sessionService.Get(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if session.ParticipantByUser(claims.UserID) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", claims.UserID.String()).
		Str("room_id", roomID.String()).
		Logger()

	wsLog.Info().Msg("Participant connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.notifier.Subscribe(ctx, roomID)
	defer sub.Close()

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// how we learn the connection closed.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
		}
	}()

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			env, err := realtime.DecodeEnvelope(msg.Payload)
			if err != nil {
				wsLog.Warn().Err(err).Msg("Dropping undecodable event")
				continue
			}
			if !env.ForUser(claims.UserID) {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing stream")
				return
			}
		}
	}
}
