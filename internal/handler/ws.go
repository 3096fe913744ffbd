package handler

import (
	"context"
	"encoding/json"
	"time"

	"dealership-backend/internal/middleware"
	"dealership-backend/internal/model"
	"dealership-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	maxFrameSize = 16 * 1024
)

type WSHandler struct {
	chat     *service.ChatService
	verifier middleware.IdentityVerifier
	log      zerolog.Logger
}

func NewWSHandler(chat *service.ChatService, verifier middleware.IdentityVerifier, log zerolog.Logger) *WSHandler {
	return &WSHandler{chat: chat, verifier: verifier, log: log.With().Str("component", "ws").Logger()}
}

// Upgrade accepts the socket. A token in the query binds the identity right
// away; without one the connection stays anonymous until it joins a room.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if token := c.Query("token"); token != "" {
		id, err := h.verifier.VerifyAccessToken(token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals("identity", id)
	}
	return websocket.New(h.handleConnection)(c)
}

func (h *WSHandler) handleConnection(conn *websocket.Conn) {
	client := service.NewWSClient(uuid.NewString(), conn)
	var identity *model.Identity
	if id, ok := conn.Locals("identity").(model.Identity); ok {
		identity = &id
	}

	h.chat.Connect(client, identity)
	writerDone := make(chan struct{})
	defer func() {
		h.chat.Disconnect(client)
		<-writerDone
	}()

	go h.writeLoop(client.Send, conn, writerDone)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	ctx := context.Background()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("conn", client.ID).Msg("read")
			}
			return
		}

		// Reset deadline on any message
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		h.chat.HandleEvent(ctx, client, &event)
	}
}

// socketWriter is the write side of a websocket connection.
type socketWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// writeLoop is the only writer on the socket.
func (h *WSHandler) writeLoop(send <-chan []byte, conn socketWriter, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				// Closed by the hub; closing the socket unblocks the reader.
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				conn.Close()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
