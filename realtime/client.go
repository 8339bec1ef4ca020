package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/live-scoring/models"
	"github.com/Dosada05/live-scoring/services"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBufferSize = 256

	eventTimeout = 10 * time.Second
)

// Входящие события соединения.
const (
	EventJoinMatch   = "join_match"
	EventLeaveMatch  = "leave_match"
	EventMatchEvent  = "match_event"
	EventUpdateScore = "update_score"
)

// Ответы только отправителю.
const (
	ReplyJoined = "joined"
	ReplyLeft   = "left"
	ReplyError  = "error"
)

// ErrorReply is sent to the originating connection only.
type ErrorReply struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	MatchID string `json:"matchId,omitempty"`
}

// Client - одно websocket-соединение с проверенной личностью.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	identity models.Identity
	scoring  services.ScoringService
	logger   *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClient(conn *websocket.Conn, hub *Hub, identity models.Identity, scoring services.ScoringService, logger *slog.Logger) *Client {
	id := uuid.New().String()
	return &Client{
		id:       id,
		hub:      hub,
		conn:     conn,
		identity: identity,
		scoring:  scoring,
		logger:   logger.With(slog.String("client_id", id), slog.String("user_id", identity.UserID)),
		send:     make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string { return c.id }

// trySend enqueues without blocking. false means the queue is full; a closed
// client silently drops the message.
func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) reply(event string, data interface{}) {
	msg, err := encodeMessage(outbound{Event: event, Data: data})
	if err != nil {
		c.logger.Error("Failed to encode reply", slog.String("event", event), slog.Any("error", err))
		return
	}
	if !c.trySend(msg) {
		c.logger.Warn("Reply dropped, send queue full", slog.String("event", event))
	}
}

func (c *Client) replyError(matchID, code, message string) {
	c.reply(ReplyError, ErrorReply{Code: code, Message: message, MatchID: matchID})
}

// ReadPump reads inbound frames and handles them one at a time, so events
// from one connection reach the dispatcher in the order they were received.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		c.logger.Info("WebSocket client disconnected")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", slog.Any("error", err))
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.handleMessage(ctx, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Каждое сообщение - отдельный кадр, чтобы клиент разбирал ровно один JSON.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("WebSocket write error", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.replyError("", "bad_request", "message must be a JSON object with an event field")
		return
	}

	switch env.Event {
	case EventJoinMatch:
		var req models.JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || strings.TrimSpace(req.MatchID) == "" {
			c.replyError(req.MatchID, "bad_request", "join_match requires matchId")
			return
		}
		req.MatchID = strings.TrimSpace(req.MatchID)
		c.hub.Join(c, req.MatchID)
		c.logger.Info("Client joined match", slog.String("match_id", req.MatchID), slog.String("sport", req.Sport))
		c.reply(ReplyJoined, req)

	case EventLeaveMatch:
		var req models.JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil || strings.TrimSpace(req.MatchID) == "" {
			c.replyError(req.MatchID, "bad_request", "leave_match requires matchId")
			return
		}
		req.MatchID = strings.TrimSpace(req.MatchID)
		c.hub.Leave(c, req.MatchID)
		c.reply(ReplyLeft, req)

	case EventMatchEvent, EventUpdateScore:
		var ev models.ScoringEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			c.replyError("", "invalid_payload", "malformed scoring event")
			return
		}
		c.handleScoringEvent(ctx, ev)

	default:
		c.replyError("", "unknown_event", "unsupported event "+env.Event)
	}
}

func (c *Client) handleScoringEvent(ctx context.Context, ev models.ScoringEvent) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	_, err := c.scoring.HandleEvent(ctx, services.EventInput{
		MatchID: ev.MatchID,
		Sport:   ev.Sport,
		Type:    ev.Type,
		Payload: ev.Payload,
		ActorID: c.identity.UserID,
	})
	if err == nil {
		return
	}

	code, message := errorCode(err)
	if code == "internal_error" {
		c.logger.ErrorContext(ctx, "Scoring event failed", slog.String("match_id", ev.MatchID), slog.Any("error", err))
	}
	c.replyError(ev.MatchID, code, message)
}

// errorCode maps dispatcher errors to wire codes. Unexpected errors are not
// described to the client.
func errorCode(err error) (code, message string) {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		return "not_authorized", err.Error()
	case errors.Is(err, services.ErrForbiddenOperation):
		return "forbidden", err.Error()
	case errors.Is(err, services.ErrMatchNotFound):
		return "match_not_found", err.Error()
	case errors.Is(err, services.ErrUnknownSport):
		return "unknown_sport", err.Error()
	case errors.Is(err, services.ErrMatchClosed):
		return "match_closed", err.Error()
	case errors.Is(err, services.ErrMatchNotLive):
		return "match_not_live", err.Error()
	case errors.Is(err, services.ErrInvalidStatusTransition):
		return "invalid_transition", err.Error()
	case errors.Is(err, services.ErrInvalidEventPayload),
		errors.Is(err, services.ErrValidationFailed):
		return "invalid_payload", err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout", "event processing timed out"
	}
	return "internal_error", "failed to process event"
}
