package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	relayChannelPrefix = "match:"
	publishTimeout     = 2 * time.Second
)

// PubSub is the part of *redis.Client the relay uses.
type PubSub interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type relayMessage struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Data   json.RawMessage `json:"data"`
}

// RedisRelay делит рассылку между экземплярами сервиса: локальные подписчики
// получают сообщение сразу, остальные экземпляры - через канал match:<id>.
type RedisRelay struct {
	redis    PubSub
	hub      *Hub
	instance string
	logger   *slog.Logger
}

func NewRedisRelay(client PubSub, hub *Hub, logger *slog.Logger) *RedisRelay {
	instance := uuid.New().String()
	return &RedisRelay{
		redis:    client,
		hub:      hub,
		instance: instance,
		logger:   logger.With(slog.String("relay_instance", instance)),
	}
}

func relayChannel(roomID string) string {
	return relayChannelPrefix + roomID
}

// BroadcastToRoom delivers locally first, then publishes for other instances.
// A publish failure is logged; local subscribers are already served.
func (r *RedisRelay) BroadcastToRoom(roomID string, message interface{}) {
	data, err := encodeMessage(message)
	if err != nil {
		r.logger.Error("Failed to encode broadcast", slog.String("room", roomID), slog.Any("error", err))
		return
	}
	r.hub.deliver(roomID, data)

	payload, err := json.Marshal(relayMessage{Origin: r.instance, Room: roomID, Data: data})
	if err != nil {
		r.logger.Error("Failed to encode relay message", slog.String("room", roomID), slog.Any("error", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.redis.Publish(ctx, relayChannel(roomID), payload).Err(); err != nil {
		r.logger.Warn("Redis publish failed", slog.String("room", roomID), slog.Any("error", err))
	}
}

// Run subscribes to every match channel until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.redis.PSubscribe(ctx, relayChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.logger.Info("Redis relay subscribed", slog.String("pattern", relayChannelPrefix+"*"))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *RedisRelay) handle(msg *redis.Message) {
	var rm relayMessage
	if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
		r.logger.Warn("Invalid relay message", slog.String("channel", msg.Channel), slog.Any("error", err))
		return
	}
	if rm.Origin == r.instance {
		return
	}
	room := rm.Room
	if room == "" {
		room = strings.TrimPrefix(msg.Channel, relayChannelPrefix)
	}
	r.hub.deliver(room, rm.Data)
}
