package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"eventix/internal/domain"
)

// SeatUpdatesPubSub broadcasts seat-count changes to connected observers.
// Delivery is best effort: publishers run after the booking transaction has
// committed and never block or fail it.
type SeatUpdatesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSeatUpdatesPubSub(rdb *redis.Client) *SeatUpdatesPubSub {
	return &SeatUpdatesPubSub{
		rdb:     rdb,
		channel: ChannelSeatUpdates(),
	}
}

type seatUpdateMsg struct {
	Type           string `json:"type"`
	EventID        int64  `json:"event_id"`
	AvailableSeats int    `json:"available_seats"`
	TsUnix         int64  `json:"ts_unix"`
}

func (p *SeatUpdatesPubSub) PublishSeatUpdate(ctx context.Context, eventID int64, availableSeats int) error {
	msg := seatUpdateMsg{
		Type:           "seatUpdate",
		EventID:        eventID,
		AvailableSeats: availableSeats,
		TsUnix:         time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *SeatUpdatesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, upd domain.SeatUpdate)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg seatUpdateMsg
			if err := json.Unmarshal([]byte(m.Payload), &msg); err == nil && msg.EventID != 0 {
				handler(ctx, domain.SeatUpdate{
					EventID:        msg.EventID,
					AvailableSeats: msg.AvailableSeats,
				})
			}
		}
	}
}
