package httpgin

import (
	"context"
	"io"
	"sync"

	"github.com/gin-gonic/gin"

	"eventix/internal/domain"
)

// SeatUpdateSource delivers seat updates published by other instances.
type SeatUpdateSource interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, upd domain.SeatUpdate)) error
}

// SeatStream fans seat updates out to connected SSE clients. Slow clients
// lose updates instead of blocking the fan-out.
type SeatStream struct {
	mu   sync.Mutex
	subs map[chan domain.SeatUpdate]struct{}
}

func NewSeatStream() *SeatStream {
	return &SeatStream{subs: make(map[chan domain.SeatUpdate]struct{})}
}

// Run consumes the source until ctx is cancelled.
func (s *SeatStream) Run(ctx context.Context, src SeatUpdateSource) error {
	return src.Subscribe(ctx, func(_ context.Context, upd domain.SeatUpdate) {
		s.Broadcast(upd)
	})
}

func (s *SeatStream) Broadcast(upd domain.SeatUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- upd:
		default:
		}
	}
}

func (s *SeatStream) subscribe() chan domain.SeatUpdate {
	ch := make(chan domain.SeatUpdate, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *SeatStream) unsubscribe(ch chan domain.SeatUpdate) {
	s.mu.Lock()
	delete(s.subs, ch)
	s.mu.Unlock()
}

// @Summary  Stream seat updates (SSE)
// @Produce  text/event-stream
// @Success  200 {string} string "event: seatUpdate"
// @Router   /events/seats/stream [get]
func handleSeatStream(stream *SeatStream) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stream == nil {
			c.Status(503)
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ch := stream.subscribe()
		defer stream.unsubscribe(ch)

		c.Stream(func(w io.Writer) bool {
			select {
			case upd, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("seatUpdate", upd)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
