package http

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/adapter/http/middleware"
)

const defaultHeartbeat = 20 * time.Second

type sseEvent struct {
	Name string
	Data any
	// Last ends the stream after this event.
	Last bool
}

// streamEvents serves a text/event-stream: the initial events, then whatever
// render makes of each feed value, until the client leaves or the feed closes.
func streamEvents[T any](c *gin.Context, heartbeat time.Duration, initial []sseEvent, feed <-chan T, render func(T) []sseEvent) {
	closeStream := middleware.StreamOpened()
	defer closeStream()
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)

	if !emit(c, initial) {
		c.Writer.Flush()
		return
	}
	c.Writer.Flush()

	tick := time.NewTicker(heartbeat)
	defer tick.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case v, ok := <-feed:
			if !ok {
				return false
			}
			return emit(c, render(v))
		case <-tick.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}

func emit(c *gin.Context, events []sseEvent) bool {
	for _, ev := range events {
		c.SSEvent(ev.Name, ev.Data)
		if ev.Last {
			return false
		}
	}
	return true
}
