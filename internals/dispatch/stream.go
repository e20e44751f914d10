package dispatch

import (
	"context"
	"time"

	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/timeouts"
)

const taskNotFoundMessage = "Task not found"

type Streamer struct {
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewStreamer returns a streamer that re-checks running tasks at least every
// interval in addition to waking on task changes.
func NewStreamer(d *Dispatcher, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = timeouts.PollInterval
	}
	return &Streamer{dispatcher: d, interval: interval}
}

// Stream emits every log line of the task in order, then a single result
// event once the task is terminal, then closes the channel. An unknown id
// yields one error event. Cancelling ctx stops the stream but not the task.
func (s *Streamer) Stream(ctx context.Context, taskID string) <-chan schemas.Event {
	return s.StreamFrom(ctx, taskID, 0)
}

// StreamFrom is Stream for a reader that already holds the first after log
// lines. It resumes with line after+1.
func (s *Streamer) StreamFrom(ctx context.Context, taskID string, after int) <-chan schemas.Event {
	if after < 0 {
		after = 0
	}
	out := make(chan schemas.Event)
	go func() {
		defer close(out)

		task, err := s.dispatcher.Get(taskID)
		if err != nil {
			send(ctx, out, schemas.ErrorEvent(taskNotFoundMessage))
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		cursor := after
		for {
			view := task.since(cursor)
			for i, line := range view.lines {
				ev := schemas.LogEvent(line)
				ev.Seq = cursor + i + 1
				if !send(ctx, out, ev) {
					return
				}
			}
			cursor += len(view.lines)

			if view.status.Terminal() {
				send(ctx, out, schemas.ResultEvent(view.result))
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-view.changed:
			case <-ticker.C:
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- schemas.Event, ev schemas.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
