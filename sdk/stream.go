package sdk

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"

	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/timeouts"
)

const noResultMessage = "No result received"

// DefaultMaxEventSize bounds a single stream event. A result carries the
// whole document, so it sits well above any document the CLI writes.
const DefaultMaxEventSize = 32 << 20

// Stream subscribes to a task's events and calls onEvent for each one until
// the result or error event arrives. Connection failures are retried with
// exponential backoff until ctx is done; a reconnect resumes after the last
// log line seen and lines are never passed to onEvent twice.
func (c *Client) Stream(ctx context.Context, taskID string, onEvent func(schemas.Event)) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := sse.NewClient(c.baseURL+"/stream/"+url.PathEscape(taskID), sse.ClientMaxBufferSize(c.maxEventSize))
	client.Connection = c.streamClient
	client.Headers = map[string]string{
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
	}
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = timeouts.StreamRetry
	client.ReconnectStrategy = backoff.WithContext(expBackoff, streamCtx)

	done := false
	lastSeq := 0
	err := client.SubscribeRawWithContext(streamCtx, func(msg *sse.Event) {
		if done {
			return
		}
		ev, ok := decodeEvent(msg)
		if !ok {
			return
		}
		if ev.Type == schemas.EventLog && ev.Seq > 0 {
			if ev.Seq <= lastSeq {
				return
			}
			lastSeq = ev.Seq
		}
		if onEvent != nil {
			onEvent(ev)
		}
		if ev.Type != schemas.EventLog {
			done = true
			cancel()
		}
	})
	if done {
		return nil
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// CallTool submits a tool call and blocks until its result. Log lines are
// passed to onLog as they arrive. A stream that ends without a result
// yields an error result.
func (c *Client) CallTool(ctx context.Context, user, tool string, args map[string]any, onLog func(string)) (schemas.ToolResult, error) {
	taskID, err := c.Submit(ctx, schemas.ToolCallRequest{User: user, Tool: tool, Arguments: args})
	if err != nil {
		return nil, err
	}

	var result schemas.ToolResult
	err = c.Stream(ctx, taskID, func(ev schemas.Event) {
		switch ev.Type {
		case schemas.EventLog:
			if onLog != nil {
				onLog(ev.Message)
			}
		case schemas.EventResult:
			result = ev.Result
		case schemas.EventError:
			result = schemas.ErrorResult(ev.Message)
		}
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return schemas.ErrorResult(noResultMessage), nil
	}
	return result, nil
}

func decodeEvent(msg *sse.Event) (schemas.Event, bool) {
	eventType := schemas.EventType(msg.Event)
	switch eventType {
	case schemas.EventLog, schemas.EventError:
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return schemas.Event{}, false
		}
		ev := schemas.Event{Type: eventType, Message: payload.Message}
		if eventType == schemas.EventLog {
			ev.Seq, _ = strconv.Atoi(string(msg.ID))
		}
		return ev, true
	case schemas.EventResult:
		var result schemas.ToolResult
		if err := json.Unmarshal(msg.Data, &result); err != nil {
			return schemas.Event{}, false
		}
		return schemas.ResultEvent(result), true
	}
	return schemas.Event{}, false
}

// Wait polls a task until it is terminal.
func (c *Client) Wait(ctx context.Context, taskID string) (*schemas.TaskResponse, error) {
	ticker := time.NewTicker(timeouts.PollInterval)
	defer ticker.Stop()
	for {
		task, err := c.TaskStatus(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if task.Status.Terminal() {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
