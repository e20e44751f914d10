package schemas

type EventType string

const (
	EventLog    EventType = "log"
	EventResult EventType = "result"
	EventError  EventType = "error"
)

// Event is one item of a task stream. Log and error events carry Message,
// result events carry Result. Seq is the 1-based position of a log line in
// the task log and zero for other events.
type Event struct {
	Type    EventType
	Seq     int
	Message string
	Result  ToolResult
}

func (e Event) Payload() any {
	if e.Type == EventResult {
		return e.Result
	}
	return map[string]string{"message": e.Message}
}

func LogEvent(message string) Event {
	return Event{Type: EventLog, Message: message}
}

func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

func ResultEvent(result ToolResult) Event {
	return Event{Type: EventResult, Result: result}
}
