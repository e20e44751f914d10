package schemas

type TaskStatus string

const (
	TaskStatusRunning  TaskStatus = "running"
	TaskStatusFinished TaskStatus = "finished"
	TaskStatusFailed   TaskStatus = "failed"
)

func (s TaskStatus) Terminal() bool {
	return s == TaskStatusFinished || s == TaskStatusFailed
}

type TaskResponse struct {
	TaskID     string     `json:"task_id"`
	Tool       string     `json:"tool"`
	User       string     `json:"user"`
	Status     TaskStatus `json:"status"`
	CreatedAt  string     `json:"created_at"`
	FinishedAt string     `json:"finished_at,omitempty"`
	Log        []string   `json:"log"`
	Result     ToolResult `json:"result,omitempty"`
}
