package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docgate/docgate/internals/schemas"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	logStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func PrintLog(w io.Writer, line string) {
	fmt.Fprintln(w, logStyle.Render("  "+line))
}

// PrintResult writes the status and message of a tool result followed by
// any data as indented JSON.
func PrintResult(w io.Writer, result schemas.ToolResult) {
	status := result.Status()
	style := successStyle
	if status != schemas.ResultStatusSuccess {
		style = errorStyle
	}
	fmt.Fprintf(w, "status: %s\n", style.Render(status))
	if message := result.Message(); message != "" {
		fmt.Fprintf(w, "message: %s\n", message)
	}
	if data, ok := result["data"]; ok {
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err == nil {
			fmt.Fprintf(w, "data: %s\n", encoded)
		}
	}
}

func PrintTask(w io.Writer, task *schemas.TaskResponse) {
	fmt.Fprintf(w, "task: %s\nstatus: %s\ntool: %s\nuser: %s\n", task.TaskID, task.Status, task.Tool, task.User)
	for _, line := range task.Log {
		PrintLog(w, line)
	}
	if task.Result != nil {
		PrintResult(w, task.Result)
	}
}

func PrintTools(w io.Writer, tools []schemas.ToolSchema) {
	fmt.Fprintln(w, headerStyle.Render("Tools"))
	for _, tool := range tools {
		gate := "ungated"
		if tool.Resource != "" {
			gate = tool.Resource + ":" + tool.Action
		}
		fmt.Fprintf(w, "%-18s %-16s %s\n", tool.Name, gate, tool.Description)
	}
}

func PrintUsers(w io.Writer, users []schemas.User) {
	fmt.Fprintln(w, headerStyle.Render("Users"))
	for _, user := range users {
		fmt.Fprintf(w, "%-12s %s\n", user.Username, user.Role)
	}
}

func PrintPermissions(w io.Writer, role string, perms []schemas.Permission) {
	fmt.Fprintln(w, headerStyle.Render("Permissions for "+role))
	if len(perms) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	actions := make([]string, 0, len(perms))
	for _, perm := range perms {
		actions = append(actions, perm.Resource+":"+perm.Action)
	}
	fmt.Fprintln(w, strings.Join(actions, "\n"))
}

func PrintDocuments(w io.Writer, docs []schemas.DocumentSummary) {
	fmt.Fprintln(w, headerStyle.Render("Documents"))
	if len(docs) == 0 {
		fmt.Fprintln(w, "(none)")
		return
	}
	for _, doc := range docs {
		fmt.Fprintf(w, "%-20s %-10s %s  %s\n", doc.ID, doc.CreatedBy, doc.UpdatedAt.Format("2006-01-02 15:04"), doc.ContentPreview)
	}
}
