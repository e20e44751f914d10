package main

import (
	"errors"
	"fmt"
	"os"
)

const (
	ExitSuccess = 0
	ExitFailed  = 1
	ExitUsage   = 2
)

// ToolFailedError reports a tool call that completed with an error result.
type ToolFailedError struct {
	Message string
}

func (e *ToolFailedError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var toolErr *ToolFailedError
		if errors.As(err, &toolErr) {
			os.Exit(ExitFailed)
		}
		os.Exit(ExitUsage)
	}
}
