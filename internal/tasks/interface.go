// internal/tasks/interface.go
package tasks

import (
	"context"

	"reddit-modbot/internal/poller"
)

type TaskManagerInterface interface {
	RegisterTasks() error
}

// CycleRunner runs one poll cycle.
type CycleRunner interface {
	Cycle(ctx context.Context) (*poller.Result, error)
}
