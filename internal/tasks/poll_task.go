// internal/tasks/poll_task.go
package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ersauravadhikari/blueberry-go/blueberry"

	"reddit-modbot/internal/poller"
)

const PollTaskName = "poll_community"

// Ensure PollTaskManager implements TaskManagerInterface
var _ TaskManagerInterface = (*PollTaskManager)(nil)

type PollTaskManager struct {
	blueBerry *blueberry.BlueBerry
	runner    CycleRunner
	community string
	interval  time.Duration
}

func NewPollTaskManager(bb *blueberry.BlueBerry, runner CycleRunner, community string, interval time.Duration) *PollTaskManager {
	return &PollTaskManager{
		blueBerry: bb,
		runner:    runner,
		community: community,
		interval:  interval,
	}
}

// RegisterTasks registers the poll task and schedules it at the poll interval
func (tm *PollTaskManager) RegisterTasks() error {
	schema := blueberry.NewTaskSchema(blueberry.TaskParamDefinition{
		"community": blueberry.TypeString,
	})

	task, err := tm.blueBerry.RegisterTask(PollTaskName, tm.pollCommunity, schema)
	if err != nil {
		return fmt.Errorf("failed to register poll task: %w", err)
	}

	schedule := Schedule(tm.interval)
	if _, err := task.RegisterSchedule(blueberry.TaskParams{
		"community": tm.community,
	}, schedule); err != nil {
		return fmt.Errorf("failed to schedule poll task for r/%s: %w", tm.community, err)
	}

	slog.Info("scheduled poll task", "community", tm.community, "schedule", schedule)
	return nil
}

// Schedule is the cron spec for polling every interval.
func Schedule(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}

// pollCommunity is the task function executed by BlueBerry
func (tm *PollTaskManager) pollCommunity(tctx *blueberry.TaskContext) error {
	logger := tctx.GetLogger()

	result, err := tm.runner.Cycle(tctx.GetContext())
	msg, failed := Summarize(tm.community, result, err)
	if failed != nil {
		return logger.Error(msg)
	}
	if result != nil && result.Posts > 0 {
		logger.Success(msg)
	} else {
		logger.Info(msg)
	}
	return nil
}

// Summarize turns a cycle outcome into a run log line. The returned error is
// non-nil when the run should be marked failed; skipped ticks are not
// failures.
func Summarize(community string, result *poller.Result, err error) (string, error) {
	switch {
	case errors.Is(err, poller.ErrCycleInProgress):
		return "Previous cycle still running, tick skipped", nil
	case err != nil && result == nil:
		return fmt.Sprintf("Failed to fetch new posts from r/%s: %v", community, err), err
	case err != nil:
		return fmt.Sprintf("Dispatched %d posts from r/%s with module errors: %v", result.Posts, community, err), err
	case result == nil || result.Posts == 0:
		return "No new posts found", nil
	default:
		return fmt.Sprintf("Dispatched %d new posts from r/%s (checkpoint %s)",
			result.Posts, community, result.Checkpoint.Format(time.RFC3339)), nil
	}
}
