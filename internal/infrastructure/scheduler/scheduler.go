package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Errors for task registration
var (
	ErrTaskMissingName = errors.New("scheduler: task name is required")
	ErrTaskMissingRun  = errors.New("scheduler: task run function is required")
	ErrTaskBadInterval = errors.New("scheduler: task interval must be positive")
	ErrDuplicateTask   = errors.New("scheduler: task name already registered")
)

// Task is one periodic unit of work. Tasks are independent: one task's
// failure never affects another's schedule.
type Task struct {
	// Name identifies the task in logs
	Name string
	// Interval is the minimum time between two runs
	Interval time.Duration
	// Enabled controls whether the task runs at all
	Enabled bool
	// Run performs the work
	Run func(ctx context.Context) error
}

// scheduledTask pairs a task with its cursor
type scheduledTask struct {
	task   Task
	cursor SyncCursor
}

// TaskScheduler runs registered tasks when they come due. It keeps no
// goroutines of its own; the owner calls RunDue from its loop.
type TaskScheduler struct {
	tasks   []*scheduledTask
	nowFunc func() time.Time
	logger  *zap.Logger
}

// NewTaskScheduler creates an empty scheduler
func NewTaskScheduler(log *zap.Logger) *TaskScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskScheduler{
		nowFunc: time.Now,
		logger:  log.Named("scheduler"),
	}
}

// Register adds a task to the schedule
func (s *TaskScheduler) Register(task Task) error {
	if task.Name == "" {
		return ErrTaskMissingName
	}
	if task.Run == nil {
		return ErrTaskMissingRun
	}
	if task.Interval <= 0 {
		return ErrTaskBadInterval
	}
	for _, st := range s.tasks {
		if st.task.Name == task.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
		}
	}
	s.tasks = append(s.tasks, &scheduledTask{task: task})
	return nil
}

// RunDue runs every enabled task that has come due, sequentially in
// registration order, and returns the number of tasks run. Each run
// stamps the task's cursor regardless of outcome.
func (s *TaskScheduler) RunDue(ctx context.Context) int {
	ran := 0
	for _, st := range s.tasks {
		if !st.task.Enabled {
			continue
		}
		if !st.cursor.Due(s.nowFunc(), st.task.Interval) {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		s.runTask(ctx, st)
		ran++
	}
	return ran
}

// runTask executes one task with panic containment and stamps its cursor
func (s *TaskScheduler) runTask(ctx context.Context, st *scheduledTask) {
	defer func() { st.cursor.Stamp(s.nowFunc()) }()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				zap.String("task", st.task.Name),
				zap.Any("panic", r))
		}
	}()

	start := s.nowFunc()
	if err := st.task.Run(ctx); err != nil {
		s.logger.Warn("task failed",
			zap.String("task", st.task.Name),
			zap.Duration("elapsed", s.nowFunc().Sub(start)),
			zap.Error(err))
		return
	}
	s.logger.Debug("task finished",
		zap.String("task", st.task.Name),
		zap.Duration("elapsed", s.nowFunc().Sub(start)))
}
