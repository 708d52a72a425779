package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobAlreadyRunning is returned when a job of the same kind is still in flight
	ErrJobAlreadyRunning = errors.New("job already running")
)
