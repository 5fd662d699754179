package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()
	// AddNow returns the unix time the given number of seconds from now.
	AddNow(seconds int64) int64
	AfterNow(at int64) bool
	ScheduleTaskOnce(at int64, task func()) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}
