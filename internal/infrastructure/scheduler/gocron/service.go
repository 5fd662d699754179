package timescheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

type service struct {
	scheduler *gocron.Scheduler
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
	s.scheduler.Clear()
}

func (s *service) AddNow(seconds int64) int64 {
	return time.Now().Add(time.Duration(seconds) * time.Second).Unix()
}

func (s *service) AfterNow(at int64) bool {
	return time.Unix(at, 0).After(time.Now())
}

// ScheduleTaskOnce runs the task once at the given unix time. The delay is
// rounded up to the next second so the task never fires early.
func (s *service) ScheduleTaskOnce(at int64, task func()) error {
	delay := time.Until(time.Unix(at, 0))
	if delay < 0 {
		return fmt.Errorf("cannot schedule task in the past")
	}

	seconds := int(math.Ceil(delay.Seconds()))
	if seconds == 0 {
		go task()
		return nil
	}

	log.Tracef("scheduler: task scheduled in %ds", seconds)
	_, err := s.scheduler.Every(seconds).Seconds().WaitForSchedule().LimitRunsTo(1).Do(task)
	return err
}
