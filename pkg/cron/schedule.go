package cron

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// MinInterval is the finest interval a task may run at
const MinInterval = time.Second

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts a Go duration ("5s"), an "@every" descriptor, or a
// five-field cron expression.
func ParseSchedule(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("schedule is required")
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return Every(d)
	}

	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Every returns a fixed-interval schedule
func Every(d time.Duration) (cron.Schedule, error) {
	if d < MinInterval {
		return nil, fmt.Errorf("interval must be at least %s, got %s", MinInterval, d)
	}
	return cron.Every(d), nil
}
