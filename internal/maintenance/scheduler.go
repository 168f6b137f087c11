package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartScheduler runs the sweeper on schedule (standard cron syntax or a
// descriptor such as @hourly). An empty schedule returns a nil stop func
// and schedules nothing.
func StartScheduler(schedule string, sweeper *Sweeper, timeout time.Duration) (func(), error) {
	if schedule == "" {
		return nil, nil
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_, _ = sweeper.Run(ctx)
	}); err != nil {
		return nil, fmt.Errorf("schedule auth cleanup %q: %w", schedule, err)
	}

	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
