package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// StartHeartbeat schedules a periodic liveness log line so a supervisor can
// detect a hung agent without sending input. The scheduler is stopped when ctx
// is cancelled. Intervals under a second are rounded up by the cron scheduler.
func StartHeartbeat(ctx context.Context, log *Logger, s *Session, interval time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		log.Infof("heartbeat: alive (uptime %s, %d commands)", s.UptimeClock(), s.CommandCount())
	})
	if err != nil {
		return nil, fmt.Errorf("agent: schedule heartbeat every %s: %w", interval, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return c, nil
}
