package conversation

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs CleanupExpired on a cron schedule. Passive key expiry keeps
// memory in check on its own; the sweep exists so that sessions the TTL
// mechanism missed (for example after a TTL configuration change) are still
// reclaimed promptly.
type Sweeper struct {
	store    Store
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

// NewSweeper creates a sweeper for store using a cron schedule expression
// such as "@every 5m".
func NewSweeper(store Store, schedule string) *Sweeper {
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &Sweeper{
		store:    store,
		schedule: schedule,
		timeout:  time.Minute,
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *Sweeper) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	log.Printf("[Sweeper] session cleanup scheduled (%s)", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	removed, err := s.store.CleanupExpired(ctx)
	if err != nil {
		log.Printf("[Sweeper] cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Sweeper] removed %d expired sessions", removed)
	}
}
