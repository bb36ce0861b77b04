// Package scheduler fires tracking runs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/cronexpr"
	"go.uber.org/zap"

	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/pipeline"
)

// Dispatcher starts runs. Satisfied by *pipeline.Pipeline.
type Dispatcher interface {
	Dispatch(trigger, requestedBy string) (*models.Run, error)
}

// Scheduler dispatches a run at every tick of a cron expression. Fire
// times are computed in UTC. A tick that lands while the previous run is
// still active is skipped, never queued.
type Scheduler struct {
	expr       *cronexpr.Expression
	spec       string
	dispatcher Dispatcher
	log        *zap.SugaredLogger

	mu   sync.Mutex
	next time.Time
}

// New parses the five-field cron expression (e.g. "0 6 * * 1" for
// Mondays at 06:00).
func New(spec string, dispatcher Dispatcher, log *zap.SugaredLogger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Scheduler{
		expr:       expr,
		spec:       spec,
		dispatcher: dispatcher,
		log:        log,
	}, nil
}

// Next returns the upcoming fire time.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next.IsZero() {
		return s.expr.Next(time.Now().UTC())
	}
	return s.next
}

// Run blocks until ctx is cancelled, firing the dispatcher at every tick.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Infof("schedule %q active, next run at %s", s.spec, s.Next().Format(time.RFC3339))

	for {
		now := time.Now().UTC()
		next := s.expr.Next(now)
		if next.IsZero() {
			s.log.Warnf("schedule %q has no upcoming fire time, stopping", s.spec)
			return
		}
		s.mu.Lock()
		s.next = next
		s.mu.Unlock()

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.fire()
	}
}

func (s *Scheduler) fire() {
	run, err := s.dispatcher.Dispatch(models.TriggerScheduled, "scheduler")
	if errors.Is(err, pipeline.ErrRunInProgress) {
		s.log.Warnf("skipping scheduled run, previous run still in progress")
		return
	}
	if err != nil {
		s.log.Errorf("failed to dispatch scheduled run: %v", err)
		return
	}
	s.log.Infof("dispatched scheduled run %s", run.ID)
}
