package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsdesk/domain"
)

// Scheduler triggers ingestion on a cron schedule. The scheduled path is a
// trusted internal caller and does not go through the HTTP secret gate.
type Scheduler struct {
	cron *cron.Cron
	ing  domain.Ingestor
	log  *slog.Logger
}

func NewScheduler(ing domain.Ingestor, log *slog.Logger, spec string, runTimeout time.Duration) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, ing: ing, log: log}
	if _, err := c.AddFunc(spec, func() { s.fire(runTimeout) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) fire(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := s.ing.Run(ctx); err != nil {
		s.log.Error("scheduled ingest failed", "err", err)
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
