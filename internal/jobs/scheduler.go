package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gymsync/internal/events"
	"gymsync/internal/models"
)

const DefaultDigestSchedule = "0 0 8 * * *"

type PendingCounter interface {
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}

type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Scheduler struct {
	cron     *cron.Cron
	accounts PendingCounter
	events   Publisher
	schedule string
	log      zerolog.Logger
}

func NewScheduler(accounts PendingCounter, publisher Publisher, schedule string, log zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultDigestSchedule
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		accounts: accounts,
		events:   publisher,
		schedule: schedule,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.publishDigest); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", s.schedule).Msg("pending digest scheduled")
	return nil
}

// Stop halts the scheduler; the returned context is done once a running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) publishDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Digest(ctx); err != nil {
		s.log.Error().Err(err).Msg("pending digest failed")
	}
}

// Digest publishes the number of pending gym-owner applications. Nothing is
// published when the queue is empty.
func (s *Scheduler) Digest(ctx context.Context) error {
	counts, err := s.accounts.CountByStatus(ctx)
	if err != nil {
		return err
	}
	if counts.Pending == 0 {
		s.log.Debug().Msg("no pending applications, digest skipped")
		return nil
	}
	return s.events.Publish(ctx, events.Event{
		Type:       events.PendingDigest,
		Pending:    counts.Pending,
		OccurredAt: time.Now(),
	})
}
