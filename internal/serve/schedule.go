package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// startSchedule regenerates every interval, skipping a tick while the
// previous run is still going.
func (s *Server) startSchedule(ctx context.Context, every time.Duration) error {
	sch, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	job, err := sch.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.regenerate(ctx, "schedule") }),
		gocron.WithName("regenerate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sch.Shutdown()
		return fmt.Errorf("schedule regenerate: %w", err)
	}
	s.scheduler = sch
	sch.Start()

	log.Info().Dur("every", every).Str("job", job.ID().String()).Msg("periodic regeneration scheduled")
	return nil
}
