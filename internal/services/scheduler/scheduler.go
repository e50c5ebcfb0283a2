// Package scheduler периодически запускает проверку истечений подписок.
//
// Тик, пришедший во время ещё идущей проверки, пропускается: второй
// конкурентный sweep не стартует.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
)

// Sweeper — операция, запускаемая по расписанию.
type Sweeper interface {
	SweepExpirations(ctx context.Context, now time.Time) (int, error)
}

type Service struct {
	cron     *cron.Cron
	sweeper  Sweeper
	log      *slog.Logger
	interval time.Duration
}

// New создает новый экземпляр Service с защитой от перекрывающихся запусков.
func New(sweeper Sweeper, log *slog.Logger, interval time.Duration) *Service {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	return &Service{
		cron:     c,
		sweeper:  sweeper,
		log:      log,
		interval: interval,
	}
}

// Start регистрирует задачу и запускает планировщик. Первый проход
// выполняется сразу, не дожидаясь первого тика.
func (s *Service) Start(ctx context.Context) error {
	const op = "scheduler.Start"

	s.RunSweep(ctx)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.RunSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущего запуска.
func (s *Service) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}

// RunSweep выполняет один проход проверки истечений.
func (s *Service) RunSweep(ctx context.Context) {
	expired, err := s.sweeper.SweepExpirations(ctx, time.Now())
	if err != nil {
		s.log.Error("sweep failed", sl.Err(err))
		return
	}
	if expired > 0 {
		s.log.Info("sweep finished", slog.Int("expired", expired))
	}
}
