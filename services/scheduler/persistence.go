package scheduler

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

// Durability is write-behind: the decision path never waits on postgres.
// SaveSchedulingState writes absolute values, so retries after a timeout are
// idempotent and cannot double-count a period.

func (s *schedulerService) markDirty(st *accountState) {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	s.dirty[poolKey(st.acc.Workspace, st.acc.ID)] = st
}

func (s *schedulerService) clearDirty(workspace, id string) {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	delete(s.dirty, poolKey(workspace, id))
}

// persistAsync flushes one account's scheduling state in the background with
// bounded retries. A final failure leaves the account marked dirty for the
// periodic flush to pick up.
func (s *schedulerService) persistAsync(acc models.SendingAccount) {
	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)

		ctx := context.Background()
		var err error
		for attempt := 0; attempt <= s.cfg.PersistMaxRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(s.cfg.PersistBackoff * time.Duration(attempt))
			}
			if err = s.accounts.SaveSchedulingState(ctx, &acc); err == nil {
				s.clearDirty(acc.Workspace, acc.ID)
				return
			}
		}
		s.log.Errorf("Failed to persist scheduling state for account %s after retries: %v", acc.ID, err)
	}()
}

// FlushDirtyAccounts persists any account whose async flush failed. Invoked
// by the cron manager.
func (s *schedulerService) FlushDirtyAccounts(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.FlushDirtyAccounts")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	s.dirtyMu.Lock()
	pending := make([]*accountState, 0, len(s.dirty))
	for _, st := range s.dirty {
		pending = append(pending, st)
	}
	s.dirtyMu.Unlock()

	var lastErr error
	for _, st := range pending {
		acc := st.snapshot()
		if err := s.accounts.SaveSchedulingState(ctx, &acc); err != nil {
			tracing.TraceErr(span, err)
			lastErr = err
			continue
		}
		s.clearDirty(acc.Workspace, acc.ID)
	}
	return lastErr
}

// SweepExpiredReservations releases capacity held by callers that never
// reported an outcome. Expiry is also enforced lazily at selection time;
// the sweep just keeps the ledger small and the logs honest.
func (s *schedulerService) SweepExpiredReservations(ctx context.Context) int {
	span, _ := opentracing.StartSpanFromContext(ctx, "SchedulerService.SweepExpiredReservations")
	defer span.Finish()
	tracing.TagComponentService(span)

	swept := s.ledger.sweep(s.now())
	if len(swept) > 0 {
		s.log.Infof("Swept %d expired reservations", len(swept))
	}
	return len(swept)
}

func (s *schedulerService) publish(ctx context.Context, evs []dto.AccountEvent) {
	if s.events == nil {
		return
	}
	for _, ev := range evs {
		s.events.PublishAccountEvent(ctx, ev)
	}
}
