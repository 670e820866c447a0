package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/dto"
	"github.com/outreachcrm/sendpool/interfaces"
	"github.com/outreachcrm/sendpool/internal/enum"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/tracing"
	"github.com/outreachcrm/sendpool/internal/utils"
)

type schedulerService struct {
	cfg      *config.SchedulerConfig
	log      logger.Logger
	accounts interfaces.AccountRepository
	events   interfaces.EventsPublisher

	warmup warmupPolicy
	pool   *accountPool
	ledger *reservationLedger

	// round-robin cursors, keyed by workspace|channel
	cursorMu sync.Mutex
	cursors  map[string]string

	// accounts with unflushed scheduling state, keyed like the pool
	dirtyMu sync.Mutex
	dirty   map[string]*accountState

	now func() time.Time
}

func NewSchedulerService(
	cfg *config.SchedulerConfig,
	log logger.Logger,
	accountRepository interfaces.AccountRepository,
	eventsPublisher interfaces.EventsPublisher,
) interfaces.SchedulerService {
	return &schedulerService{
		cfg:      cfg,
		log:      log,
		accounts: accountRepository,
		events:   eventsPublisher,
		warmup:   newWarmupPolicy(cfg),
		pool:     newAccountPool(),
		ledger:   newReservationLedger(),
		cursors:  map[string]string{},
		dirty:    map[string]*accountState{},
		now:      utils.Now,
	}
}

// HydratePool loads every persisted account into the in-memory registry.
// Called once at startup before the API starts taking traffic.
func (s *schedulerService) HydratePool(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.HydratePool")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	accounts, err := s.accounts.GetAccounts(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	for _, acc := range accounts {
		s.pool.put(acc)
	}
	s.log.Infof("Hydrated account pool with %d accounts", len(accounts))
	return nil
}

func (s *schedulerService) SelectAccount(ctx context.Context, channel enum.Channel, policy models.RotationPolicy) (*models.Reservation, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.SelectAccount")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("channel", channel.String(), "strategy", policy.Strategy.String())

	if err := utils.ValidateWorkspace(ctx); err != nil {
		return nil, err
	}
	workspace := utils.GetWorkspaceFromContext(ctx)
	if !channel.IsValid() {
		return nil, er.ErrUnknownChannel
	}
	if policy.Strategy == "" {
		policy.Strategy = enum.StrategyRoundRobin
	}
	if !policy.Strategy.IsValid() {
		return nil, er.ErrUnknownStrategy
	}

	now := s.now()

	cands := s.pool.eligibleSnapshot(workspace, channel, policy, now, s.warmup, s.weekStart(),
		func(accountID string) int { return s.ledger.activeCount(workspace, accountID, now) })
	if len(cands) == 0 {
		if policy.Strategy == enum.StrategyManual {
			return nil, s.manualIneligible(workspace, policy.AccountID)
		}
		return nil, er.ErrPoolExhausted
	}

	cursorKey := workspace + "|" + channel.String()

	// The snapshot is optimistic: between snapshot and reservation another
	// caller may take the last unit of an account. Reserve under the account
	// lock with a fresh headroom check and fall back to the next candidate.
	for len(cands) > 0 {
		s.cursorMu.Lock()
		cursor := s.cursors[cursorKey]
		s.cursorMu.Unlock()

		picked, err := selectCandidate(cands, policy, cursor)
		if err != nil {
			if err == er.ErrAccountNotEligible && policy.Strategy == enum.StrategyManual {
				return nil, s.manualIneligible(workspace, policy.AccountID)
			}
			return nil, err
		}

		res, ok := s.tryReserve(workspace, channel, picked.ID, policy, now)
		if ok {
			s.cursorMu.Lock()
			s.cursors[cursorKey] = picked.ID
			s.cursorMu.Unlock()
			tracing.TagEntity(span, picked.ID)
			return res, nil
		}

		if policy.Strategy == enum.StrategyManual {
			// the named account lost its capacity to a concurrent caller
			return nil, er.ErrAccountNotEligible
		}
		cands = dropCandidate(cands, picked.ID)
	}

	return nil, er.ErrPoolExhausted
}

// manualIneligible distinguishes why a manually named account cannot serve:
// a terminal error state gets its own sentinel so callers know a
// reconnection is required rather than a retry.
func (s *schedulerService) manualIneligible(workspace, accountID string) error {
	st := s.pool.get(workspace, accountID)
	if st == nil {
		return er.ErrAccountNotFound
	}
	if st.snapshot().Status == enum.AccountStatusError {
		return er.ErrFatalAccountState
	}
	return er.ErrAccountNotEligible
}

// tryReserve re-verifies headroom under the account lock and, if the account
// still has capacity, registers a reservation. Reservation creation and
// usage commits both serialize on the same lock, which is what makes the
// no-overbooking guarantee hold per account.
func (s *schedulerService) tryReserve(workspace string, channel enum.Channel, accountID string, policy models.RotationPolicy, now time.Time) (*models.Reservation, bool) {
	st := s.pool.get(workspace, accountID)
	if st == nil {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	acc := st.acc
	rollPeriods(acc, now, s.weekStart())
	lazyRecover(acc, now)

	if !statusEligible(acc, policy, now) {
		return nil, false
	}

	effDaily := s.warmup.effectiveDailyLimit(acc)
	if policy.MaxDailyOverride > 0 && policy.MaxDailyOverride < effDaily {
		effDaily = policy.MaxDailyOverride
	}
	effWeekly := s.warmup.effectiveWeeklyLimit(acc)

	held := s.ledger.activeCount(workspace, accountID, now)
	if acc.DailyUsed+held >= effDaily || acc.WeeklyUsed+held >= effWeekly {
		return nil, false
	}

	res := &models.Reservation{
		ID:              utils.GenerateNanoIDWithPrefix("resv", 16),
		AccountID:       accountID,
		Workspace:       workspace,
		Channel:         channel,
		ReservedAt:      now,
		ExpiresAt:       now.Add(s.cfg.ReservationTTL),
		CooldownMinutes: policy.CooldownMinutes,
	}
	s.ledger.add(res)
	return res, true
}

func (s *schedulerService) RecordSendResult(ctx context.Context, reservationID string, outcome enum.SendOutcome) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SchedulerService.RecordSendResult")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("reservation", reservationID, "outcome", outcome.String())

	now := s.now()

	res, err := s.ledger.peek(reservationID, now)
	if err != nil {
		if err == er.ErrReservationExpired {
			// late report after expiry: capacity was already released,
			// treat like abandoned
			s.log.Warnf("Result for expired reservation %s ignored", reservationID)
		}
		return err
	}

	if outcome == enum.OutcomeAbandoned {
		_, err = s.ledger.take(reservationID, now)
		return err
	}

	st := s.pool.get(res.Workspace, res.AccountID)
	if st == nil {
		s.ledger.take(reservationID, now)
		s.log.Warnf("Reservation %s settled against removed account %s", reservationID, res.AccountID)
		return nil
	}

	st.mu.Lock()

	// Settle under the account lock: the reservation keeps holding its
	// capacity until the commit below lands, so a concurrent selector
	// cannot slip into the gap. Lock order matches tryReserve.
	if _, err = s.ledger.take(reservationID, now); err != nil {
		st.mu.Unlock()
		return err
	}

	acc := st.acc
	rollPeriods(acc, now, s.weekStart())

	var evs []dto.AccountEvent
	var outErr error

	switch outcome {
	case enum.OutcomeSuccess:
		outErr = s.commitSuccess(acc, now, &evs)
	case enum.OutcomeThrottled:
		s.commitThrottled(acc, now, res.CooldownMinutes, &evs)
	case enum.OutcomeFatalError:
		s.commitFatal(acc, now, &evs)
	}
	accCopy := *acc
	st.mu.Unlock()

	if outErr != nil {
		tracing.TraceErr(span, outErr)
		s.log.Errorf("Counter overflow on account %s: eligibility filter admitted an account without capacity", res.AccountID)
		return outErr
	}

	s.markDirty(st)
	s.persistAsync(accCopy)
	s.publish(ctx, evs)
	return nil
}

func (s *schedulerService) commitSuccess(acc *models.SendingAccount, now time.Time, evs *[]dto.AccountEvent) error {
	if err := incrementUsage(acc, 1); err != nil {
		return err
	}

	acc.TotalSent++
	acc.WarmupStateSends++
	acc.ConsecutiveFailures = 0
	acc.LastUsedAt = utils.TimePtr(now)
	if acc.FirstUsedAt == nil {
		acc.FirstUsedAt = utils.TimePtr(now)
		if acc.WarmupStateSince == nil {
			acc.WarmupStateSince = utils.TimePtr(now)
		}
	}
	acc.Reputation = clampReputation(acc.Reputation + s.cfg.ReputationSuccessDelta)

	before := acc.Status
	applySuccess(acc, now)
	if acc.Status != before {
		*evs = append(*evs, s.statusEvent(acc, before))
	}

	if s.warmup.maybeAdvance(acc, now) {
		*evs = append(*evs, s.warmupEvent(acc, now))
	}
	return nil
}

func (s *schedulerService) commitThrottled(acc *models.SendingAccount, now time.Time, cooldownMinutes int, evs *[]dto.AccountEvent) {
	acc.Reputation = clampReputation(acc.Reputation + s.cfg.ReputationThrottleDelta)
	acc.ConsecutiveFailures++

	base := s.cfg.DefaultCooldown
	if cooldownMinutes > 0 {
		base = time.Duration(cooldownMinutes) * time.Minute
	}

	before := acc.Status
	duration := applyThrottle(acc, now, base, s.cfg.MaxCooldown)

	ev := dto.NewAccountEvent(dto.EventAccountCooldownSet, acc.Workspace, acc.ID, acc.Channel.String(), now)
	ev.Data["cooldownUntil"] = acc.CooldownUntil
	ev.Data["durationSeconds"] = int(duration.Seconds())
	*evs = append(*evs, ev)
	if acc.Status != before {
		*evs = append(*evs, s.statusEvent(acc, before))
	}

	if s.warmup.shouldRegress(acc) && s.warmup.regress(acc, now) {
		*evs = append(*evs, s.warmupEvent(acc, now))
	}
}

func (s *schedulerService) commitFatal(acc *models.SendingAccount, now time.Time, evs *[]dto.AccountEvent) {
	acc.Reputation = clampReputation(acc.Reputation + s.cfg.ReputationFatalDelta)
	acc.ConsecutiveFailures++

	before := acc.Status
	applyFatal(acc)

	ev := dto.NewAccountEvent(dto.EventAccountFatalError, acc.Workspace, acc.ID, acc.Channel.String(), now)
	*evs = append(*evs, ev)
	if acc.Status != before {
		*evs = append(*evs, s.statusEvent(acc, before))
	}

	if s.warmup.shouldRegress(acc) && s.warmup.regress(acc, now) {
		*evs = append(*evs, s.warmupEvent(acc, now))
	}
}

func (s *schedulerService) statusEvent(acc *models.SendingAccount, before enum.AccountStatus) dto.AccountEvent {
	ev := dto.NewAccountEvent(dto.EventAccountStatusChanged, acc.Workspace, acc.ID, acc.Channel.String(), s.now())
	ev.Data["from"] = before.String()
	ev.Data["to"] = acc.Status.String()
	return ev
}

func (s *schedulerService) warmupEvent(acc *models.SendingAccount, now time.Time) dto.AccountEvent {
	ev := dto.NewAccountEvent(dto.EventAccountWarmupChanged, acc.Workspace, acc.ID, acc.Channel.String(), now)
	ev.Data["warmupStatus"] = acc.WarmupStatus.String()
	return ev
}

func (s *schedulerService) weekStart() time.Weekday {
	return time.Weekday(s.cfg.WeeklyResetWeekday)
}

func clampReputation(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func dropCandidate(cands []candidate, id string) []candidate {
	out := cands[:0]
	for _, c := range cands {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}
