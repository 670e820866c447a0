package scheduler

import (
	"time"

	"github.com/outreachcrm/sendpool/config"
	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// warmupPolicy holds the configured maturity thresholds. Advancement needs
// enough successful sends, enough calendar time in the current state and a
// healthy reputation; regression moves exactly one state back.
type warmupPolicy struct {
	sendsToAdvance          map[enum.WarmupStatus]int
	minDays                 map[enum.WarmupStatus]int
	minReputation           map[enum.WarmupStatus]int
	capacityMultiplier      map[enum.WarmupStatus]float64
	reputationFloor         int
	consecutiveFailureLimit int
}

var warmupTransitions = []enum.WarmupStatus{enum.WarmupCold, enum.WarmupWarming, enum.WarmupWarm}

func newWarmupPolicy(cfg *config.SchedulerConfig) warmupPolicy {
	p := warmupPolicy{
		sendsToAdvance:          map[enum.WarmupStatus]int{},
		minDays:                 map[enum.WarmupStatus]int{},
		minReputation:           map[enum.WarmupStatus]int{},
		capacityMultiplier:      map[enum.WarmupStatus]float64{},
		reputationFloor:         cfg.ReputationFloor,
		consecutiveFailureLimit: cfg.ConsecutiveFailureLimit,
	}
	for i, state := range warmupTransitions {
		if i < len(cfg.WarmupSendsToAdvance) {
			p.sendsToAdvance[state] = cfg.WarmupSendsToAdvance[i]
		}
		if i < len(cfg.WarmupMinDays) {
			p.minDays[state] = cfg.WarmupMinDays[i]
		}
		if i < len(cfg.WarmupMinReputation) {
			p.minReputation[state] = cfg.WarmupMinReputation[i]
		}
	}
	states := []enum.WarmupStatus{enum.WarmupCold, enum.WarmupWarming, enum.WarmupWarm, enum.WarmupHot}
	for i, state := range states {
		if i < len(cfg.WarmupCapacityMultipliers) {
			p.capacityMultiplier[state] = cfg.WarmupCapacityMultipliers[i]
		} else {
			p.capacityMultiplier[state] = 1.0
		}
	}
	return p
}

// effectiveDailyLimit applies the warmup capacity multiplier to the
// configured daily limit. A positive limit never rounds down to zero, so a
// cold account with a tiny quota can still ramp.
func (p warmupPolicy) effectiveDailyLimit(acc *models.SendingAccount) int {
	return p.scaled(acc.DailyLimit, acc.WarmupStatus)
}

func (p warmupPolicy) effectiveWeeklyLimit(acc *models.SendingAccount) int {
	return p.scaled(acc.WeeklyLimit, acc.WarmupStatus)
}

func (p warmupPolicy) scaled(limit int, state enum.WarmupStatus) int {
	mult, ok := p.capacityMultiplier[state]
	if !ok || mult >= 1.0 {
		return limit
	}
	scaled := int(float64(limit) * mult)
	if scaled < 1 && limit > 0 {
		return 1
	}
	return scaled
}

// maybeAdvance moves the account forward at most one state per evaluation.
// Callers hold the account lock.
func (p warmupPolicy) maybeAdvance(acc *models.SendingAccount, now time.Time) bool {
	state := acc.WarmupStatus
	if state == enum.WarmupHot {
		return false
	}

	needSends, ok := p.sendsToAdvance[state]
	if !ok {
		return false
	}
	if acc.WarmupStateSends < needSends {
		return false
	}

	since := acc.WarmupStateSince
	if since == nil {
		since = acc.FirstUsedAt
	}
	if since == nil {
		return false
	}
	if int(now.Sub(*since).Hours()/24) < p.minDays[state] {
		return false
	}

	if acc.Reputation < p.minReputation[state] {
		return false
	}

	acc.WarmupStatus = state.Next()
	acc.WarmupStateSends = 0
	acc.WarmupStateSince = utils.TimePtr(now)
	return true
}

// shouldRegress reports whether a negative outcome warrants a regression.
// Callers bump ConsecutiveFailures before asking.
func (p warmupPolicy) shouldRegress(acc *models.SendingAccount) bool {
	return acc.Reputation < p.reputationFloor ||
		acc.ConsecutiveFailures >= p.consecutiveFailureLimit
}

// regress moves the account back exactly one state and restarts the failure
// streak, so the next regression needs a fresh run of negative events.
// Callers hold the account lock.
func (p warmupPolicy) regress(acc *models.SendingAccount, now time.Time) bool {
	if acc.WarmupStatus == enum.WarmupCold {
		acc.ConsecutiveFailures = 0
		return false
	}
	acc.WarmupStatus = acc.WarmupStatus.Previous()
	acc.WarmupStateSends = 0
	acc.WarmupStateSince = utils.TimePtr(now)
	acc.ConsecutiveFailures = 0
	return true
}
