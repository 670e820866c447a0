package scheduler

import (
	"time"

	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/models"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// applyThrottle records a provider throttling signal. A signal landing before
// the previous cooldown expired doubles the duration, capped at max; a signal
// after expiry starts over at the base duration. Callers hold the account lock.
func applyThrottle(acc *models.SendingAccount, now time.Time, base, max time.Duration) time.Duration {
	if acc.CooldownUntil != nil && now.Before(*acc.CooldownUntil) {
		acc.ThrottleStreak++
	} else {
		acc.ThrottleStreak = 0
	}

	duration := base
	for i := 0; i < acc.ThrottleStreak; i++ {
		duration *= 2
		if duration >= max {
			duration = max
			break
		}
	}
	if duration > max {
		duration = max
	}

	acc.CooldownUntil = utils.TimePtr(now.Add(duration))
	acc.Status = enum.AccountStatusRateLimited
	return duration
}

// applyFatal marks the account terminally errored. Only an external
// reinstatement clears this state.
func applyFatal(acc *models.SendingAccount) {
	acc.Status = enum.AccountStatusError
	acc.CooldownUntil = nil
}

// applySuccess resets the backoff streak on a clean send and normalizes a
// rate_limited account whose cooldown has already lapsed.
func applySuccess(acc *models.SendingAccount, now time.Time) {
	acc.ThrottleStreak = 0
	if acc.Status == enum.AccountStatusRateLimited && cooldownLapsed(acc, now) {
		acc.Status = enum.AccountStatusActive
		acc.CooldownUntil = nil
	}
}

// lazyRecover normalizes an expired rate_limited account back to active.
// Recovery happens at selection time; no dedicated recovery job exists.
// Callers hold the account lock.
func lazyRecover(acc *models.SendingAccount, now time.Time) bool {
	if acc.Status != enum.AccountStatusRateLimited {
		return false
	}
	if acc.CooldownUntil == nil || now.Before(*acc.CooldownUntil) {
		return false
	}
	acc.Status = enum.AccountStatusActive
	acc.CooldownUntil = nil
	return true
}

func cooldownLapsed(acc *models.SendingAccount, now time.Time) bool {
	return acc.CooldownUntil == nil || !now.Before(*acc.CooldownUntil)
}
