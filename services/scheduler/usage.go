package scheduler

import (
	"time"

	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
)

// dailyPeriodStart returns midnight of the current day in the account's
// timezone, as a UTC instant.
func dailyPeriodStart(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.UTC()
}

// weeklyPeriodStart returns the most recent weekStart midnight in the
// account's timezone, as a UTC instant.
func weeklyPeriodStart(now time.Time, loc *time.Location, weekStart time.Weekday) time.Time {
	local := now.In(loc)
	daysBack := int(local.Weekday()) - int(weekStart)
	if daysBack < 0 {
		daysBack += 7
	}
	start := time.Date(local.Year(), local.Month(), local.Day()-daysBack, 0, 0, 0, 0, loc)
	return start.UTC()
}

// rollPeriods lazily resets counters whose period boundary has passed.
// It is evaluated on every read of an account, so no background sweep is
// required for correctness. Callers hold the account lock.
func rollPeriods(acc *models.SendingAccount, now time.Time, weekStart time.Weekday) {
	loc := acc.Location()

	daily := dailyPeriodStart(now, loc)
	if acc.DailyPeriodStart.Before(daily) {
		acc.DailyUsed = 0
		acc.DailyPeriodStart = daily
	}

	weekly := weeklyPeriodStart(now, loc, weekStart)
	if acc.WeeklyPeriodStart.Before(weekly) {
		acc.WeeklyUsed = 0
		acc.WeeklyPeriodStart = weekly
	}
}

// incrementUsage adds amount to both counters. The eligibility filter is the
// primary gate; this guard exists so a filter bug surfaces as a loud error
// instead of a silent quota breach. Callers hold the account lock.
func incrementUsage(acc *models.SendingAccount, amount int) error {
	if acc.DailyUsed+amount > acc.DailyLimit || acc.WeeklyUsed+amount > acc.WeeklyLimit {
		return er.ErrCounterOverflow
	}
	acc.DailyUsed += amount
	acc.WeeklyUsed += amount
	return nil
}
