package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/models"
)

// accountState pairs an account record with its own lock. All scheduling
// decisions for one account serialize on this lock; accounts never contend
// with each other.
type accountState struct {
	mu  sync.Mutex
	acc *models.SendingAccount
}

func (s *accountState) snapshot() models.SendingAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.acc
}

// accountPool is the authoritative in-memory registry, hydrated from
// postgres at startup and kept current by the account lifecycle calls.
type accountPool struct {
	mu       sync.RWMutex
	accounts map[string]*accountState
}

func newAccountPool() *accountPool {
	return &accountPool{accounts: map[string]*accountState{}}
}

func poolKey(workspace, id string) string {
	return workspace + "|" + id
}

func (p *accountPool) get(workspace, id string) *accountState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.accounts[poolKey(workspace, id)]
}

func (p *accountPool) put(acc *models.SendingAccount) *accountState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := &accountState{acc: acc}
	p.accounts[poolKey(acc.Workspace, acc.ID)] = st
	return st
}

func (p *accountPool) remove(workspace, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.accounts, poolKey(workspace, id))
}

// forWorkspace returns the states of one workspace in stable id order.
func (p *accountPool) forWorkspace(workspace string) []*accountState {
	p.mu.RLock()
	var states []*accountState
	for _, st := range p.accounts {
		if st.acc.Workspace == workspace {
			states = append(states, st)
		}
	}
	p.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool { return states[i].acc.ID < states[j].acc.ID })
	return states
}

// eligibleSnapshot evaluates the eligibility predicate over one workspace's
// accounts and returns selection candidates in stable id order. An empty
// result is not an error; the facade maps it to pool exhaustion.
func (p *accountPool) eligibleSnapshot(
	workspace string,
	channel enum.Channel,
	policy models.RotationPolicy,
	now time.Time,
	wp warmupPolicy,
	weekStart time.Weekday,
	reserved func(accountID string) int,
) []candidate {
	var out []candidate

	for _, st := range p.forWorkspace(workspace) {
		st.mu.Lock()
		acc := st.acc

		if acc.Channel != channel {
			st.mu.Unlock()
			continue
		}

		rollPeriods(acc, now, weekStart)
		lazyRecover(acc, now)

		if !statusEligible(acc, policy, now) {
			st.mu.Unlock()
			continue
		}

		// A counter past its limit is an invariant violation; such an
		// account is filtered, never clamped.
		if acc.DailyUsed > acc.DailyLimit || acc.WeeklyUsed > acc.WeeklyLimit {
			st.mu.Unlock()
			continue
		}

		effDaily := wp.effectiveDailyLimit(acc)
		if policy.MaxDailyOverride > 0 && policy.MaxDailyOverride < effDaily {
			effDaily = policy.MaxDailyOverride
		}
		effWeekly := wp.effectiveWeeklyLimit(acc)

		held := reserved(acc.ID)
		if acc.DailyUsed+held >= effDaily || acc.WeeklyUsed+held >= effWeekly {
			st.mu.Unlock()
			continue
		}

		out = append(out, candidate{
			ID:                  acc.ID,
			DailyUsed:           acc.DailyUsed,
			EffectiveDailyLimit: effDaily,
			Reputation:          acc.Reputation,
			Warm:                acc.WarmupStatus.IsWarm(),
			LastUsedAt:          acc.LastUsedAt,
		})
		st.mu.Unlock()
	}

	return out
}

func statusEligible(acc *models.SendingAccount, policy models.RotationPolicy, now time.Time) bool {
	// An unexpired cooldown excludes the account regardless of status.
	if acc.CooldownUntil != nil && now.Before(*acc.CooldownUntil) {
		return false
	}

	switch acc.Status {
	case enum.AccountStatusActive:
		return true
	case enum.AccountStatusRateLimited:
		// Expired cooldowns were normalized by lazyRecover above; what's
		// left is a rate_limited flag with no cooldown stamp.
		return !policy.AvoidRateLimited
	default:
		return false
	}
}
