package scheduler

import (
	"sort"
	"time"

	"github.com/outreachcrm/sendpool/internal/enum"
	er "github.com/outreachcrm/sendpool/internal/errors"
	"github.com/outreachcrm/sendpool/internal/models"
)

// candidate is the immutable view of an eligible account that the rotation
// strategies operate on. Selection is pure: same snapshot, same pick.
type candidate struct {
	ID                  string
	DailyUsed           int
	EffectiveDailyLimit int
	Reputation          int
	Warm                bool
	LastUsedAt          *time.Time
}

// selectCandidate runs the configured strategy over a non-empty candidate
// set. With prioritizeWarm, the warm/hot partition is tried first and the
// cold/warming partition is only a fallback.
func selectCandidate(cands []candidate, policy models.RotationPolicy, cursor string) (candidate, error) {
	if policy.PrioritizeWarm {
		var warm, cold []candidate
		for _, c := range cands {
			if c.Warm {
				warm = append(warm, c)
			} else {
				cold = append(cold, c)
			}
		}
		if len(warm) > 0 {
			picked, err := runStrategy(warm, policy, cursor)
			if err == nil || err != er.ErrAccountNotEligible {
				return picked, err
			}
			// manual target may sit in the cold partition
		}
		if len(cold) > 0 {
			return runStrategy(cold, policy, cursor)
		}
		return candidate{}, er.ErrPoolExhausted
	}

	return runStrategy(cands, policy, cursor)
}

func runStrategy(cands []candidate, policy models.RotationPolicy, cursor string) (candidate, error) {
	switch policy.Strategy {
	case enum.StrategyRoundRobin, "":
		return pickRoundRobin(cands, cursor), nil
	case enum.StrategyLeastUsed:
		return pickLeastUsed(cands), nil
	case enum.StrategyBestPerformance:
		return pickBestPerformance(cands), nil
	case enum.StrategyManual:
		return pickManual(cands, policy.AccountID)
	default:
		return candidate{}, er.ErrUnknownStrategy
	}
}

// pickRoundRobin walks a stable id ordering and returns the first candidate
// after the cursor (the previously selected id), wrapping around.
func pickRoundRobin(cands []candidate, cursor string) candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, c := range sorted {
		if c.ID > cursor {
			return c
		}
	}
	return sorted[0]
}

// pickLeastUsed returns argmin(daily_used / effective_daily_limit), breaking
// ties by longest idle first, then id.
func pickLeastUsed(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		cr, br := usageRatio(c), usageRatio(best)
		if cr < br || (cr == br && idleBefore(c, best)) {
			best = c
		}
	}
	return best
}

// pickBestPerformance returns argmax(reputation), with the least_used
// tie-break rules.
func pickBestPerformance(cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Reputation > best.Reputation ||
			(c.Reputation == best.Reputation && idleBefore(c, best)) {
			best = c
		}
	}
	return best
}

// pickManual validates the caller-supplied account id against the eligible set.
func pickManual(cands []candidate, accountID string) (candidate, error) {
	for _, c := range cands {
		if c.ID == accountID {
			return c, nil
		}
	}
	return candidate{}, er.ErrAccountNotEligible
}

func usageRatio(c candidate) float64 {
	if c.EffectiveDailyLimit == 0 {
		return 1
	}
	return float64(c.DailyUsed) / float64(c.EffectiveDailyLimit)
}

// idleBefore reports whether a wins the last_used_at-ascending tie-break
// against b; a never-used account counts as idle the longest.
func idleBefore(a, b candidate) bool {
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt == nil:
		return a.ID < b.ID
	case a.LastUsedAt == nil:
		return true
	case b.LastUsedAt == nil:
		return false
	case a.LastUsedAt.Equal(*b.LastUsedAt):
		return a.ID < b.ID
	default:
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
}
