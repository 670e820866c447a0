package models

import "github.com/outreachcrm/sendpool/internal/enum"

// RotationPolicy configures a single selection request. Zero values fall back
// to workspace/service defaults.
type RotationPolicy struct {
	Strategy enum.RotationStrategy `json:"strategy"`

	// MaxDailyOverride caps the daily quota tighter than the account's own
	// limit when > 0.
	MaxDailyOverride int `json:"maxDailyOverride,omitempty"`

	// CooldownMinutes is the base cooldown applied on a throttle signal;
	// 0 uses the configured default.
	CooldownMinutes int `json:"cooldownMinutes,omitempty"`

	// PrioritizeWarm prefers warm/hot accounts over cold/warming ones.
	PrioritizeWarm bool `json:"prioritizeWarm,omitempty"`

	// AvoidRateLimited excludes rate_limited accounts that carry no cooldown
	// stamp. Accounts whose cooldown has expired recover regardless.
	AvoidRateLimited bool `json:"avoidRateLimited,omitempty"`

	// AccountID names the explicit account for the manual strategy.
	AccountID string `json:"accountId,omitempty"`
}
