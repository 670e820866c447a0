package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/outreachcrm/sendpool/internal/enum"
	"github.com/outreachcrm/sendpool/internal/utils"
)

// SendingAccount is one outbound channel identity (a LinkedIn seat or an
// email mailbox) owned by a workspace. All scheduling state lives here;
// only the scheduler mutates it after creation.
type SendingAccount struct {
	ID        string       `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Workspace string       `gorm:"column:workspace;type:varchar(255);index;not null" json:"workspace"`
	Channel   enum.Channel `gorm:"column:channel;type:varchar(50);index;not null" json:"channel"`

	Status       enum.AccountStatus `gorm:"column:status;type:varchar(50);not null;default:active" json:"status"`
	WarmupStatus enum.WarmupStatus  `gorm:"column:warmup_status;type:varchar(50);not null;default:cold" json:"warmupStatus"`
	Reputation   int                `gorm:"column:reputation;not null;default:50" json:"reputation"`

	// Send quotas. Used counters are stored with their period-start stamps so
	// a reader can tell a stale pre-reset value from a live one.
	DailyLimit        int       `gorm:"column:daily_limit;not null" json:"dailyLimit"`
	DailyUsed         int       `gorm:"column:daily_used;not null;default:0" json:"dailyUsed"`
	DailyPeriodStart  time.Time `gorm:"column:daily_period_start;type:timestamp" json:"dailyPeriodStart"`
	WeeklyLimit       int       `gorm:"column:weekly_limit;not null" json:"weeklyLimit"`
	WeeklyUsed        int       `gorm:"column:weekly_used;not null;default:0" json:"weeklyUsed"`
	WeeklyPeriodStart time.Time `gorm:"column:weekly_period_start;type:timestamp" json:"weeklyPeriodStart"`
	Timezone          string    `gorm:"column:timezone;type:varchar(64);default:UTC" json:"timezone"`

	// Cooldown / failure tracking
	CooldownUntil       *time.Time `gorm:"column:cooldown_until;type:timestamp" json:"cooldownUntil"`
	ThrottleStreak      int        `gorm:"column:throttle_streak;not null;default:0" json:"throttleStreak"`
	ConsecutiveFailures int        `gorm:"column:consecutive_failures;not null;default:0" json:"consecutiveFailures"`

	// Warmup progression
	WarmupStateSince *time.Time `gorm:"column:warmup_state_since;type:timestamp" json:"warmupStateSince"`
	WarmupStateSends int        `gorm:"column:warmup_state_sends;not null;default:0" json:"warmupStateSends"`

	TotalSent   int64      `gorm:"column:total_sent;not null;default:0" json:"totalSent"`
	FirstUsedAt *time.Time `gorm:"column:first_used_at;type:timestamp" json:"firstUsedAt"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at;type:timestamp" json:"lastUsedAt"`

	// Opaque operator metadata, not interpreted by the scheduler
	Tags       pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	AssignedTo string         `gorm:"column:assigned_to;type:varchar(255)" json:"assignedTo"`

	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (SendingAccount) TableName() string {
	return "sending_accounts"
}

func (m *SendingAccount) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("acct", 16)
	}
	return nil
}

// Location resolves the account timezone, falling back to UTC on anything
// unparseable.
func (m *SendingAccount) Location() *time.Location {
	if m.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
