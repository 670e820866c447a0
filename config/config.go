package config

import (
	"time"

	"github.com/outreachcrm/sendpool/internal/logger"
	"github.com/outreachcrm/sendpool/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"11311"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type DatabaseConfig struct {
	Host            string `env:"SENDPOOL_POSTGRES_HOST,required"`
	Port            string `env:"SENDPOOL_POSTGRES_PORT,required"`
	User            string `env:"SENDPOOL_POSTGRES_USER,required"`
	DBName          string `env:"SENDPOOL_POSTGRES_DB_NAME,required"`
	Password        string `env:"SENDPOOL_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"SENDPOOL_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"SENDPOOL_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"SENDPOOL_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"SENDPOOL_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"SENDPOOL_POSTGRES_SSL_MODE"`
}

// SchedulerConfig carries every tunable the scheduler core reads. None of
// these numbers are hard-coded anywhere else; UI-visible defaults from the
// product ("50 sends", "30 minutes") live here.
type SchedulerConfig struct {
	ReservationTTL time.Duration `env:"RESERVATION_TTL" envDefault:"30s"`

	DefaultCooldown time.Duration `env:"COOLDOWN_DEFAULT" envDefault:"30m"`
	MaxCooldown     time.Duration `env:"COOLDOWN_MAX" envDefault:"6h"`

	// WeeklyResetWeekday follows time.Weekday numbering (0 = Sunday).
	WeeklyResetWeekday int `env:"WEEKLY_RESET_WEEKDAY" envDefault:"1"`

	// Warmup advancement thresholds, one entry per forward transition
	// (cold->warming, warming->warm, warm->hot).
	WarmupSendsToAdvance []int `env:"WARMUP_SENDS_TO_ADVANCE" envSeparator:"," envDefault:"50,150,300"`
	WarmupMinDays        []int `env:"WARMUP_MIN_DAYS" envSeparator:"," envDefault:"7,14,21"`
	WarmupMinReputation  []int `env:"WARMUP_MIN_REPUTATION" envSeparator:"," envDefault:"60,70,80"`

	// Capacity multipliers per warmup state (cold, warming, warm, hot),
	// applied to configured limits when computing eligibility.
	WarmupCapacityMultipliers []float64 `env:"WARMUP_CAPACITY_MULTIPLIERS" envSeparator:"," envDefault:"0.2,0.5,0.8,1.0"`

	// ReputationFloor below which an account regresses one warmup state.
	ReputationFloor         int `env:"REPUTATION_FLOOR" envDefault:"30"`
	ConsecutiveFailureLimit int `env:"CONSECUTIVE_FAILURE_LIMIT" envDefault:"2"`

	// Reputation adjustments per outcome.
	ReputationSuccessDelta  int `env:"REPUTATION_SUCCESS_DELTA" envDefault:"1"`
	ReputationThrottleDelta int `env:"REPUTATION_THROTTLE_DELTA" envDefault:"-5"`
	ReputationFatalDelta    int `env:"REPUTATION_FATAL_DELTA" envDefault:"-20"`

	// Usage persistence retry policy for write-behind flushes.
	PersistMaxRetries int           `env:"PERSIST_MAX_RETRIES" envDefault:"3"`
	PersistBackoff    time.Duration `env:"PERSIST_BACKOFF" envDefault:"500ms"`

	// Pool health warning threshold: accounts within this many sends of
	// their daily cap are reported.
	HealthNearLimitMargin int `env:"HEALTH_NEAR_LIMIT_MARGIN" envDefault:"2"`
}
