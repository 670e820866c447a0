package cron_config

type Config struct {
	// Defaults to each minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Defaults to every 30 seconds
	CronScheduleSweepReservations string `env:"CRON_SCHEDULE_SWEEP_RESERVATIONS" envDefault:"*/30 * * * * *"`
	// Defaults to every 5 minutes
	CronScheduleFlushUsage string `env:"CRON_SCHEDULE_FLUSH_USAGE" envDefault:"0 */5 * * * *"`
}
