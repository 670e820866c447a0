package dto

// PoolHealth is the operator-facing snapshot returned by the scheduler.
type PoolHealth struct {
	CountsByStatus map[string]int `json:"countsByStatus"`
	CountsByWarmup map[string]int `json:"countsByWarmup"`
	Warnings       []string       `json:"warnings"`
}
