package enum

type RotationStrategy string

const (
	StrategyRoundRobin      RotationStrategy = "round_robin"
	StrategyLeastUsed       RotationStrategy = "least_used"
	StrategyBestPerformance RotationStrategy = "best_performance"
	StrategyManual          RotationStrategy = "manual"
)

func (t RotationStrategy) String() string {
	return string(t)
}

func (t RotationStrategy) IsValid() bool {
	switch t {
	case StrategyRoundRobin, StrategyLeastUsed, StrategyBestPerformance, StrategyManual:
		return true
	}
	return false
}

type SendOutcome string

const (
	OutcomeSuccess    SendOutcome = "success"
	OutcomeThrottled  SendOutcome = "throttled"
	OutcomeFatalError SendOutcome = "fatal_error"
	OutcomeAbandoned  SendOutcome = "abandoned"
)

func (t SendOutcome) String() string {
	return string(t)
}

func (t SendOutcome) IsValid() bool {
	switch t {
	case OutcomeSuccess, OutcomeThrottled, OutcomeFatalError, OutcomeAbandoned:
		return true
	}
	return false
}
