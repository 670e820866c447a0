package enum

type Channel string

const (
	ChannelLinkedinPersonal Channel = "linkedin_personal"
	ChannelLinkedinSalesNav Channel = "linkedin_sales_nav"
	ChannelEmail            Channel = "email"
)

func (t Channel) String() string {
	return string(t)
}

func (t Channel) IsValid() bool {
	switch t {
	case ChannelLinkedinPersonal, ChannelLinkedinSalesNav, ChannelEmail:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive      AccountStatus = "active"
	AccountStatusInactive    AccountStatus = "inactive"
	AccountStatusRateLimited AccountStatus = "rate_limited"
	AccountStatusError       AccountStatus = "error"
)

func (t AccountStatus) String() string {
	return string(t)
}

type WarmupStatus string

const (
	WarmupCold    WarmupStatus = "cold"
	WarmupWarming WarmupStatus = "warming"
	WarmupWarm    WarmupStatus = "warm"
	WarmupHot     WarmupStatus = "hot"
)

func (t WarmupStatus) String() string {
	return string(t)
}

// warmupOrder is the forward progression of warmup states.
var warmupOrder = []WarmupStatus{WarmupCold, WarmupWarming, WarmupWarm, WarmupHot}

// Next returns the following warmup state, or the same state if already hot.
func (t WarmupStatus) Next() WarmupStatus {
	for i, s := range warmupOrder {
		if s == t && i < len(warmupOrder)-1 {
			return warmupOrder[i+1]
		}
	}
	return t
}

// Previous returns the preceding warmup state, or the same state if already cold.
func (t WarmupStatus) Previous() WarmupStatus {
	for i, s := range warmupOrder {
		if s == t && i > 0 {
			return warmupOrder[i-1]
		}
	}
	return t
}

// IsWarm reports whether the state belongs to the warm/hot partition.
func (t WarmupStatus) IsWarm() bool {
	return t == WarmupWarm || t == WarmupHot
}
