package scheduler

import (
	"time"

	"groupfarm/internal/storage"
)

// Decision is the outcome of evaluating one account for this pass.
type Decision int

const (
	Eligible Decision = iota
	// QuotaExhausted: the account created its lifetime quota of groups.
	// Skipped every pass from now on; no state change.
	QuotaExhausted
	// AgeExceeded: the account outlived its maximum age. The caller
	// disables it.
	AgeExceeded
	// CoolingDown: too soon after the last provisioning action. Skipped
	// this pass only.
	CoolingDown
)

func (d Decision) String() string {
	switch d {
	case Eligible:
		return "eligible"
	case QuotaExhausted:
		return "quota_exhausted"
	case AgeExceeded:
		return "age_exceeded"
	case CoolingDown:
		return "cooling_down"
	default:
		return "unknown"
	}
}

// Evaluate decides whether an account may provision a group at now.
//
// Check order is part of the contract: quota before age before cooldown, so
// an account that is both quota-exhausted and over-age is skipped as
// quota-exhausted and keeps its Active state.
func Evaluate(acc storage.Account, lim Limits, now time.Time) Decision {
	if acc.CreatedGroups >= lim.MaxGroups {
		return QuotaExhausted
	}
	if acc.FirstActivityAt != nil && now.Sub(*acc.FirstActivityAt) > lim.MaxAge {
		return AgeExceeded
	}
	if acc.LastGroupAt != nil && now.Sub(*acc.LastGroupAt) < lim.Cooldown {
		return CoolingDown
	}
	return Eligible
}
