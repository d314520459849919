package assignment

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// StatusNone is the previous-status input for freshly created assignments.
const StatusNone Status = ""

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses are never overwritten by date-based recomputation.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// Derive maps an assignment's dates and prior status to its lifecycle
// status. Terminal prior statuses win unconditionally: cancellation is only
// ever applied manually and expiry is never undone by editing dates through
// this function. now must be read once per invocation so a recomputation
// cannot straddle a boundary.
func Derive(startDate time.Time, endDate *time.Time, prev Status, now time.Time) Status {
	switch prev {
	case StatusCancelled:
		return StatusCancelled
	case StatusExpired:
		return StatusExpired
	}
	if now.Before(startDate) {
		return StatusScheduled
	}
	if endDate == nil || !now.After(*endDate) {
		return StatusActive
	}
	return StatusExpired
}
