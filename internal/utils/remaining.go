package utils

import (
	"time"

	"clan-rental-backend/internal/domain"
)

// RemainingTime describes how long an active rental has left.
type RemainingTime struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Expired bool  `json:"expired"`

	// WithinGrace is set for expired rentals still inside the 24h window.
	WithinGrace    bool       `json:"within_grace"`
	GraceHoursLeft int64      `json:"grace_hours_left"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// ExpiresAt returns approvedAt plus rentalDays calendar days.
func ExpiresAt(r *domain.Rental) (time.Time, bool) {
	if r.ApprovedAt == nil {
		return time.Time{}, false
	}
	return r.ApprovedAt.AddDate(0, 0, int(r.RentalDays)), true
}

// CalculateRemainingTime is only meaningful for active rentals; anything else
// reports zero and not expired.
func CalculateRemainingTime(r *domain.Rental, now time.Time) RemainingTime {
	if r.Status != domain.RentalStatusActive {
		return RemainingTime{}
	}
	end, ok := ExpiresAt(r)
	if !ok {
		return RemainingTime{}
	}

	diff := end.Sub(now)
	if diff <= 0 {
		rt := RemainingTime{Expired: true, ExpiresAt: &end}
		overdue := -diff
		if overdue <= GracePeriod {
			rt.WithinGrace = true
			left := GracePeriod - overdue
			rt.GraceHoursLeft = int64((left + time.Hour - 1) / time.Hour)
		}
		return rt
	}

	return RemainingTime{
		Days:      int64(diff / (24 * time.Hour)),
		Hours:     int64(diff % (24 * time.Hour) / time.Hour),
		Minutes:   int64(diff % time.Hour / time.Minute),
		ExpiresAt: &end,
	}
}

// OverdueBeyondGrace reports rentals past the grace window.
func OverdueBeyondGrace(r *domain.Rental, now time.Time) bool {
	rt := CalculateRemainingTime(r, now)
	return rt.Expired && !rt.WithinGrace
}
