package utils

import (
	"time"

	"clan-rental-backend/internal/domain"
)

const (
	// CreditValue is the fixed worth of one in-game credit in value units.
	CreditValue int64 = 80000

	// MaxDailyRentalDays is the longest rental charged at the daily rate.
	// Anything longer is charged the flat weekly rate.
	MaxDailyRentalDays = 6

	MinRentalDays = 1
	MaxRentalDays = 7

	// GracePeriod is how long past expiry an active rental is only warned about.
	GracePeriod = 24 * time.Hour
)

// Rates holds the fields derived from an item's market rate.
type Rates struct {
	Daily      int64
	Weekly     int64
	Collateral int64
}

// DeriveRates computes the stored rate fields from a market rate:
// 2% daily, 1.5%/day for a 7-day week (10.5%) and 80% collateral.
// Results are floored.
func DeriveRates(marketRate int64) Rates {
	if marketRate <= 0 {
		return Rates{}
	}
	return Rates{
		Daily:      marketRate * 2 / 100,
		Weekly:     marketRate * 105 / 1000,
		Collateral: marketRate * 80 / 100,
	}
}

// RentalTypeFor returns weekly for rentals longer than six days.
func RentalTypeFor(days int32) domain.RentalType {
	if days > MaxDailyRentalDays {
		return domain.RentalTypeWeekly
	}
	return domain.RentalTypeDaily
}

// LineCost is the cost of renting qty units for the given number of days.
func LineCost(dailyRate, weeklyRate int64, days, qty int32) int64 {
	rate := weeklyRate
	if days <= MaxDailyRentalDays {
		rate = dailyRate * int64(days)
	}
	return rate * int64(qty)
}

// LineCollateral is the collateral owed for qty units.
func LineCollateral(requiredCollateral int64, qty int32) int64 {
	return requiredCollateral * int64(qty)
}

// CreditsFor converts a collateral amount to whole credits, rounding up.
func CreditsFor(collateral int64) int64 {
	if collateral <= 0 {
		return 0
	}
	return (collateral + CreditValue - 1) / CreditValue
}

// Totals recomputes rental cost and collateral from the snapshot lines.
func Totals(lines []domain.RentalItem, days int32) (cost, collateral int64) {
	for _, l := range lines {
		cost += LineCost(l.DailyRate, l.WeeklyRate, days, l.Quantity)
		collateral += l.CollateralAmount
	}
	return cost, collateral
}

// ReconcileAvailable keeps the units currently out on rent when the stock
// quantity of an item is edited.
func ReconcileAvailable(oldQuantity, oldAvailable, newQuantity int32) int32 {
	rented := oldQuantity - oldAvailable
	if rented < 0 {
		rented = 0
	}
	n := newQuantity - rented
	if n < 0 {
		return 0
	}
	return n
}

// ConsumeStock applies an approval to an item: the rented quantity is taken
// out of the available stock, floored at zero.
func ConsumeStock(available, qty int32) (int32, domain.ItemAvailability) {
	n := available - qty
	if n < 0 {
		n = 0
	}
	if n == 0 {
		return 0, domain.ItemUnavailable
	}
	return n, domain.ItemAvailable
}

// RestoreStock gives rented units back, capped at the total quantity.
func RestoreStock(available, total, qty int32) (int32, domain.ItemAvailability) {
	n := available + qty
	if n > total {
		n = total
	}
	return n, domain.ItemAvailable
}
