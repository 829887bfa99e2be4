package domain

import "time"

type ItemAvailability string

const (
	ItemAvailable   ItemAvailability = "available"
	ItemUnavailable ItemAvailability = "unavailable"
	ItemReserved    ItemAvailability = "reserved"
)

func (a ItemAvailability) Valid() bool {
	switch a {
	case ItemAvailable, ItemUnavailable, ItemReserved:
		return true
	}
	return false
}

// Item is a catalog entry. DailyRate, WeeklyRate and RequiredCollateral are
// derived from MarketRate when the item is written and stored as-is; they are
// never recomputed on read.
type Item struct {
	ID                 int32            `json:"id"`
	Name               string           `json:"name"`
	Category           string           `json:"category"`
	ImageURL           string           `json:"image_url,omitempty"`
	Availability       ItemAvailability `json:"availability"`
	DailyRate          int64            `json:"daily_rate"`
	WeeklyRate         int64            `json:"weekly_rate"`
	MarketRate         int64            `json:"market_rate"`
	RequiredCollateral int64            `json:"required_collateral"`
	Quantity           int32            `json:"quantity"`
	AvailableQuantity  int32            `json:"available_quantity"`
	CreatedBy          string           `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// RentedOut is the number of units currently consumed by active rentals.
func (i *Item) RentedOut() int32 {
	return i.Quantity - i.AvailableQuantity
}
