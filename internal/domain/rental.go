package domain

import "time"

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusCompleted RentalStatus = "completed"
	RentalStatusCancelled RentalStatus = "cancelled"
)

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusActive, RentalStatusCompleted, RentalStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
	PaymentTrade  PaymentMethod = "trade"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCredit, PaymentTrade:
		return true
	}
	return false
}

type RentalType string

const (
	RentalTypeDaily  RentalType = "daily"
	RentalTypeWeekly RentalType = "weekly"
)

type DeliveryLocation string

const (
	DeliveryCampValcrest DeliveryLocation = "Camp Valcrest"
	DeliveryOutpost      DeliveryLocation = "Outpost"
)

func (l DeliveryLocation) Valid() bool {
	return l == DeliveryCampValcrest || l == DeliveryOutpost
}

// RentalItem is the price/term snapshot of one catalog item taken when the
// rental was created. Later catalog edits never touch it.
type RentalItem struct {
	ItemID           int32  `json:"item_id"`
	ItemName         string `json:"item_name"`
	ItemImageURL     string `json:"item_image_url,omitempty"`
	Quantity         int32  `json:"quantity"`
	DailyRate        int64  `json:"daily_rate"`
	WeeklyRate       int64  `json:"weekly_rate"`
	CollateralAmount int64  `json:"collateral_amount"`
}

// CollateralItem is a catalog item pledged as collateral for a trade payment.
type CollateralItem struct {
	ItemID   int32  `json:"item_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	ImageURL string `json:"image_url,omitempty"`
	Value    int64  `json:"value"`
}

type Rental struct {
	ID               int32            `json:"id"`
	TicketNumber     int64            `json:"ticket_number"`
	Items            []RentalItem     `json:"items"`
	RenterID         string           `json:"renter_id"`
	RenterNickname   string           `json:"renter_nickname"`
	PaymentMethod    PaymentMethod    `json:"payment_method"`
	CollateralAmount int64            `json:"collateral_amount"`
	CollateralItems  []CollateralItem `json:"collateral_items,omitempty"`
	CreditsRequired  int64            `json:"credits_required"`
	RentalCost       int64            `json:"rental_cost"`
	RentalType       RentalType       `json:"rental_type"`
	RentalDays       int32            `json:"rental_days"`
	DeliveryLocation DeliveryLocation `json:"delivery_location"`
	TermsAccepted    bool             `json:"terms_accepted"`
	TermsText        string           `json:"terms_text"`
	Status           RentalStatus     `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	StartDate        *time.Time       `json:"start_date,omitempty"`
	EndDate          *time.Time       `json:"end_date,omitempty"`
}

// TotalQuantity sums the rented units across all lines.
func (r *Rental) TotalQuantity() int32 {
	var n int32
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}
