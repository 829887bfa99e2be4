package domain

type DashboardStats struct {
	TotalItems       int32 `json:"total_items"`
	AvailableItems   int32 `json:"available_items"`
	PendingRentals   int32 `json:"pending_rentals"`
	ActiveRentals    int32 `json:"active_rentals"`
	CompletedRentals int32 `json:"completed_rentals"`
}
