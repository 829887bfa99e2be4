package domain

import "time"

// Settings is the clan-wide configuration record edited by admins.
type Settings struct {
	CashEnabled     bool      `json:"cash_enabled"`
	CreditEnabled   bool      `json:"credit_enabled"`
	ItemsEnabled    bool      `json:"items_enabled"`
	DefaultLanguage string    `json:"default_language"`
	UpdatedBy       string    `json:"updated_by,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		CashEnabled:     true,
		CreditEnabled:   true,
		ItemsEnabled:    true,
		DefaultLanguage: "pt",
	}
}

// Allows reports whether the given payment method is currently accepted.
func (s Settings) Allows(m PaymentMethod) bool {
	switch m {
	case PaymentCash:
		return s.CashEnabled
	case PaymentCredit:
		return s.CreditEnabled
	case PaymentTrade:
		return s.ItemsEnabled
	}
	return false
}
