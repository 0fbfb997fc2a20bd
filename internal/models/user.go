package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the tutorial stream a user registers for.
type Category string

const (
	CategoryNone           Category = ""
	CategorySocialScience  Category = "Social Science"
	CategoryNaturalScience Category = "Natural Science"
)

// Valid reports whether c is one of the offered categories.
func (c Category) Valid() bool {
	return c == CategorySocialScience || c == CategoryNaturalScience
}

// PaymentMethod is the mobile-money channel used for the fee and for payouts.
type PaymentMethod string

const (
	PaymentMethodNone     PaymentMethod = ""
	PaymentMethodTeleBirr PaymentMethod = "TeleBirr"
	PaymentMethodCBEBirr  PaymentMethod = "CBE Birr"
)

// Valid reports whether m is one of the supported channels.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodTeleBirr || m == PaymentMethodCBEBirr
}

// User represents a chat user going through registration.
// ID is the platform user id; it never changes.
type User struct {
	ID            int64
	ChatID        int64
	DisplayName   string
	FullName      string // name typed during registration
	Phone         string
	Category      Category
	PaymentMethod PaymentMethod
	AccountNumber string
	AccountName   string
	Status        UserStatus
	ReferredBy    *int64
	ReferralCount int
	RewardBalance decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsVerified reports whether the user's payment has been approved.
func (u User) IsVerified() bool {
	return u.Status == StatusVerified
}

// Name returns the best available name for display.
func (u User) Name() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "Student"
}

// Stats is the read-only health projection. Nothing here is stored.
type Stats struct {
	Users              int `json:"users"`
	Verified           int `json:"verified"`
	PendingSubmissions int `json:"pending"`
	PendingWithdrawals int `json:"withdrawals"`
	Referrals          int `json:"referrals"`
}
