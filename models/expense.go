package models

import (
	"time"

	"expense-tracker-backend/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Categories is the fixed set of allowed expense categories.
var Categories = []string{
	"Food", "Transport", "Housing", "Utilities",
	"Entertainment", "Health", "Shopping", "Other",
}

// ValidCategory reports whether cat is in the whitelist.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Expense is a single spending record. Created exactly once per successful
// idempotency key; never updated or deleted through the API.
type Expense struct {
	Id          string       `json:"id" gorm:"primaryKey"`
	Amount      money.Amount `json:"amount" gorm:"type:numeric(12,2);not null"`
	Category    string       `json:"category" gorm:"size:32;not null;index"`
	Description string       `json:"description" gorm:"size:255;not null"`
	Date        time.Time    `json:"date" gorm:"type:date;not null;index"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	e.Id = uuid.NewString()
	return
}

// ExpenseFilter narrows and orders expense listings.
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
	Sort     string // date_asc | date_desc | amount_asc | amount_desc
}
