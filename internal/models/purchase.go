package models

import "time"

// Purchase represents one shopping trip. Money lives on the line items;
// the purchase row only carries where, when and how it was paid.
type Purchase struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Place       string    `gorm:"size:255;not null" json:"place"`
	PaymentType string    `gorm:"size:32;not null" json:"paymentType"`
	CheckNumber *string   `gorm:"size:32" json:"checkNumber"`
	CreatedAt   time.Time `json:"createdAt"`

	LineItems []PurchaseLineItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"lineItems"`
}

// PurchaseLineItem is one category/price pair belonging to a purchase.
// Price is stored as a fixed-point decimal string with two fractional
// digits to avoid float rounding.
type PurchaseLineItem struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	PurchaseID string `gorm:"size:36;index;not null" json:"purchaseId"`
	Category   string `gorm:"size:32;not null" json:"category"`
	Price      string `gorm:"size:16;not null" json:"price"`
}
