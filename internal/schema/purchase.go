package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/util"
)

// Categories a line item may carry.
var Categories = []string{
	"Grocery",
	"Restaurant",
	"Clothing",
	"Gas",
	"Medication",
	"Entertainment",
	"Babysitter",
	"Gift",
	"Misc",
}

// PaymentTypes the household actually uses. "Check" may carry a check
// number but is accepted without one.
var PaymentTypes = []string{
	"Citi x8215",
	"Chase x4694",
	"WSFS debit",
	"Other debit",
	"Check",
	"Cash",
	"HSA",
}

// FieldError is one field-level validation failure, returned verbatim in
// the 400 response body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// InsertLineItem is the wire format of one submitted line item.
type InsertLineItem struct {
	Category string `json:"category"`
	Price    string `json:"price"`
}

// InsertPurchase is the wire format of a purchase creation request. It is
// deliberately independent of the storage entities; ToModel maps it over
// after validation.
type InsertPurchase struct {
	Date        string           `json:"date"`
	Place       string           `json:"place"`
	PaymentType string           `json:"paymentType"`
	CheckNumber string           `json:"checkNumber"`
	LineItems   []InsertLineItem `json:"lineItems"`
}

// accepted date layouts, most specific first
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", s)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks every field and collects all failures instead of
// stopping at the first one.
func (p *InsertPurchase) Validate() FieldErrors {
	var errs FieldErrors

	if p.Date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "Date is required"})
	} else if _, err := parseDate(p.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "Invalid date"})
	}

	if strings.TrimSpace(p.Place) == "" {
		errs = append(errs, FieldError{Field: "place", Message: "Place is required"})
	}

	if !oneOf(p.PaymentType, PaymentTypes) {
		errs = append(errs, FieldError{Field: "paymentType", Message: "Unknown payment type"})
	}

	if len(p.LineItems) == 0 {
		errs = append(errs, FieldError{Field: "lineItems", Message: "At least one line item is required"})
	}
	for i, item := range p.LineItems {
		if !oneOf(item.Category, Categories) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("lineItems.%d.category", i),
				Message: "Unknown category",
			})
		}
		if err := util.ValidatePrice(item.Price); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("lineItems.%d.price", i),
				Message: "Invalid price format",
			})
		}
	}

	return errs
}

// ToModel maps a validated request onto the storage entity. Identity and
// timestamps are left blank; the store assigns them.
func (p *InsertPurchase) ToModel() models.Purchase {
	date, _ := parseDate(p.Date)

	var checkNumber *string
	if n := strings.TrimSpace(p.CheckNumber); n != "" {
		checkNumber = &n
	}

	items := make([]models.PurchaseLineItem, len(p.LineItems))
	for i, item := range p.LineItems {
		items[i] = models.PurchaseLineItem{
			Category: item.Category,
			Price:    item.Price,
		}
	}

	return models.Purchase{
		Date:        date,
		Place:       strings.TrimSpace(p.Place),
		PaymentType: p.PaymentType,
		CheckNumber: checkNumber,
		LineItems:   items,
	}
}
