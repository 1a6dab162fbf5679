package model

import (
	"time"
)

// Order is one captured lead: a customer request for a specific missing
// document, or an inquiry to confirm its existence.
type Order struct {
	ID           int64     `json:"id"`
	DocNo        string    `json:"doc_no"`
	DocName      string    `json:"doc_name"`
	CustomerName string    `json:"customer_name"`
	ContactInfo  string    `json:"contact_info"` // "phone|email"
	RequestDate  time.Time `json:"request_date"`
	Status       string    `json:"status"`
	StageContext string    `json:"stage_context"`
}

// ManualSearchDocNo is stored when no document number is known and the
// fulfilment team must locate the record by hand.
const ManualSearchDocNo = "MANUAL_SEARCH"

// Order status constants. Status updates outside this set are rejected.
const (
	OrderPending    = "Pending"
	OrderInProgress = "InProgress"
	OrderCompleted  = "Completed"
	OrderCancelled  = "Cancelled"
)

// ValidOrderStatus reports whether s is an accepted order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}
