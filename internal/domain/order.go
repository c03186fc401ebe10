package domain

import "time"

// OrderStatus enumerates fulfilment states.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is a patient's purchase from a pharmacy.
type Order struct {
	ID         string      `json:"id"`
	PatientID  string      `json:"patientId"`
	PharmacyID string      `json:"pharmacyId,omitempty"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
}
