package dto

import "github.com/spec-kit/clinic-admin/internal/domain"

// AppointmentStatusRequest moves an appointment to a new state.
type AppointmentStatusRequest struct {
	Status domain.AppointmentStatus `json:"status"`
	Reason string                   `json:"reason"`
}

// UserStatusRequest suspends or reactivates an account.
type UserStatusRequest struct {
	Status domain.UserStatus `json:"status"`
}

// VerifyRequest toggles doctor verification.
type VerifyRequest struct {
	Verified bool `json:"verified"`
}

// ApproveRequest toggles pharmacy approval.
type ApproveRequest struct {
	Approved bool `json:"approved"`
}

// OrderStatusRequest advances an order.
type OrderStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// SendMessageRequest posts a chat message.
type SendMessageRequest struct {
	Body string `json:"body" form:"body"`
}

// ListParams are the query params list endpoints forward upstream.
var ListParams = []string{"page", "limit", "pageSize", "search", "status", "sort", "order", "from", "to", "role", "specialization"}
