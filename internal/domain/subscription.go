package domain

import "time"

// SubscriptionPlan is a purchasable membership tier.
type SubscriptionPlan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features,omitempty"`
	Active       bool     `json:"active"`
}

// Subscription links a subscriber to a plan.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PlanID    string    `json:"planId"`
	Status    string    `json:"status"`
	StartsAt  time.Time `json:"startsAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
