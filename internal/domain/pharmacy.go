package domain

import "time"

// Pharmacy is a partner store fulfilling medicine orders.
type Pharmacy struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	License   string    `json:"licenseNumber,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Product is an item sold by a pharmacy.
type Product struct {
	ID         string  `json:"id"`
	PharmacyID string  `json:"pharmacyId,omitempty"`
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	ImageURL   string  `json:"imageUrl,omitempty"`
}
