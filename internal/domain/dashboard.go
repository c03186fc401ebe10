package domain

// DashboardStats are the admin landing page counters.
type DashboardStats struct {
	Doctors       int     `json:"doctors"`
	Patients      int     `json:"patients"`
	Pharmacies    int     `json:"pharmacies"`
	Appointments  int     `json:"appointments"`
	PendingOrders int     `json:"pendingOrders"`
	Revenue       float64 `json:"revenue"`
}

// Page is a paginated list payload.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages,omitempty"`
}
