package entities

import "time"

// RecurringAssignment is one weekly template entry: one client visited
// by one technician on one day of week, at a given position. Unique per
// (company, technician, client, day_of_week). RouteOrder values within a
// (technician, day) group need not be contiguous; their relative order
// defines the visit sequence.
type RecurringAssignment struct {
	ID           uint64     `json:"id"`
	CompanyID    uint64     `json:"company_id"`
	TechnicianID uint64     `json:"technician_id"`
	ClientID     uint64     `json:"client_id"`
	DayOfWeek    int        `json:"day_of_week"`
	RouteOrder   int        `json:"route_order"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}
