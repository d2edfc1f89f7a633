package entities

import (
	"time"

	"pool-service/pkg/constants"
)

// RouteInstance is one technician's materialized, dated run of visits.
// Unique per (company, technician, route_date). Stop order is seeded
// from the template at materialization time and is independent of it
// afterwards.
type RouteInstance struct {
	ID           uint64     `json:"id"`
	CompanyID    uint64     `json:"company_id"`
	TechnicianID uint64     `json:"technician_id"`
	RouteDate    time.Time  `json:"route_date"`
	Status       string     `json:"status"`
	StartTime    *time.Time `json:"start_time"`
	CompletedAt  *time.Time `json:"completed_at"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
}

// RouteStop is one visit within a RouteInstance, with its own lifecycle:
// pending -> in_progress -> completed, or pending/in_progress -> skipped.
type RouteStop struct {
	ID              uint64     `json:"id"`
	RouteInstanceID uint64     `json:"route_instance_id"`
	ClientID        uint64     `json:"client_id"`
	SequenceOrder   int        `json:"sequence_order"`
	Status          string     `json:"status"`
	SkipReason      *string    `json:"skip_reason"`
	ActualArrival   *time.Time `json:"actual_arrival"`
	ActualDeparture *time.Time `json:"actual_departure"`
	ServiceRecordID *uint64    `json:"service_record_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`

	// Denormalized client fields for field display; populated by list
	// queries, not stored on the row.
	ClientName    string `json:"client_name,omitempty"`
	ClientAddress string `json:"client_address,omitempty"`
	ClientPhone   string `json:"client_phone,omitempty"`
}

// IsTerminal reports whether the stop can never transition again.
func (s *RouteStop) IsTerminal() bool {
	return constants.IsTerminalStopStatus(s.Status)
}
