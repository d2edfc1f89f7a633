package dto

type CreateAssignmentDTO struct {
	TechnicianID uint64 `json:"technician_id" validate:"required,gt=0"`
	ClientID     uint64 `json:"client_id" validate:"required,gt=0"`
	DayOfWeek    int    `json:"day_of_week" validate:"dayofweek"`
}

type ReorderAssignmentsDTO struct {
	TechnicianID uint64   `json:"technician_id" validate:"required,gt=0"`
	DayOfWeek    int      `json:"day_of_week" validate:"dayofweek"`
	OrderedIDs   []uint64 `json:"ordered_ids" validate:"required,min=1,dive,gt=0"`
}

type AssignmentDTO struct {
	ID           uint64 `json:"id"`
	TechnicianID uint64 `json:"technician_id"`
	ClientID     uint64 `json:"client_id"`
	ClientName   string `json:"client_name,omitempty"`
	DayOfWeek    int    `json:"day_of_week"`
	RouteOrder   int    `json:"route_order"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
}

type AssignmentListDTO struct {
	List       []AssignmentDTO `json:"list"`
	TotalCount uint64          `json:"total_count"`
}
