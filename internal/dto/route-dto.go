package dto

import "github.com/aarondl/null/v8"

type GenerateRoutesDTO struct {
	StartDate string `json:"start_date" validate:"required,dateformat"`
	EndDate   string `json:"end_date" validate:"required,dateformat"`
}

// GenerateResultDTO distinguishes "already generated" from "nothing to
// generate" from genuine per-date failures.
type GenerateResultDTO struct {
	Created int             `json:"created"`
	Skipped int             `json:"skipped"`
	Errors  []DateErrorDTO  `json:"errors"`
}

type DateErrorDTO struct {
	Date    string `json:"date"`
	Message string `json:"message"`
}

type UpdateNotesDTO struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type ReorderStopsDTO struct {
	OrderedStopIDs []uint64 `json:"ordered_stop_ids" validate:"required,min=1,dive,gt=0"`
}

// RouteInstanceDTO is the full dispatch payload: the instance plus its
// stops in visit order. Progress counts skipped stops in the total but
// not among completed, so a run ending 2 done + 1 skipped reports 2/3.
type RouteInstanceDTO struct {
	ID             uint64         `json:"id"`
	TechnicianID   uint64         `json:"technician_id"`
	TechnicianName string         `json:"technician_name,omitempty"`
	RouteDate      string         `json:"route_date"`
	Status         string         `json:"status"`
	StartTime      null.Time      `json:"start_time"`
	CompletedAt    null.Time      `json:"completed_at"`
	Notes          null.String    `json:"notes"`
	Stops          []RouteStopDTO `json:"stops"`
	TotalStops     int            `json:"total_stops"`
	CompletedStops int            `json:"completed_stops"`
	SkippedStops   int            `json:"skipped_stops"`
	ProgressPct    int            `json:"progress_pct"`
}

// RouteSummaryDTO is the history row: counts only, no stop detail.
type RouteSummaryDTO struct {
	ID             uint64    `json:"id"`
	TechnicianID   uint64    `json:"technician_id"`
	TechnicianName string    `json:"technician_name"`
	RouteDate      string    `json:"route_date"`
	Status         string    `json:"status"`
	CompletedAt    null.Time `json:"completed_at"`
	TotalStops     int       `json:"total_stops"`
	CompletedStops int       `json:"completed_stops"`
	SkippedStops   int       `json:"skipped_stops"`
}
