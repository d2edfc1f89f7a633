package dto

import "github.com/aarondl/null/v8"

type SkipStopDTO struct {
	Reason string `json:"reason" validate:"required,min=2,max=500"`
}

type CompleteStopDTO struct {
	ServiceRecordID *uint64 `json:"service_record_id,omitempty" validate:"omitempty,gt=0"`
}

type RouteStopDTO struct {
	ID              uint64      `json:"id"`
	RouteInstanceID uint64      `json:"route_instance_id"`
	ClientID        uint64      `json:"client_id"`
	ClientName      string      `json:"client_name"`
	ClientAddress   string      `json:"client_address"`
	ClientPhone     string      `json:"client_phone"`
	SequenceOrder   int         `json:"sequence_order"`
	Status          string      `json:"status"`
	SkipReason      null.String `json:"skip_reason"`
	ActualArrival   null.Time   `json:"actual_arrival"`
	ActualDeparture null.Time   `json:"actual_departure"`
	ServiceRecordID null.Uint64 `json:"service_record_id"`
}
