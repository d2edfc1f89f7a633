package entities

import "time"

// Client is read from the client-management subsystem; the scheduling
// core never mutates it.
type Client struct {
	ID                  uint64     `json:"id"`
	CompanyID           uint64     `json:"company_id"`
	Name                string     `json:"name"`
	Address             string     `json:"address"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email"`
	PreferredServiceDay *int       `json:"preferred_service_day"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at"`
}
