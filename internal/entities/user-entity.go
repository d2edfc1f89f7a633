package entities

import "time"

// User is a company member. Technicians run routes; admins edit the
// weekly schedule. The directory is owned by the excluded user
// management subsystem.
type User struct {
	ID        uint64     `json:"id"`
	CompanyID uint64     `json:"company_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
