package dto

import "github.com/aarondl/null/v8"

type ClientDTO struct {
	ID                  uint64     `json:"id"`
	Name                string     `json:"name"`
	Address             string     `json:"address"`
	Phone               string     `json:"phone"`
	Email               string     `json:"email"`
	PreferredServiceDay null.Int   `json:"preferred_service_day"`
	Active              bool       `json:"active"`
	CreatedAt           string     `json:"created_at"`
}

type ClientListDTO struct {
	List       []ClientDTO `json:"list"`
	TotalCount uint64      `json:"total_count"`
}

type TechnicianDTO struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}
