package model

import "time"

type Personnel struct {
	ID         int64      `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	NationalID string     `json:"national_id"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Address    string     `json:"address"`
	Position   string     `json:"position"`
	Salary     *float64   `json:"salary,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type PersonnelRequest struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	NationalID string     `json:"national_id"`
	Phone      string     `json:"phone"`
	BirthDate  *time.Time `json:"birth_date"`
	Address    string     `json:"address"`
	Position   string     `json:"position"`
	Salary     *float64   `json:"salary"`
	StartDate  *time.Time `json:"start_date"`
}
