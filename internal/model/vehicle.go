package model

import "time"

type Vehicle struct {
	ID            int64     `json:"id"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	Color         string    `json:"color"`
	Gear          string    `json:"gear"`
	Fuel          string    `json:"fuel"`
	Mileage       int       `json:"mileage"`
	PurchasePrice float64   `json:"purchase_price"`
	SalePrice     float64   `json:"sale_price"`
	Description   string    `json:"description"`
	CreatedBy     *int64    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// VehicleRequest is the payload for creating or updating a listing.
type VehicleRequest struct {
	Brand         string  `json:"brand"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	Color         string  `json:"color"`
	Gear          string  `json:"gear"`
	Fuel          string  `json:"fuel"`
	Mileage       int     `json:"mileage"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	Description   string  `json:"description"`
}
