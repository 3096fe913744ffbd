package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealership-backend/internal/model"
)

var ErrInvalidVehicle = errors.New("invalid vehicle")

type VehicleStore interface {
	List(ctx context.Context) ([]model.Vehicle, error)
	Get(ctx context.Context, id int64) (*model.Vehicle, error)
	Create(ctx context.Context, req *model.VehicleRequest, createdBy int64) (*model.Vehicle, error)
	Update(ctx context.Context, id int64, req *model.VehicleRequest) (*model.Vehicle, error)
	Delete(ctx context.Context, id int64) error
}

type VehicleService struct {
	vehicles      VehicleStore
	conversations *ConversationService
}

func NewVehicleService(vehicles VehicleStore, conversations *ConversationService) *VehicleService {
	return &VehicleService{vehicles: vehicles, conversations: conversations}
}

func (s *VehicleService) List(ctx context.Context) ([]model.Vehicle, error) {
	return s.vehicles.List(ctx)
}

func (s *VehicleService) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	return s.vehicles.Get(ctx, id)
}

func (s *VehicleService) Create(ctx context.Context, req *model.VehicleRequest, createdBy int64) (*model.Vehicle, error) {
	if err := validateVehicle(req); err != nil {
		return nil, err
	}
	return s.vehicles.Create(ctx, req, createdBy)
}

func (s *VehicleService) Update(ctx context.Context, id int64, req *model.VehicleRequest) (*model.Vehicle, error) {
	if err := validateVehicle(req); err != nil {
		return nil, err
	}
	return s.vehicles.Update(ctx, id, req)
}

// Delete removes the listing together with its conversations.
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return err
	}
	if _, err := s.conversations.DeleteListing(ctx, id); err != nil {
		return fmt.Errorf("delete listing messages: %w", err)
	}
	return nil
}

func validateVehicle(req *model.VehicleRequest) error {
	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	switch {
	case req.Brand == "" || req.Model == "":
		return fmt.Errorf("%w: brand and model are required", ErrInvalidVehicle)
	case req.Year < 1900 || req.Year > time.Now().Year()+1:
		return fmt.Errorf("%w: year out of range", ErrInvalidVehicle)
	case req.Mileage < 0 || req.PurchasePrice < 0 || req.SalePrice < 0:
		return fmt.Errorf("%w: negative amounts", ErrInvalidVehicle)
	}
	return nil
}
