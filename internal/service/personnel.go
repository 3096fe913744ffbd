package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"dealership-backend/internal/model"
)

var ErrInvalidPersonnel = errors.New("invalid personnel record")

type PersonnelStore interface {
	List(ctx context.Context) ([]model.Personnel, error)
	Get(ctx context.Context, id int64) (*model.Personnel, error)
	Create(ctx context.Context, req *model.PersonnelRequest) (*model.Personnel, error)
	Update(ctx context.Context, id int64, req *model.PersonnelRequest) (*model.Personnel, error)
	Delete(ctx context.Context, id int64) error
}

type PersonnelService struct {
	store PersonnelStore
}

func NewPersonnelService(store PersonnelStore) *PersonnelService {
	return &PersonnelService{store: store}
}

func (s *PersonnelService) List(ctx context.Context) ([]model.Personnel, error) {
	return s.store.List(ctx)
}

func (s *PersonnelService) Get(ctx context.Context, id int64) (*model.Personnel, error) {
	return s.store.Get(ctx, id)
}

func (s *PersonnelService) Create(ctx context.Context, req *model.PersonnelRequest) (*model.Personnel, error) {
	if err := validatePersonnel(req); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, req)
}

func (s *PersonnelService) Update(ctx context.Context, id int64, req *model.PersonnelRequest) (*model.Personnel, error) {
	if err := validatePersonnel(req); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, req)
}

func (s *PersonnelService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func validatePersonnel(req *model.PersonnelRequest) error {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.NationalID = strings.TrimSpace(req.NationalID)

	if req.FirstName == "" || req.LastName == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidPersonnel)
	}
	if req.NationalID == "" || len(req.NationalID) > 20 {
		return fmt.Errorf("%w: national id is required", ErrInvalidPersonnel)
	}
	for _, r := range req.NationalID {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: national id must be numeric", ErrInvalidPersonnel)
		}
	}
	if req.Salary != nil && *req.Salary < 0 {
		return fmt.Errorf("%w: negative salary", ErrInvalidPersonnel)
	}
	return nil
}
