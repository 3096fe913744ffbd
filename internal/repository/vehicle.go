package repository

import (
	"context"

	"dealership-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

const vehicleColumns = `id, brand, model, year, color, gear, fuel, mileage,
	purchase_price::float8, sale_price::float8, description, created_by, created_at`

type VehicleRepository struct {
	pool *pgxpool.Pool
}

func NewVehicleRepository(pool *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{pool: pool}
}

func (r *VehicleRepository) List(ctx context.Context) ([]model.Vehicle, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []model.Vehicle{}
	for rows.Next() {
		var v model.Vehicle
		if err := rows.Scan(
			&v.ID, &v.Brand, &v.Model, &v.Year, &v.Color, &v.Gear, &v.Fuel, &v.Mileage,
			&v.PurchasePrice, &v.SalePrice, &v.Description, &v.CreatedBy, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepository) Get(ctx context.Context, id int64) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	err := r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id).Scan(
		&v.ID, &v.Brand, &v.Model, &v.Year, &v.Color, &v.Gear, &v.Fuel, &v.Mileage,
		&v.PurchasePrice, &v.SalePrice, &v.Description, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return v, nil
}

func (r *VehicleRepository) Create(ctx context.Context, req *model.VehicleRequest, createdBy int64) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vehicles (brand, model, year, color, gear, fuel, mileage,
		                      purchase_price, sale_price, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+vehicleColumns,
		req.Brand, req.Model, req.Year, req.Color, req.Gear, req.Fuel, req.Mileage,
		req.PurchasePrice, req.SalePrice, req.Description, createdBy,
	).Scan(
		&v.ID, &v.Brand, &v.Model, &v.Year, &v.Color, &v.Gear, &v.Fuel, &v.Mileage,
		&v.PurchasePrice, &v.SalePrice, &v.Description, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return v, nil
}

func (r *VehicleRepository) Update(ctx context.Context, id int64, req *model.VehicleRequest) (*model.Vehicle, error) {
	v := &model.Vehicle{}
	err := r.pool.QueryRow(ctx, `
		UPDATE vehicles SET brand = $2, model = $3, year = $4, color = $5, gear = $6, fuel = $7,
		       mileage = $8, purchase_price = $9, sale_price = $10, description = $11
		WHERE id = $1
		RETURNING `+vehicleColumns,
		id, req.Brand, req.Model, req.Year, req.Color, req.Gear, req.Fuel, req.Mileage,
		req.PurchasePrice, req.SalePrice, req.Description,
	).Scan(
		&v.ID, &v.Brand, &v.Model, &v.Year, &v.Color, &v.Gear, &v.Fuel, &v.Mileage,
		&v.PurchasePrice, &v.SalePrice, &v.Description, &v.CreatedBy, &v.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return v, nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BrandModelByIDs returns brand and model for each listing id that exists.
func (r *VehicleRepository) BrandModelByIDs(ctx context.Context, ids []int64) (map[int64][2]string, error) {
	out := make(map[int64][2]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, brand, model FROM vehicles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var brand, mdl string
		if err := rows.Scan(&id, &brand, &mdl); err != nil {
			return nil, err
		}
		out[id] = [2]string{brand, mdl}
	}
	return out, rows.Err()
}
