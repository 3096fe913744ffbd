package repository

import (
	"context"

	"dealership-backend/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

const personnelColumns = `id, first_name, last_name, national_id, phone, birth_date, address,
	position, salary::float8, start_date, created_at`

type PersonnelRepository struct {
	pool *pgxpool.Pool
}

func NewPersonnelRepository(pool *pgxpool.Pool) *PersonnelRepository {
	return &PersonnelRepository{pool: pool}
}

func (r *PersonnelRepository) List(ctx context.Context) ([]model.Personnel, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+personnelColumns+` FROM personnel ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := []model.Personnel{}
	for rows.Next() {
		var p model.Personnel
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.NationalID, &p.Phone, &p.BirthDate, &p.Address,
			&p.Position, &p.Salary, &p.StartDate, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		staff = append(staff, p)
	}
	return staff, rows.Err()
}

func (r *PersonnelRepository) Get(ctx context.Context, id int64) (*model.Personnel, error) {
	p := &model.Personnel{}
	err := r.pool.QueryRow(ctx, `SELECT `+personnelColumns+` FROM personnel WHERE id = $1`, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.NationalID, &p.Phone, &p.BirthDate, &p.Address,
		&p.Position, &p.Salary, &p.StartDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

// Create fails with ErrDuplicate when the national id is already registered.
func (r *PersonnelRepository) Create(ctx context.Context, req *model.PersonnelRequest) (*model.Personnel, error) {
	p := &model.Personnel{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO personnel (first_name, last_name, national_id, phone, birth_date,
		                       address, position, salary, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+personnelColumns,
		req.FirstName, req.LastName, req.NationalID, req.Phone, req.BirthDate,
		req.Address, req.Position, req.Salary, req.StartDate,
	).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.NationalID, &p.Phone, &p.BirthDate, &p.Address,
		&p.Position, &p.Salary, &p.StartDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (r *PersonnelRepository) Update(ctx context.Context, id int64, req *model.PersonnelRequest) (*model.Personnel, error) {
	p := &model.Personnel{}
	err := r.pool.QueryRow(ctx, `
		UPDATE personnel SET first_name = $2, last_name = $3, national_id = $4, phone = $5,
		       birth_date = $6, address = $7, position = $8, salary = $9, start_date = $10
		WHERE id = $1
		RETURNING `+personnelColumns,
		id, req.FirstName, req.LastName, req.NationalID, req.Phone, req.BirthDate,
		req.Address, req.Position, req.Salary, req.StartDate,
	).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.NationalID, &p.Phone, &p.BirthDate, &p.Address,
		&p.Position, &p.Salary, &p.StartDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return p, nil
}

func (r *PersonnelRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM personnel WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
