package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// DomeRepo manages persistence for planetarium domes.  Geometry is
// validated by the caller before Create is invoked.
type DomeRepo struct {
	db *sql.DB
}

// NewDomeRepo constructs a DomeRepo with the given DB handle.
func NewDomeRepo(db *sql.DB) *DomeRepo { return &DomeRepo{db: db} }

const (
	QueryInsertDome = `INSERT INTO planetarium_domes (name, row_count, seats_in_row) VALUES (?, ?, ?)`
	QueryListDomes  = `SELECT id, name, row_count, seats_in_row FROM planetarium_domes ORDER BY id`
	QueryGetDome    = `SELECT id, name, row_count, seats_in_row FROM planetarium_domes WHERE id = ?`
)

// Create inserts a dome and assigns its generated ID.
func (r *DomeRepo) Create(ctx context.Context, d *model.Dome) error {
	res, err := r.db.ExecContext(ctx, QueryInsertDome, d.Name, d.Rows, d.SeatsInRow)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// List returns every dome ordered by id.
func (r *DomeRepo) List(ctx context.Context) ([]model.Dome, error) {
	rows, err := r.db.QueryContext(ctx, QueryListDomes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Dome{}
	for rows.Next() {
		var d model.Dome
		if err := rows.Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetByID returns ErrNotFound when the dome does not exist.
func (r *DomeRepo) GetByID(ctx context.Context, id uint64) (model.Dome, error) {
	var d model.Dome
	err := r.db.QueryRowContext(ctx, QueryGetDome, id).Scan(&d.ID, &d.Name, &d.Rows, &d.SeatsInRow)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dome{}, ErrNotFound
	}
	return d, err
}
