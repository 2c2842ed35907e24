package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ThemeRepo manages persistence for show themes.
type ThemeRepo struct {
	db *sql.DB
}

// NewThemeRepo constructs a ThemeRepo with the given DB handle.
func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{db: db} }

const (
	QueryInsertTheme = `INSERT INTO show_themes (name) VALUES (?)`
	QueryListThemes  = `SELECT id, name FROM show_themes ORDER BY id`
)

// Create inserts a theme and assigns its generated ID.  A duplicate
// name yields ErrConflict.
func (r *ThemeRepo) Create(ctx context.Context, t *model.Theme) error {
	res, err := r.db.ExecContext(ctx, QueryInsertTheme, t.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// List returns every theme ordered by id.
func (r *ThemeRepo) List(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx, QueryListThemes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Theme{}
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
