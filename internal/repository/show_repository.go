// Package repository contains data access logic for the catalogue. This file
// defines repository methods for astronomy shows. A show is tagged with
// themes through the show_theme_links table and is screened in sessions.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"
	"strings"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ShowFilter narrows show listings.  Title matches case-insensitively
// anywhere in the title; ThemeIDs keeps shows tagged with any of them.
type ShowFilter struct {
	Title    string
	ThemeIDs []uint64
}

// ShowRepo manages persistence for astronomy shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const (
	QueryInsertShow     = `INSERT INTO astronomy_shows (title, slug, description, image) VALUES (?, ?, ?, ?)`
	QueryInsertShowLink = `INSERT INTO show_theme_links (astronomy_show_id, show_theme_id) VALUES `
	QueryGetShow        = `SELECT id, title, slug, description, image FROM astronomy_shows WHERE id = ?`
	QueryListShowsBase  = `SELECT id, title, slug, description, image FROM astronomy_shows s`
	QueryShowThemesBase = `SELECT l.astronomy_show_id, t.id, t.name
FROM show_theme_links l
JOIN show_themes t ON t.id = l.show_theme_id
WHERE l.astronomy_show_id IN `
)

// Create inserts the show and its theme links in one transaction.  A
// duplicate slug yields ErrConflict and an unknown theme yields
// ErrInvalidReference.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show, themeIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, QueryInsertShow, s.Title, s.Slug, s.Description, s.Image)
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
	s.ID = uint64(id)

	themeIDs = uniqueIDs(themeIDs)
	if len(themeIDs) > 0 {
		query := QueryInsertShowLink
		args := make([]interface{}, 0, len(themeIDs)*2)
		for i, tid := range themeIDs {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, s.ID, tid)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isMissingReference(err) {
				return ErrInvalidReference
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	list := []model.Show{*s}
	if err := r.attachThemes(ctx, list); err != nil {
		return err
	}
	s.Themes = list[0].Themes
	return nil
}

// GetByID retrieves a show with its themes.  It returns ErrNotFound if
// there is no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, QueryGetShow, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Show{}, ErrNotFound
		}
		return model.Show{}, err
	}
	list := []model.Show{s}
	if err := r.attachThemes(ctx, list); err != nil {
		return model.Show{}, err
	}
	return list[0], nil
}

// List returns the shows matching f ordered by id.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter) ([]model.Show, error) {
	query, args := buildShowQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachThemes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// buildShowQuery assembles the listing query for f.
func buildShowQuery(f ShowFilter) (string, []interface{}) {
	where := []string{}
	args := []interface{}{}
	if t := strings.TrimSpace(f.Title); t != "" {
		where = append(where, "LOWER(s.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(t)+"%")
	}
	if ids := uniqueIDs(f.ThemeIDs); len(ids) > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM show_theme_links l WHERE l.astronomy_show_id = s.id AND l.show_theme_id IN "+placeholders(len(ids))+")")
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query := QueryListShowsBase
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY s.id", args
}

func (r *ShowRepo) attachThemes(ctx context.Context, list []model.Show) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	args := make([]interface{}, 0, len(list))
	for i := range list {
		list[i].Themes = []model.Theme{}
		index[list[i].ID] = i
		args = append(args, list[i].ID)
	}
	rows, err := r.db.QueryContext(ctx, QueryShowThemesBase+placeholders(len(list))+" ORDER BY t.id", args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			showID uint64
			t      model.Theme
		)
		if err := rows.Scan(&showID, &t.ID, &t.Name); err != nil {
			return err
		}
		if i, ok := index[showID]; ok {
			list[i].Themes = append(list[i].Themes, t)
		}
	}
	return rows.Err()
}

func scanShow(row rowScanner) (model.Show, error) {
	var (
		s     model.Show
		image sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Slug, &s.Description, &image); err != nil {
		return model.Show{}, err
	}
	if image.Valid {
		img := image.String
		s.Image = &img
	}
	return s, nil
}

// placeholders returns "(?, ?, ...)" with n markers.
func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
