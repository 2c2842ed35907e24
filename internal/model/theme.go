package model

// Theme is a label attached to astronomy shows (e.g. "Black Holes").
// Themes have their own lifecycle and are shared between shows.
type Theme struct {
	ID   uint64 `json:"id"`   // show_themes.id
	Name string `json:"name"` // show_themes.name
}
