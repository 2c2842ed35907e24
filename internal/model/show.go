package model

// Show represents an astronomy show in the catalogue.  A show can be
// screened in many sessions and is tagged with zero or more themes.
//
// Fields:
//
//	ID          – primary key identifier.
//	Title       – show title.
//	Slug        – URL friendly form of the title, unique.
//	Description – free text description.
//	Image       – optional image reference (storage handled elsewhere).
//	Themes      – themes attached to the show.
type Show struct {
	ID          uint64  `json:"id"`              // astronomy_shows.id
	Title       string  `json:"title"`           // astronomy_shows.title
	Slug        string  `json:"slug"`            // astronomy_shows.slug
	Description string  `json:"description"`     // astronomy_shows.description
	Image       *string `json:"image,omitempty"` // astronomy_shows.image (nullable)
	Themes      []Theme `json:"themes"`          // show_theme_links
}
