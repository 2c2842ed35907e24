package model

import "time"

// Session is a scheduled screening of a show inside a dome.  ShowTitle
// and Dome are loaded alongside the row so callers can validate seats
// and render listings without extra lookups.
//
// Fields:
//
//	ID        – primary key identifier.
//	ShowTime  – when the screening starts (UTC).
//	ShowID    – referenced astronomy show.
//	DomeID    – referenced planetarium dome.
//	ShowTitle – title of the referenced show.
//	Dome      – geometry of the referenced dome.
type Session struct {
	ID        uint64    `json:"id"`               // show_sessions.id
	ShowTime  time.Time `json:"show_time"`        // show_sessions.show_time
	ShowID    uint64    `json:"astronomy_show"`   // show_sessions.astronomy_show_id
	DomeID    uint64    `json:"planetarium_dome"` // show_sessions.planetarium_dome_id
	ShowTitle string    `json:"show_title"`       // astronomy_shows.title
	Dome      Dome      `json:"dome"`             // planetarium_domes row
}

// SessionListItem is a session row annotated with the number of seats
// still available at query time.
type SessionListItem struct {
	Session
	TicketsAvailable int `json:"tickets_available"`
}
