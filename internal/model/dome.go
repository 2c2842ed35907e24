package model

// Dome represents a planetarium theater with a fixed rectangular seat
// grid.  Seats are addressed by a 1-based row and a 1-based seat number
// within the row.  Capacity is derived and never stored.
//
// Fields:
//
//	ID         – primary key identifier.
//	Name       – display name of the dome.
//	Rows       – number of seat rows (at least 1).
//	SeatsInRow – number of seats in every row (at least 1).
type Dome struct {
	ID         uint64 `json:"id"`           // planetarium_domes.id
	Name       string `json:"name"`         // planetarium_domes.name
	Rows       int    `json:"rows"`         // planetarium_domes.row_count
	SeatsInRow int    `json:"seats_in_row"` // planetarium_domes.seats_in_row
}

// Capacity returns the total number of seats in the dome.
func (d Dome) Capacity() int {
	return d.Rows * d.SeatsInRow
}
