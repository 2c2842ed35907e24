package booking

import (
	"fmt"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

// ValidateSeat checks that (row, seat) addresses a seat of the dome.
// Both coordinates are 1-based.  The returned error wraps ErrInvalidSeat.
func ValidateSeat(d model.Dome, row, seat int) error {
	if row < 1 || row > d.Rows {
		return &SeatRangeError{Field: "row", Value: row, Max: d.Rows}
	}
	if seat < 1 || seat > d.SeatsInRow {
		return &SeatRangeError{Field: "seat", Value: seat, Max: d.SeatsInRow}
	}
	return nil
}

// ValidateDome enforces rows >= 1 and seats_in_row >= 1.
func ValidateDome(d model.Dome) error {
	if d.Rows < 1 {
		return fmt.Errorf("%w: rows must be at least 1, got %d", ErrInvalidDome, d.Rows)
	}
	if d.SeatsInRow < 1 {
		return fmt.Errorf("%w: seats_in_row must be at least 1, got %d", ErrInvalidDome, d.SeatsInRow)
	}
	return nil
}
