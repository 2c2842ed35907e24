package booking

import (
	"errors"
	"testing"

	"github.com/iliyamo/planetarium-booking/internal/model"
)

func TestValidateSeatGrid(t *testing.T) {
	domes := []model.Dome{
		{Rows: 1, SeatsInRow: 1},
		{Rows: 5, SeatsInRow: 10},
		{Rows: 12, SeatsInRow: 3},
	}
	for _, d := range domes {
		for row := -1; row <= d.Rows+1; row++ {
			for seat := -1; seat <= d.SeatsInRow+1; seat++ {
				err := ValidateSeat(d, row, seat)
				inside := row >= 1 && row <= d.Rows && seat >= 1 && seat <= d.SeatsInRow
				if inside && err != nil {
					t.Fatalf("dome %dx%d: (%d,%d) rejected: %v", d.Rows, d.SeatsInRow, row, seat, err)
				}
				if !inside && !errors.Is(err, ErrInvalidSeat) {
					t.Fatalf("dome %dx%d: (%d,%d) want ErrInvalidSeat, got %v", d.Rows, d.SeatsInRow, row, seat, err)
				}
			}
		}
	}
}

func TestValidateSeatReportsField(t *testing.T) {
	d := model.Dome{Rows: 5, SeatsInRow: 10}
	tests := []struct {
		name      string
		row, seat int
		field     string
		max       int
	}{
		{"row above", 6, 1, "row", 5},
		{"row zero", 0, 1, "row", 5},
		{"seat above", 1, 11, "seat", 10},
		{"both out reports row", 9, 99, "row", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rangeErr *SeatRangeError
			if err := ValidateSeat(d, tt.row, tt.seat); !errors.As(err, &rangeErr) {
				t.Fatalf("want *SeatRangeError, got %v", err)
			}
			if rangeErr.Field != tt.field || rangeErr.Max != tt.max {
				t.Fatalf("got field=%s max=%d, want %s %d", rangeErr.Field, rangeErr.Max, tt.field, tt.max)
			}
		})
	}
}

func TestDomeCapacity(t *testing.T) {
	d := model.Dome{Rows: 5, SeatsInRow: 10}
	if err := ValidateDome(d); err != nil {
		t.Fatalf("valid dome rejected: %v", err)
	}
	if got := d.Capacity(); got != 50 {
		t.Fatalf("capacity = %d, want 50", got)
	}
	for _, bad := range []model.Dome{{Rows: 0, SeatsInRow: 10}, {Rows: 3, SeatsInRow: 0}, {Rows: -1, SeatsInRow: -1}} {
		if err := ValidateDome(bad); !errors.Is(err, ErrInvalidDome) {
			t.Fatalf("dome %+v: want ErrInvalidDome, got %v", bad, err)
		}
	}
}
