package access

import (
	"errors"
	"testing"
)

func TestCapabilities(t *testing.T) {
	anon := Principal{}
	customer := Principal{UserID: 7, Email: "c@example.com"}
	staff := Principal{UserID: 1, Email: "s@example.com", Staff: true}

	tests := []struct {
		name  string
		check func(Principal) error
		p     Principal
		want  error
	}{
		{"anonymous read", CanReadCatalog, anon, ErrUnauthorized},
		{"customer read", CanReadCatalog, customer, nil},
		{"anonymous mutate", CanMutateCatalog, anon, ErrUnauthorized},
		{"customer mutate", CanMutateCatalog, customer, ErrForbidden},
		{"staff mutate", CanMutateCatalog, staff, nil},
		{"anonymous book", CanBook, anon, ErrUnauthorized},
		{"customer book", CanBook, customer, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.check(tt.p); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestReservationScope(t *testing.T) {
	if _, err := ReservationScope(Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("anonymous scope: got %v", err)
	}

	scope, err := ReservationScope(Principal{UserID: 7})
	if err != nil {
		t.Fatalf("customer scope: %v", err)
	}
	if scope.OwnerID == nil || *scope.OwnerID != 7 {
		t.Fatalf("customer scope owner = %v, want 7", scope.OwnerID)
	}
	if !scope.Allows(7) || scope.Allows(8) {
		t.Fatalf("customer scope must only allow its own reservations")
	}

	staffScope, err := ReservationScope(Principal{UserID: 1, Staff: true})
	if err != nil {
		t.Fatalf("staff scope: %v", err)
	}
	if staffScope.OwnerID != nil || !staffScope.Allows(8) {
		t.Fatalf("staff scope must be unrestricted")
	}
}
