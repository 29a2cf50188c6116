package model

import (
	"testing"
	"time"
)

func TestReservationTerminal(t *testing.T) {
	terminal := map[string]bool{
		ReservationPending:   false,
		ReservationConfirmed: false,
		ReservationPaid:      false,
		ReservationCancelled: true,
		ReservationExpired:   true,
	}
	for status, want := range terminal {
		if got := ReservationTerminal(status); got != want {
			t.Errorf("ReservationTerminal(%s) = %v, want %v", status, got, want)
		}
	}
}

func TestReservationExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		res  Reservation
		want bool
	}{
		{"pending past deadline", Reservation{Status: ReservationPending, ExpiresAt: &past}, true},
		{"pending before deadline", Reservation{Status: ReservationPending, ExpiresAt: &future}, false},
		{"pending at deadline", Reservation{Status: ReservationPending, ExpiresAt: &now}, false},
		{"pending without deadline", Reservation{Status: ReservationPending}, false},
		{"confirmed past deadline", Reservation{Status: ReservationConfirmed, ExpiresAt: &past}, false},
		{"paid past deadline", Reservation{Status: ReservationPaid, ExpiresAt: &past}, false},
	}
	for _, tc := range cases {
		if got := tc.res.ExpiredAt(now); got != tc.want {
			t.Errorf("%s: ExpiredAt = %v, want %v", tc.name, got, tc.want)
		}
	}
}
