package model

import "testing"

func TestKnownTripStatus(t *testing.T) {
	for _, s := range []string{TripPlanned, TripBoarding, TripInProgress, TripCompleted, TripCancelled} {
		if !KnownTripStatus(s) {
			t.Errorf("KnownTripStatus(%s) = false", s)
		}
	}
	for _, s := range []string{"", "planned", "DONE", "ARRIVED"} {
		if KnownTripStatus(s) {
			t.Errorf("KnownTripStatus(%q) = true", s)
		}
	}
}

func TestTripDeparted(t *testing.T) {
	departed := map[string]bool{
		TripPlanned:    false,
		TripBoarding:   false,
		TripInProgress: true,
		TripCompleted:  true,
		TripCancelled:  false,
	}
	for status, want := range departed {
		trip := Trip{Status: status}
		if got := trip.Departed(); got != want {
			t.Errorf("Departed(%s) = %v, want %v", status, got, want)
		}
	}
}
