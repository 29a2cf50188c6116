package model

import (
	"testing"
	"time"
)

var departure = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestBoardingGateOpen(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"hours before departure", departure.Add(-5 * time.Hour), true},
		{"at departure", departure, true},
		{"exactly at gate close", departure.Add(30 * time.Minute), true},
		{"one second past close", departure.Add(30*time.Minute + time.Second), false},
		{"next day", departure.Add(24 * time.Hour), false},
	}
	for _, tc := range cases {
		if got := BoardingGateOpen(departure, tc.now); got != tc.want {
			t.Errorf("%s: BoardingGateOpen = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBoardingInProgressWindow(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before window opens", departure.Add(-31 * time.Minute), false},
		{"at window open", departure.Add(-30 * time.Minute), true},
		{"at departure", departure, true},
		{"at window close", departure.Add(15 * time.Minute), true},
		{"past window close", departure.Add(16 * time.Minute), false},
	}
	for _, tc := range cases {
		if got := BoardingInProgress(departure, tc.now); got != tc.want {
			t.Errorf("%s: BoardingInProgress = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGateStaysOpenAfterDisplayWindowCloses(t *testing.T) {
	// Between departure+15m and departure+30m the display window is over
	// but the gate still accepts scans. The display window must never
	// drive the eligibility decision.
	now := departure.Add(20 * time.Minute)
	if BoardingInProgress(departure, now) {
		t.Fatal("display window should be closed at departure+20m")
	}
	if !BoardingGateOpen(departure, now) {
		t.Fatal("gate should still be open at departure+20m")
	}
}

func TestTicketBoardable(t *testing.T) {
	scanned := departure.Add(-time.Hour)
	cases := []struct {
		name   string
		ticket Ticket
		want   bool
	}{
		{"confirmed unscanned", Ticket{Status: TicketConfirmed}, true},
		{"already boarded", Ticket{Status: TicketBoarded, ScannedAt: &scanned}, false},
		{"confirmed but scanned", Ticket{Status: TicketConfirmed, ScannedAt: &scanned}, false},
		{"missed", Ticket{Status: TicketMissed}, false},
		{"cancelled", Ticket{Status: TicketCancelled}, false},
		{"refunded", Ticket{Status: TicketRefunded}, false},
	}
	for _, tc := range cases {
		if got := tc.ticket.Boardable(); got != tc.want {
			t.Errorf("%s: Boardable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
