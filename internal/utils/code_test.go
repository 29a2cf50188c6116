package utils

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"
)

// neverTaken accepts every candidate.
func neverTaken(context.Context, string) (bool, error) { return false, nil }

func TestGenerateCodeFormat(t *testing.T) {
	code, err := GenerateCode(context.Background(),
		ReservationCodePrefix, ReservationCodeRandLen, ReservationCodeMaxLen, neverTaken)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	stamp := time.Now().UTC().Format("060102")
	want := regexp.MustCompile(`^RSV` + stamp + `[A-Z0-9]{4}$`)
	if !want.MatchString(code) {
		t.Fatalf("code %q does not match %s", code, want)
	}
	if len(code) > ReservationCodeMaxLen {
		t.Fatalf("code %q longer than %d", code, ReservationCodeMaxLen)
	}
}

func TestGenerateCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return calls <= 3, nil
	}
	code, err := GenerateCode(context.Background(),
		TicketCodePrefix, TicketCodeRandLen, TicketCodeMaxLen, exists)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 probes, got %d", calls)
	}
	if code == "" {
		t.Fatal("empty code after retries")
	}
}

func TestGenerateCodeFallsBackToUUIDDigits(t *testing.T) {
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		// Reject every random attempt; accept the fallback.
		return calls <= maxCodeAttempts, nil
	}
	code, err := GenerateCode(context.Background(),
		ReservationCodePrefix, ReservationCodeRandLen, ReservationCodeMaxLen, exists)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	stamp := time.Now().UTC().Format("060102")
	want := regexp.MustCompile(`^RSV` + stamp + `[0-9]*$`)
	if !want.MatchString(code) {
		t.Fatalf("fallback code %q does not match %s", code, want)
	}
	if len(code) > ReservationCodeMaxLen {
		t.Fatalf("fallback code %q longer than %d", code, ReservationCodeMaxLen)
	}
}

func TestGenerateCodeExhausted(t *testing.T) {
	exists := func(context.Context, string) (bool, error) { return true, nil }
	_, err := GenerateCode(context.Background(),
		TicketCodePrefix, TicketCodeRandLen, TicketCodeMaxLen, exists)
	if !errors.Is(err, ErrCodeExhausted) {
		t.Fatalf("expected ErrCodeExhausted, got %v", err)
	}
}

func TestGenerateCodePropagatesProbeError(t *testing.T) {
	boom := errors.New("connection lost")
	exists := func(context.Context, string) (bool, error) { return false, boom }
	_, err := GenerateCode(context.Background(),
		TicketCodePrefix, TicketCodeRandLen, TicketCodeMaxLen, exists)
	if !errors.Is(err, boom) {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestGenerateCodeUniqueAgainstProbe(t *testing.T) {
	// 10,000 codes minted from concurrent callers against a shared probe.
	// The probe claims each candidate atomically, the way the real
	// predicate and the unique code column do, so every returned code
	// must be new.
	const (
		workers   = 20
		perWorker = 500
	)

	var mu sync.Mutex
	seen := make(map[string]bool, workers*perWorker)
	exists := func(_ context.Context, code string) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if seen[code] {
			return true, nil
		}
		seen[code] = true
		return false, nil
	}

	results := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				code, err := GenerateCode(context.Background(),
					TicketCodePrefix, TicketCodeRandLen, TicketCodeMaxLen, exists)
				if err != nil {
					t.Errorf("generate: %v", err)
					return
				}
				results <- code
			}
		}()
	}
	wg.Wait()
	close(results)

	returned := make(map[string]bool, workers*perWorker)
	for code := range results {
		if returned[code] {
			t.Fatalf("duplicate code %q returned", code)
		}
		returned[code] = true
	}
	if len(returned) != workers*perWorker {
		t.Fatalf("got %d codes, want %d", len(returned), workers*perWorker)
	}
}
