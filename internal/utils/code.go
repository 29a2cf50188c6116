package utils // helpers for booking code generation, tokens and hashing

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Code formats used across the platform. The random tail length varies by
// entity; the maximum length caps the UUID-derived fallback.
const (
	ReservationCodePrefix  = "RSV"
	ReservationCodeRandLen = 4
	ReservationCodeMaxLen  = 13

	TicketCodePrefix  = "TKT"
	TicketCodeRandLen = 6
	TicketCodeMaxLen  = 15

	TrackingCodePrefix  = "TRK"
	TrackingCodeRandLen = 11
	TrackingCodeMaxLen  = 20
)

// codeAlphabet holds the characters allowed in the random tail of a code.
// Uppercase letters and digits only, so codes survive phone calls and
// handwritten manifests.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxCodeAttempts bounds the uniqueness probe loop before falling back to a
// UUID-derived code.
const maxCodeAttempts = 10

// ErrCodeExhausted is returned when both the random attempts and the UUID
// fallback produced a code the predicate rejected. With the fallback in
// place this is effectively unreachable; treat it as fatal and do not retry.
var ErrCodeExhausted = errors.New("code generation exhausted all attempts")

// ExistsFunc reports whether a candidate code is already taken. It is
// typically backed by a SELECT against the owning table's code column.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// GenerateCode builds a unique human-readable code of the form
// prefix + yymmdd + random tail. Uniqueness is probed through exists up to
// ten times; on exhaustion the tail is replaced by the digits of a fresh
// UUID and the whole code truncated to maxLen.
//
// The probe is check-then-insert and therefore racy by construction: the
// code columns carry UNIQUE constraints and callers must regenerate on a
// duplicate-key insert error (see repository.IsDuplicateKey).
func GenerateCode(ctx context.Context, prefix string, randLen, maxLen int, exists ExistsFunc) (string, error) {
	stamp := time.Now().UTC().Format("060102")
	for i := 0; i < maxCodeAttempts; i++ {
		tail, err := randAlnum(randLen)
		if err != nil {
			return "", err
		}
		candidate := prefix + stamp + tail
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	// Fallback: UUID digits in place of the random tail, truncated to the
	// column width. Not guaranteed unique; the DB constraint is the final
	// arbiter.
	fallback := prefix + stamp + uuidDigits()
	if len(fallback) > maxLen {
		fallback = fallback[:maxLen]
	}
	taken, err := exists(ctx, fallback)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrCodeExhausted
	}
	return fallback, nil
}

// randAlnum returns n characters drawn from codeAlphabet using crypto/rand.
func randAlnum(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// uuidDigits returns the decimal digits of a fresh UUID v4, used as the
// fallback code tail.
func uuidDigits() string {
	var sb strings.Builder
	for _, r := range uuid.NewString() {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
