package config

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
)

// Setting names understood by the reservation core, with their defaults.
// Rows live in the company_settings table as name/value text pairs so
// operators can change them without a deploy.
const (
	SettingMaxSeatsPerBooking = "max_seats_per_booking"
	SettingBookingExpiryMin   = "booking_expiry_minutes"

	DefaultMaxSeatsPerBooking = 10
	DefaultBookingExpiryMin   = 30
)

// Settings is the injected configuration provider the reservation service
// consults on every admission. Values are loaded once and cached in
// process; Reload refreshes the cache explicitly (there is no TTL or
// framework-level invalidation).
type Settings struct {
	db *sql.DB

	mu     sync.RWMutex
	values map[string]string
	loaded bool
}

// NewSettings returns a Settings provider backed by the given database.
func NewSettings(db *sql.DB) *Settings {
	return &Settings{db: db, values: map[string]string{}}
}

// Reload replaces the cached settings with the current table contents.
// Unknown names are kept so future settings need no code change here.
func (s *Settings) Reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM company_settings`)
	if err != nil {
		return err
	}
	defer rows.Close()
	fresh := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return err
		}
		fresh[name] = value
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.values = fresh
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// intValue returns the named setting as an int, falling back to def when the
// setting is absent or malformed. The first call triggers a lazy Reload.
func (s *Settings) intValue(ctx context.Context, name string, def int) int {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		// Best effort: a failing reload leaves the defaults in force.
		_ = s.Reload(ctx)
	}
	s.mu.RLock()
	raw, ok := s.values[name]
	s.mu.RUnlock()
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// MaxSeatsPerBooking returns the per-reservation seat ceiling.
func (s *Settings) MaxSeatsPerBooking(ctx context.Context) int {
	return s.intValue(ctx, SettingMaxSeatsPerBooking, DefaultMaxSeatsPerBooking)
}

// BookingExpiryMinutes returns the grace period granted to PENDING
// reservations before the sweeper expires them.
func (s *Settings) BookingExpiryMinutes(ctx context.Context) int {
	return s.intValue(ctx, SettingBookingExpiryMin, DefaultBookingExpiryMin)
}
