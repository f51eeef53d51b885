// Package schedule computes the bookable capacity of a business day:
// operating hours, slot partitioning, and employee availability.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"garage-backend/internal/model"
)

// ErrNoSettings is returned when no BusinessSettings row exists. Slot
// generation cannot proceed without one; the condition is a configuration
// fault, not something to retry.
var ErrNoSettings = errors.New("business settings are not configured")

// SettingsSource is the slice of the store the calendar needs.
type SettingsSource interface {
	BusinessSettings(ctx context.Context) (*model.BusinessSettings, error)
}

// Calendar converts the shop's local operating hours into absolute UTC
// instants for a given calendar date.
type Calendar struct {
	settings SettingsSource
}

// NewCalendar creates a Calendar reading from the given settings source.
func NewCalendar(settings SettingsSource) *Calendar {
	return &Calendar{settings: settings}
}

// OperatingWindow returns the UTC open and close instants for the calendar
// date, using the shop timezone's offset at that specific date. The offset is
// resolved per date through the IANA database, so days around daylight-saving
// transitions come out right.
func (c *Calendar) OperatingWindow(ctx context.Context, date time.Time) (time.Time, time.Time, *model.BusinessSettings, error) {
	settings, err := c.settings.BusinessSettings(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: %v", ErrNoSettings, err)
	}

	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: invalid timezone %q", ErrNoSettings, settings.Timezone)
	}

	openH, openM, err := parseWallClock(settings.OpenTime)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: invalid open time %q", ErrNoSettings, settings.OpenTime)
	}
	closeH, closeM, err := parseWallClock(settings.CloseTime)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: invalid close time %q", ErrNoSettings, settings.CloseTime)
	}
	if openH*60+openM >= closeH*60+closeM {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: open time %s is not before close time %s", ErrNoSettings, settings.OpenTime, settings.CloseTime)
	}

	y, m, d := date.Date()
	start := time.Date(y, m, d, openH, openM, 0, 0, loc).UTC()
	end := time.Date(y, m, d, closeH, closeM, 0, 0, loc).UTC()
	return start, end, settings, nil
}

// parseWallClock parses "HH:mm" into hour and minute components.
func parseWallClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
