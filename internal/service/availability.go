package service

import (
	"context"
	"fmt"
	"time"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

// applies reports whether a fixed schedule claims the given calendar date:
// the date's Monday=0 weekday matches and the date falls inside the
// schedule's inclusive range. Dates are compared as calendar dates, never as
// instants.
func applies(schedule *models.FixedSchedule, date time.Time) bool {
	if models.WeekdayIndex(date) != schedule.Weekday {
		return false
	}

	d := models.DateOnly(date)
	start := models.DateOnly(schedule.StartDate)
	end := models.DateOnly(schedule.EndDate)

	return !d.Before(start) && !d.After(end)
}

// occupiedPeriods unions the period sets of every fixed schedule applying to
// the date and every approved booking on it. Both sources are always fully
// scanned; a storage error aborts (availability is then unknown and callers
// must refuse to proceed).
func (s *Service) occupiedPeriods(ctx context.Context, labID string, date time.Time) (models.PeriodSet, error) {
	const op = "service.occupiedPeriods"

	occupied := models.PeriodSet{}

	schedules, err := s.store.ListFixedSchedules(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, schedule := range schedules {
		if applies(schedule, date) {
			occupied = occupied.Union(schedule.Periods)
		}
	}

	approved := models.BookingApproved
	bookings, err := s.store.ListBookingsByLabDate(ctx, labID, date, &approved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, booking := range bookings {
		occupied = occupied.Union(booking.Periods)
	}

	return occupied, nil
}

// checkAvailability is the read-only availability check: conflicts is the
// intersection of the requested set with the occupied set.
func (s *Service) checkAvailability(ctx context.Context, labID string, date time.Time, requested models.PeriodSet) (available bool, conflicts models.PeriodSet, err error) {
	occupied, err := s.occupiedPeriods(ctx, labID, date)
	if err != nil {
		return false, nil, err
	}

	conflicts = requested.Intersect(occupied)

	return conflicts.IsEmpty(), conflicts, nil
}

// CheckAvailability answers whether the requested periods are free on the
// given date, reporting the occupied intersection when they are not.
func (s *Service) CheckAvailability(ctx context.Context, labID, dateStr string, periods []int) (*api.AvailabilityResponse, error) {
	const op = "service.CheckAvailability"

	date, err := parseDate(op, "date", dateStr)
	if err != nil {
		return nil, err
	}

	requested := periodSetFromInts(periods)
	if !requested.Valid() {
		return nil, fmt.Errorf("%s: periods must be a non-empty set within 1..9: %w", op, response.ErrValidation)
	}

	if _, err := s.store.GetLab(ctx, labID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	available, conflicts, err := s.checkAvailability(ctx, labID, date, requested)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AvailabilityResponse{
		Available: available,
		Conflicts: conflicts.Ints(),
	}, nil
}

func periodSetFromInts(periods []int) models.PeriodSet {
	set := make([]models.Period, len(periods))
	for i, p := range periods {
		set[i] = models.Period(p)
	}
	return models.NewPeriodSet(set...)
}
