package service

import (
	"context"
	"fmt"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

// BuildCalendar merges expanded fixed schedules and approved bookings into a
// per-date view of the range [from, to] inclusive. Every date in the range
// is present even when it has no entries. Pure projection: no mutation, safe
// alongside concurrent writes (with the usual read staleness).
func (s *Service) BuildCalendar(ctx context.Context, labID, fromStr, toStr string) ([]*api.CalendarDay, error) {
	const op = "service.BuildCalendar"

	from, err := parseDate(op, "from", fromStr)
	if err != nil {
		return nil, err
	}

	to, err := parseDate(op, "to", toStr)
	if err != nil {
		return nil, err
	}

	if from.After(to) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrInvalidRange)
	}

	if _, err := s.store.GetLab(ctx, labID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedules, err := s.store.ListFixedSchedules(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	approved := models.BookingApproved
	bookings, err := s.store.ListBookingsByLabRange(ctx, labID, from, to, &approved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Requester display identities, one lookup per distinct requester.
	requesters := map[string]string{}
	for _, booking := range bookings {
		if _, ok := requesters[booking.RequesterID]; ok {
			continue
		}
		user, err := s.store.GetUser(ctx, booking.RequesterID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		requesters[booking.RequesterID] = user.DisplayName()
	}

	var days []*api.CalendarDay
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day := &api.CalendarDay{
			Date:    date.Format(dateLayout),
			Entries: []api.CalendarEntry{},
		}

		for _, schedule := range schedules {
			if applies(schedule, date) {
				day.Entries = append(day.Entries, api.CalendarEntry{
					Kind:        "fixed",
					Periods:     schedule.Periods.Ints(),
					Description: schedule.Description,
				})
			}
		}

		for _, booking := range bookings {
			if models.SameDate(booking.Date, date) {
				day.Entries = append(day.Entries, api.CalendarEntry{
					Kind:        "booking",
					Periods:     booking.Periods.Ints(),
					Description: booking.Description,
					Requester:   requesters[booking.RequesterID],
				})
			}
		}

		days = append(days, day)
	}

	return days, nil
}
