package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

func TestAppliesWeekdayAndRange(t *testing.T) {
	schedule := &models.FixedSchedule{
		Weekday:   0, // Monday
		Periods:   models.NewPeriodSet(1, 2),
		StartDate: monday,
		EndDate:   monday.AddDate(0, 2, 0),
	}

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"matching monday inside range", monday.AddDate(0, 0, 7), true},
		{"range boundaries are inclusive", monday, true},
		{"tuesday never matches a monday schedule", monday.AddDate(0, 0, 1), false},
		{"monday before the range", monday.AddDate(0, 0, -7), false},
		{"monday after the range", monday.AddDate(0, 3, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applies(schedule, tt.date); got != tt.want {
				t.Errorf("applies(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestCheckAvailabilityFixedScheduleConflict(t *testing.T) {
	f := newFixture()
	f.addSchedule(0, models.NewPeriodSet(1, 2), monday, monday.AddDate(1, 0, 0))

	resp, err := f.svc.CheckAvailability(context.Background(), f.labID, "2025-03-03", []int{2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Available {
		t.Errorf("expected unavailable")
	}
	if !reflect.DeepEqual(resp.Conflicts, []int{2}) {
		t.Errorf("conflicts = %v, want [2]", resp.Conflicts)
	}
}

func TestCheckAvailabilityApprovedBookingConflict(t *testing.T) {
	f := newFixture()
	f.addBooking(f.requester, monday, models.NewPeriodSet(4, 5), models.BookingApproved)

	resp, err := f.svc.CheckAvailability(context.Background(), f.labID, "2025-03-03", []int{5, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Available {
		t.Errorf("expected unavailable")
	}
	if !reflect.DeepEqual(resp.Conflicts, []int{5}) {
		t.Errorf("conflicts = %v, want [5]", resp.Conflicts)
	}
}

func TestCheckAvailabilityIgnoresPendingAndRejected(t *testing.T) {
	f := newFixture()
	f.addBooking(f.requester, monday, models.NewPeriodSet(1, 2), models.BookingPending)
	f.addBooking(f.requester, monday, models.NewPeriodSet(3, 4), models.BookingRejected)

	resp, err := f.svc.CheckAvailability(context.Background(), f.labID, "2025-03-03", []int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Available {
		t.Errorf("pending and rejected bookings must not occupy periods, conflicts = %v", resp.Conflicts)
	}
}

func TestCheckAvailabilityUnionsAllSources(t *testing.T) {
	f := newFixture()
	f.addSchedule(0, models.NewPeriodSet(1, 2), monday, monday.AddDate(1, 0, 0))
	f.addSchedule(0, models.NewPeriodSet(3), monday, monday.AddDate(1, 0, 0))
	f.addBooking(f.requester, monday, models.NewPeriodSet(7), models.BookingApproved)

	resp, err := f.svc.CheckAvailability(context.Background(), f.labID, "2025-03-03", []int{2, 3, 7, 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(resp.Conflicts, []int{2, 3, 7}) {
		t.Errorf("conflicts = %v, want [2 3 7]", resp.Conflicts)
	}
}

func TestCheckAvailabilityValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		labID   string
		date    string
		periods []int
		wantErr error
	}{
		{"bad date", f.labID, "03/03/2025", []int{1}, response.ErrValidation},
		{"empty periods", f.labID, "2025-03-03", nil, response.ErrValidation},
		{"period out of range", f.labID, "2025-03-03", []int{10}, response.ErrValidation},
		{"unknown lab", "nope", "2025-03-03", []int{1}, response.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CheckAvailability(context.Background(), tt.labID, tt.date, tt.periods)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckAvailabilityFailsClosedOnStorageError(t *testing.T) {
	f := newFixture()
	f.store.listSchedulesErr = errors.New("connection reset")

	_, err := f.svc.CheckAvailability(context.Background(), f.labID, "2025-03-03", []int{1})
	if err == nil {
		t.Fatalf("expected error when the schedule scan fails")
	}
}
