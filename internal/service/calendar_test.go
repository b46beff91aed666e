package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

func TestBuildCalendarWeek(t *testing.T) {
	f := newFixture()

	// Mondays 1..2, all year.
	f.addSchedule(0, models.NewPeriodSet(1, 2), monday.AddDate(0, -1, 0), monday.AddDate(1, 0, 0))
	// Approved booking on Wednesday.
	f.addBooking(f.requester, monday.AddDate(0, 0, 2), models.NewPeriodSet(5), models.BookingApproved)
	// Pending bookings never show up.
	f.addBooking(f.requester, monday.AddDate(0, 0, 3), models.NewPeriodSet(6), models.BookingPending)

	days, err := f.svc.BuildCalendar(context.Background(), f.labID, "2025-03-03", "2025-03-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(days) != 5 {
		t.Fatalf("got %d days, want 5", len(days))
	}

	wantDates := []string{"2025-03-03", "2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07"}
	for i, day := range days {
		if day.Date != wantDates[i] {
			t.Errorf("day %d: date = %q, want %q", i, day.Date, wantDates[i])
		}
		if day.Entries == nil {
			t.Errorf("day %d: entries must be present even when empty", i)
		}
	}

	mondayEntries := days[0].Entries
	if len(mondayEntries) != 1 || mondayEntries[0].Kind != "fixed" {
		t.Fatalf("monday entries = %+v, want one fixed entry", mondayEntries)
	}
	if !reflect.DeepEqual(mondayEntries[0].Periods, []int{1, 2}) {
		t.Errorf("monday periods = %v, want [1 2]", mondayEntries[0].Periods)
	}

	wednesdayEntries := days[2].Entries
	if len(wednesdayEntries) != 1 || wednesdayEntries[0].Kind != "booking" {
		t.Fatalf("wednesday entries = %+v, want one booking entry", wednesdayEntries)
	}
	if wednesdayEntries[0].Requester != "Requester" {
		t.Errorf("requester = %q, want display name", wednesdayEntries[0].Requester)
	}

	// Thursday holds only the pending booking, which is invisible.
	if len(days[3].Entries) != 0 {
		t.Errorf("thursday entries = %+v, want none", days[3].Entries)
	}
}

func TestBuildCalendarSingleDay(t *testing.T) {
	f := newFixture()

	days, err := f.svc.BuildCalendar(context.Background(), f.labID, "2025-03-03", "2025-03-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Errorf("got %d days, want 1", len(days))
	}
}

func TestBuildCalendarIsReadOnly(t *testing.T) {
	f := newFixture()
	f.addBooking(f.requester, monday, models.NewPeriodSet(1), models.BookingApproved)

	first, err := f.svc.BuildCalendar(context.Background(), f.labID, "2025-03-03", "2025-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.BuildCalendar(context.Background(), f.labID, "2025-03-03", "2025-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated builds over unchanged data must agree")
	}
	if len(f.locker.locks) != 0 {
		t.Errorf("calendar reads must not take locks")
	}
}

func TestBuildCalendarErrors(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name     string
		labID    string
		from, to string
		wantErr  error
	}{
		{"inverted range", f.labID, "2025-03-07", "2025-03-03", response.ErrInvalidRange},
		{"bad from", f.labID, "yesterday", "2025-03-07", response.ErrValidation},
		{"bad to", f.labID, "2025-03-03", "someday", response.ErrValidation},
		{"unknown lab", "nope", "2025-03-03", "2025-03-07", response.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BuildCalendar(context.Background(), tt.labID, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
