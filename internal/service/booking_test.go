package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

func bookingRequest(labID string) *api.BookingRequest {
	return &api.BookingRequest{
		LabID:       labID,
		Date:        "2025-03-03",
		Periods:     []int{1, 2},
		Description: "physics practice",
	}
}

func TestCreateBookingPending(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.CreateBooking(context.Background(), f.requester, bookingRequest(f.labID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != string(models.BookingPending) {
		t.Errorf("status = %q, want pending", resp.Status)
	}
	if !reflect.DeepEqual(resp.Periods, []int{1, 2}) {
		t.Errorf("periods = %v, want [1 2]", resp.Periods)
	}
	if resp.RequesterID != f.requester {
		t.Errorf("requester = %q, want %q", resp.RequesterID, f.requester)
	}
	if len(f.locker.locks) != 1 || len(f.locker.unlocks) != 1 {
		t.Errorf("lock traffic = %d/%d, want 1/1", len(f.locker.locks), len(f.locker.unlocks))
	}
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		mutate  func(*api.BookingRequest)
		actor   string
		wantErr error
	}{
		{"missing actor", func(r *api.BookingRequest) {}, "", response.ErrForbidden},
		{"unknown actor", func(r *api.BookingRequest) {}, "ghost", response.ErrNotFound},
		{"bad date", func(r *api.BookingRequest) { r.Date = "monday" }, f.requester, response.ErrValidation},
		{"unknown lab", func(r *api.BookingRequest) { r.LabID = "nope" }, f.requester, response.ErrNotFound},
		{"empty periods", func(r *api.BookingRequest) { r.Periods = nil }, f.requester, response.ErrValidation},
		{"period out of range", func(r *api.BookingRequest) { r.Periods = []int{0} }, f.requester, response.ErrValidation},
		{"blank description", func(r *api.BookingRequest) { r.Description = "   " }, f.requester, response.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingRequest(f.labID)
			tt.mutate(req)

			_, err := f.svc.CreateBooking(context.Background(), tt.actor, req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(f.store.bookings) != 0 {
		t.Errorf("no booking should be persisted, got %d", len(f.store.bookings))
	}
}

func TestCreateBookingDuplicateGuardIsOneWay(t *testing.T) {
	f := newFixture()
	f.addBooking(f.requester, monday, models.NewPeriodSet(1, 2, 3), models.BookingPending)

	// Subset of an existing pending request: blocked.
	req := bookingRequest(f.labID)
	req.Periods = []int{1, 2}
	if _, err := f.svc.CreateBooking(context.Background(), f.requester, req); !errors.Is(err, response.ErrDuplicate) {
		t.Errorf("subset request: err = %v, want ErrDuplicate", err)
	}

	// Proper superset: not a duplicate.
	req = bookingRequest(f.labID)
	req.Periods = []int{1, 2, 3, 4}
	if _, err := f.svc.CreateBooking(context.Background(), f.requester, req); err != nil {
		t.Errorf("superset request: unexpected error: %v", err)
	}
}

func TestCreateBookingDuplicateGuardScopedToRequester(t *testing.T) {
	f := newFixture()

	other, _ := f.store.CreateUser(context.Background(), &models.User{
		Email: "other@example.com", Role: models.RoleRequester,
	})
	f.addBooking(other, monday, models.NewPeriodSet(1, 2), models.BookingPending)

	if _, err := f.svc.CreateBooking(context.Background(), f.requester, bookingRequest(f.labID)); err != nil {
		t.Errorf("another requester's pending booking must not block: %v", err)
	}
}

func TestCreateBookingConflictReportsPeriods(t *testing.T) {
	f := newFixture()
	f.addSchedule(0, models.NewPeriodSet(2, 3), monday, monday.AddDate(1, 0, 0))

	_, err := f.svc.CreateBooking(context.Background(), f.requester, bookingRequest(f.labID))

	var conflictErr *response.PeriodConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("err = %v, want PeriodConflictError", err)
	}
	if !reflect.DeepEqual(conflictErr.Periods.Ints(), []int{2}) {
		t.Errorf("conflict periods = %v, want [2]", conflictErr.Periods.Ints())
	}
	if !errors.Is(err, response.ErrConflict) {
		t.Errorf("PeriodConflictError should unwrap to ErrConflict")
	}
}

func TestCreateBookingWhenLockHeld(t *testing.T) {
	f := newFixture()
	f.locker.held = true

	_, err := f.svc.CreateBooking(context.Background(), f.requester, bookingRequest(f.labID))
	if !errors.Is(err, response.ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
	if len(f.store.bookings) != 0 {
		t.Errorf("no booking should be persisted under a held lock")
	}
}

func TestCreateBookingFailsClosedOnDuplicateScanError(t *testing.T) {
	f := newFixture()
	f.store.listPendingErr = errors.New("connection reset")

	if _, err := f.svc.CreateBooking(context.Background(), f.requester, bookingRequest(f.labID)); err == nil {
		t.Fatalf("expected error when the pending scan fails")
	}
	if len(f.store.bookings) != 0 {
		t.Errorf("no booking should be persisted when the duplicate check fails")
	}
}

func TestApproveBooking(t *testing.T) {
	f := newFixture()
	id := f.addBooking(f.requester, monday, models.NewPeriodSet(1, 2), models.BookingPending)

	resp, err := f.svc.ApproveBooking(context.Background(), f.labAdmin, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != string(models.BookingApproved) {
		t.Errorf("status = %q, want approved", resp.Status)
	}
	if len(f.locker.locks) != 1 {
		t.Errorf("approval must run under the lab/date lock")
	}
}

func TestRejectBooking(t *testing.T) {
	f := newFixture()
	id := f.addBooking(f.requester, monday, models.NewPeriodSet(1, 2), models.BookingPending)

	resp, err := f.svc.RejectBooking(context.Background(), f.superID, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Status != string(models.BookingRejected) {
		t.Errorf("status = %q, want rejected", resp.Status)
	}
	if len(f.locker.locks) != 0 {
		t.Errorf("rejection does not need the lock")
	}
}

func TestDecideBookingAuthorization(t *testing.T) {
	f := newFixture()

	otherAdmin, _ := f.store.CreateUser(context.Background(), &models.User{
		Email: "elsewhere@example.com", Role: models.RoleLabAdmin,
	})

	id := f.addBooking(f.requester, monday, models.NewPeriodSet(1), models.BookingPending)

	for _, actor := range []string{f.requester, otherAdmin} {
		if _, err := f.svc.ApproveBooking(context.Background(), actor, id); !errors.Is(err, response.ErrForbidden) {
			t.Errorf("actor %s: err = %v, want ErrForbidden", actor, err)
		}
	}

	if f.store.bookings[id].Status != models.BookingPending {
		t.Errorf("status must stay pending after denied attempts")
	}
}

func TestDecideBookingIsOneShot(t *testing.T) {
	f := newFixture()
	id := f.addBooking(f.requester, monday, models.NewPeriodSet(1), models.BookingPending)

	if _, err := f.svc.ApproveBooking(context.Background(), f.labAdmin, id); err != nil {
		t.Fatalf("first approval: %v", err)
	}

	if _, err := f.svc.RejectBooking(context.Background(), f.labAdmin, id); !errors.Is(err, response.ErrStateViolation) {
		t.Errorf("reject after approve: err = %v, want ErrStateViolation", err)
	}
	if _, err := f.svc.ApproveBooking(context.Background(), f.labAdmin, id); !errors.Is(err, response.ErrStateViolation) {
		t.Errorf("second approve: err = %v, want ErrStateViolation", err)
	}

	if f.store.bookings[id].Status != models.BookingApproved {
		t.Errorf("status = %q, want approved unchanged", f.store.bookings[id].Status)
	}
}

func TestApproveBookingRechecksAvailability(t *testing.T) {
	f := newFixture()

	other, _ := f.store.CreateUser(context.Background(), &models.User{
		Email: "other@example.com", Role: models.RoleRequester,
	})

	// Two overlapping pending requests; the first one gets approved.
	first := f.addBooking(other, monday, models.NewPeriodSet(1, 2), models.BookingPending)
	second := f.addBooking(f.requester, monday, models.NewPeriodSet(2, 3), models.BookingPending)

	if _, err := f.svc.ApproveBooking(context.Background(), f.labAdmin, first); err != nil {
		t.Fatalf("first approval: %v", err)
	}

	_, err := f.svc.ApproveBooking(context.Background(), f.labAdmin, second)

	var conflictErr *response.PeriodConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("second approval: err = %v, want PeriodConflictError", err)
	}
	if !reflect.DeepEqual(conflictErr.Periods.Ints(), []int{2}) {
		t.Errorf("conflict periods = %v, want [2]", conflictErr.Periods.Ints())
	}

	if f.store.bookings[second].Status != models.BookingPending {
		t.Errorf("the losing booking must stay pending")
	}
}

func TestListLabBookings(t *testing.T) {
	f := newFixture()
	f.addBooking(f.requester, monday, models.NewPeriodSet(1), models.BookingPending)
	approved := f.addBooking(f.requester, monday.AddDate(0, 0, 1), models.NewPeriodSet(2), models.BookingApproved)

	all, err := f.svc.ListLabBookings(context.Background(), f.labAdmin, f.labID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d bookings, want 2", len(all))
	}

	status := "approved"
	filtered, err := f.svc.ListLabBookings(context.Background(), f.labAdmin, f.labID, &status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != approved {
		t.Errorf("status filter broken: %+v", filtered)
	}

	bad := "cancelled"
	if _, err := f.svc.ListLabBookings(context.Background(), f.labAdmin, f.labID, &bad); !errors.Is(err, response.ErrValidation) {
		t.Errorf("unknown status filter: err = %v, want ErrValidation", err)
	}

	if _, err := f.svc.ListLabBookings(context.Background(), f.requester, f.labID, nil); !errors.Is(err, response.ErrForbidden) {
		t.Errorf("requester should not see the review queue: err = %v", err)
	}
}

func TestListMyBookings(t *testing.T) {
	f := newFixture()

	other, _ := f.store.CreateUser(context.Background(), &models.User{
		Email: "other@example.com", Role: models.RoleRequester,
	})
	f.addBooking(f.requester, monday, models.NewPeriodSet(1), models.BookingPending)
	f.addBooking(other, monday, models.NewPeriodSet(2), models.BookingPending)

	mine, err := f.svc.ListMyBookings(context.Background(), f.requester)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].RequesterID != f.requester {
		t.Errorf("got %+v, want only own bookings", mine)
	}
}
