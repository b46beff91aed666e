package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agenda-service/api"
	"agenda-service/internal/lock"
	"agenda-service/internal/models"
	"agenda-service/internal/notify"
	"agenda-service/pkg/response"
)

// hasDuplicate implements the duplicate request guard: true iff an existing
// pending booking by the same requester on the same lab and date has a
// period set containing every newly requested period. The containment is
// deliberately one-way: pending {1,2,3} blocks a new {1,2}, a pending {1}
// does not block a new {1,2}.
func (s *Service) hasDuplicate(ctx context.Context, requesterID, labID string, date time.Time, requested models.PeriodSet) (bool, error) {
	const op = "service.hasDuplicate"

	pending, err := s.store.ListPendingByRequester(ctx, requesterID, labID, date)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	for _, booking := range pending {
		if booking.Periods.ContainsAll(requested) {
			return true, nil
		}
	}

	return false, nil
}

// CreateBooking runs the submission precondition chain — lab exists, periods
// valid, description non-empty, no duplicate pending request, periods
// available — and persists the booking in pending state. The (lab, date)
// lock keeps the availability read from interleaving with a concurrent
// approval; two pending submissions for the same periods are still allowed,
// pending bookings occupy nothing.
func (s *Service) CreateBooking(ctx context.Context, actorID string, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	date, err := parseDate(op, "date", req.Date)
	if err != nil {
		return nil, err
	}

	lab, err := s.store.GetLab(ctx, req.LabID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	requested := periodSetFromInts(req.Periods)
	if !requested.Valid() {
		return nil, fmt.Errorf("%s: periods must be a non-empty set within 1..9: %w", op, response.ErrValidation)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("%s: description is required: %w", op, response.ErrValidation)
	}

	lockKey := lock.LabDateKey(lab.ID, date)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	duplicate, err := s.hasDuplicate(ctx, actor.ID, lab.ID, date, requested)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if duplicate {
		return nil, fmt.Errorf("%s: %w", op, response.ErrDuplicate)
	}

	available, conflicts, err := s.checkAvailability(ctx, lab.ID, date, requested)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !available {
		return nil, fmt.Errorf("%s: %w", op, &response.PeriodConflictError{Periods: conflicts})
	}

	booking := &models.Booking{
		LabID:       lab.ID,
		RequesterID: actor.ID,
		Date:        date,
		Periods:     requested,
		Description: description,
		Status:      models.BookingPending,
	}

	bookingID, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subject, body := notify.BookingCreatedMessage(lab.Name, date, description)
	go s.notifier.Send(context.WithoutCancel(ctx), actor.Email, subject, body)

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingResponse(booking), nil
}

// ListMyBookings returns the actor's own bookings in ascending date order.
func (s *Service) ListMyBookings(ctx context.Context, actorID string) ([]*api.BookingResponse, error) {
	const op = "service.ListMyBookings"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.store.ListBookingsByRequester(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, bookingResponse(booking))
	}

	return result, nil
}

// ListLabBookings is the administrator review queue: bookings of one lab,
// optionally filtered by status. Restricted to the lab's administrator.
func (s *Service) ListLabBookings(ctx context.Context, actorID, labID string, statusFilter *string) ([]*api.BookingResponse, error) {
	const op = "service.ListLabBookings"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	lab, err := s.store.GetLab(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !administers(actor, lab) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	var status *models.BookingStatus
	if statusFilter != nil {
		st := models.BookingStatus(*statusFilter)
		if st != models.BookingPending && st != models.BookingApproved && st != models.BookingRejected {
			return nil, fmt.Errorf("%s: invalid status filter: %w", op, response.ErrValidation)
		}
		status = &st
	}

	from := models.DateOnly(time.Time{})
	to := models.DateOnly(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))

	bookings, err := s.store.ListBookingsByLabRange(ctx, lab.ID, from, to, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, bookingResponse(booking))
	}

	return result, nil
}

// ApproveBooking flips a pending booking to approved. The transition is
// authorized to the owning lab admin or a super admin, and re-validates
// availability under the (lab, date) lock so two overlapping pending
// requests cannot both be approved: the second one fails with the conflict
// and stays pending.
func (s *Service) ApproveBooking(ctx context.Context, actorID, bookingID string) (*api.BookingResponse, error) {
	return s.decideBooking(ctx, "service.ApproveBooking", actorID, bookingID, models.BookingApproved)
}

// RejectBooking flips a pending booking to rejected.
func (s *Service) RejectBooking(ctx context.Context, actorID, bookingID string) (*api.BookingResponse, error) {
	return s.decideBooking(ctx, "service.RejectBooking", actorID, bookingID, models.BookingRejected)
}

func (s *Service) decideBooking(ctx context.Context, op, actorID, bookingID string, status models.BookingStatus) (*api.BookingResponse, error) {
	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lab, err := s.store.GetLab(ctx, booking.LabID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !administers(actor, lab) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if booking.Status.Terminal() {
		return nil, fmt.Errorf("%s: %w", op, response.ErrStateViolation)
	}

	if status == models.BookingApproved {
		lockKey := lock.LabDateKey(lab.ID, booking.Date)

		locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !locked {
			return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
		defer func() {
			_ = s.locker.Unlock(ctx, lockKey)
		}()

		// A sibling pending request may have been approved since this one
		// passed its creation-time check.
		available, conflicts, err := s.checkAvailability(ctx, lab.ID, booking.Date, booking.Periods)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !available {
			return nil, fmt.Errorf("%s: %w", op, &response.PeriodConflictError{Periods: conflicts})
		}
	}

	if err := s.store.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if requester, err := s.store.GetUser(ctx, booking.RequesterID); err == nil {
		subject, body := notify.BookingDecidedMessage(lab.Name, booking.Date, booking.Description, status == models.BookingApproved)
		go s.notifier.Send(context.WithoutCancel(ctx), requester.Email, subject, body)
	}

	return s.GetBooking(ctx, bookingID)
}

func bookingResponse(booking *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:          booking.ID,
		LabID:       booking.LabID,
		RequesterID: booking.RequesterID,
		Date:        booking.Date.Format(dateLayout),
		Periods:     booking.Periods.Ints(),
		Description: booking.Description,
		Status:      string(booking.Status),
	}
}
