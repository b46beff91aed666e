package service

import (
	"context"
	"fmt"
	"time"

	"agenda-service/internal/lock"
	"agenda-service/internal/models"
	"agenda-service/internal/notify"
	"agenda-service/pkg/response"
)

const dateLayout = "2006-01-02"

// lockTTL bounds how long a (lab, date) pair stays locked if an operation
// dies before unlocking.
const lockTTL = 10 * time.Second

type Service struct {
	store    Store
	locker   lock.Locker
	notifier notify.Notifier
}

func NewService(store Store, locker lock.Locker, notifier notify.Notifier) *Service {
	return &Service{store: store, locker: locker, notifier: notifier}
}

// Store is the persistence collaborator: record-level CRUD plus the filtered
// listings the scheduling core needs. Every call suspends until the
// underlying store responds; a failing call aborts the operation (the core
// fails closed, it never guesses availability).
type Store interface {
	// Labs
	CreateLab(ctx context.Context, lab *models.Lab) (string, error)
	GetLab(ctx context.Context, id string) (*models.Lab, error)
	ListLabs(ctx context.Context) ([]*models.Lab, error)
	UpdateLab(ctx context.Context, lab *models.Lab) error
	DeleteLab(ctx context.Context, id string) error

	// Fixed schedules
	CreateFixedSchedule(ctx context.Context, schedule *models.FixedSchedule) (string, error)
	GetFixedSchedule(ctx context.Context, id string) (*models.FixedSchedule, error)
	ListFixedSchedules(ctx context.Context, labID string) ([]*models.FixedSchedule, error)
	UpdateFixedSchedule(ctx context.Context, schedule *models.FixedSchedule) error
	DeleteFixedSchedule(ctx context.Context, id string) error

	// Bookings
	CreateBooking(ctx context.Context, booking *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookingsByLabDate(ctx context.Context, labID string, date time.Time, status *models.BookingStatus) ([]*models.Booking, error)
	ListBookingsByLabRange(ctx context.Context, labID string, from, to time.Time, status *models.BookingStatus) ([]*models.Booking, error)
	ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.Booking, error)
	ListPendingByRequester(ctx context.Context, requesterID, labID string, date time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error

	// Users
	CreateUser(ctx context.Context, user *models.User) (string, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	CountUsersByRole(ctx context.Context, role models.Role) (int, error)
}

// actor resolves the acting identity. Every mutating operation takes the
// actor id explicitly; there is no ambient current-user state.
func (s *Service) actor(ctx context.Context, op, actorID string) (*models.User, error) {
	if actorID == "" {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	user, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("%s: actor: %w", op, err)
	}

	return user, nil
}

// administers reports whether actor may approve/reject bookings and manage
// fixed schedules of lab.
func administers(actor *models.User, lab *models.Lab) bool {
	if actor.Role == models.RoleSuperAdmin {
		return true
	}
	if actor.Role != models.RoleLabAdmin {
		return false
	}

	return lab.AdminID != nil && *lab.AdminID == actor.ID
}

func parseDate(op, field, value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid %s: %w", op, field, response.ErrValidation)
	}

	return models.DateOnly(date), nil
}
