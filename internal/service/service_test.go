package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

// fakeStore is an in-memory Store with optional per-listing error injection
// for the fail-closed paths.
type fakeStore struct {
	labs      map[string]*models.Lab
	schedules map[string]*models.FixedSchedule
	bookings  map[string]*models.Booking
	users     map[string]*models.User

	nextID int

	listSchedulesErr error
	listBookingsErr  error
	listPendingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		labs:      map[string]*models.Lab{},
		schedules: map[string]*models.FixedSchedule{},
		bookings:  map[string]*models.Booking{},
		users:     map[string]*models.User{},
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreateLab(_ context.Context, lab *models.Lab) (string, error) {
	l := *lab
	l.ID = f.id()
	f.labs[l.ID] = &l
	return l.ID, nil
}

func (f *fakeStore) GetLab(_ context.Context, id string) (*models.Lab, error) {
	lab, ok := f.labs[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return lab, nil
}

func (f *fakeStore) ListLabs(_ context.Context) ([]*models.Lab, error) {
	out := make([]*models.Lab, 0, len(f.labs))
	for _, lab := range f.labs {
		out = append(out, lab)
	}
	return out, nil
}

func (f *fakeStore) UpdateLab(_ context.Context, lab *models.Lab) error {
	if _, ok := f.labs[lab.ID]; !ok {
		return response.ErrNotFound
	}
	l := *lab
	f.labs[lab.ID] = &l
	return nil
}

func (f *fakeStore) DeleteLab(_ context.Context, id string) error {
	if _, ok := f.labs[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.labs, id)
	return nil
}

func (f *fakeStore) CreateFixedSchedule(_ context.Context, schedule *models.FixedSchedule) (string, error) {
	s := *schedule
	s.ID = f.id()
	f.schedules[s.ID] = &s
	return s.ID, nil
}

func (f *fakeStore) GetFixedSchedule(_ context.Context, id string) (*models.FixedSchedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return schedule, nil
}

func (f *fakeStore) ListFixedSchedules(_ context.Context, labID string) ([]*models.FixedSchedule, error) {
	if f.listSchedulesErr != nil {
		return nil, f.listSchedulesErr
	}
	var out []*models.FixedSchedule
	for _, schedule := range f.schedules {
		if schedule.LabID == labID {
			out = append(out, schedule)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateFixedSchedule(_ context.Context, schedule *models.FixedSchedule) error {
	if _, ok := f.schedules[schedule.ID]; !ok {
		return response.ErrNotFound
	}
	s := *schedule
	f.schedules[schedule.ID] = &s
	return nil
}

func (f *fakeStore) DeleteFixedSchedule(_ context.Context, id string) error {
	if _, ok := f.schedules[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.schedules, id)
	return nil
}

func (f *fakeStore) CreateBooking(_ context.Context, booking *models.Booking) (string, error) {
	b := *booking
	b.ID = f.id()
	f.bookings[b.ID] = &b
	return b.ID, nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	booking, ok := f.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return booking, nil
}

func (f *fakeStore) ListBookingsByLabDate(_ context.Context, labID string, date time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	if f.listBookingsErr != nil {
		return nil, f.listBookingsErr
	}
	var out []*models.Booking
	for _, booking := range f.bookings {
		if booking.LabID != labID || !models.SameDate(booking.Date, date) {
			continue
		}
		if status != nil && booking.Status != *status {
			continue
		}
		out = append(out, booking)
	}
	return out, nil
}

func (f *fakeStore) ListBookingsByLabRange(_ context.Context, labID string, from, to time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	if f.listBookingsErr != nil {
		return nil, f.listBookingsErr
	}
	var out []*models.Booking
	for _, booking := range f.bookings {
		if booking.LabID != labID {
			continue
		}
		d := models.DateOnly(booking.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		if status != nil && booking.Status != *status {
			continue
		}
		out = append(out, booking)
	}
	return out, nil
}

func (f *fakeStore) ListBookingsByRequester(_ context.Context, requesterID string) ([]*models.Booking, error) {
	var out []*models.Booking
	for _, booking := range f.bookings {
		if booking.RequesterID == requesterID {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingByRequester(_ context.Context, requesterID, labID string, date time.Time) ([]*models.Booking, error) {
	if f.listPendingErr != nil {
		return nil, f.listPendingErr
	}
	var out []*models.Booking
	for _, booking := range f.bookings {
		if booking.RequesterID == requesterID && booking.LabID == labID &&
			models.SameDate(booking.Date, date) && booking.Status == models.BookingPending {
			out = append(out, booking)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateBookingStatus(_ context.Context, bookingID string, status models.BookingStatus) error {
	booking, ok := f.bookings[bookingID]
	if !ok {
		return response.ErrNotFound
	}
	if booking.Status.Terminal() {
		return response.ErrStateViolation
	}
	booking.Status = status
	return nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) (string, error) {
	u := *user
	u.ID = f.id()
	f.users[u.ID] = &u
	return u.ID, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) ListUsers(_ context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CountUsersByRole(_ context.Context, role models.Role) (int, error) {
	n := 0
	for _, user := range f.users {
		if user.Role == role {
			n++
		}
	}
	return n, nil
}

// fakeLocker counts lock traffic; set held to simulate a key already taken
// by another process.
type fakeLocker struct {
	mu      sync.Mutex
	held    bool
	lockErr error
	locks   []string
	unlocks []string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return false, f.lockErr
	}
	if f.held {
		return false, nil
	}
	f.locks = append(f.locks, key)
	return true, nil
}

func (f *fakeLocker) Unlock(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocks = append(f.unlocks, key)
	return nil
}

type sentMail struct {
	recipient string
	subject   string
}

// fakeNotifier records deliveries behind a mutex; Send runs from goroutines.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeNotifier) Send(_ context.Context, recipient, subject, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{recipient: recipient, subject: subject})
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	locker   *fakeLocker
	notifier *fakeNotifier

	labID     string
	requester string
	labAdmin  string
	superID   string
}

// newFixture builds a service over in-memory fakes with one lab, its
// administrator, a plain requester and a super admin.
func newFixture() *fixture {
	store := newFakeStore()
	locker := &fakeLocker{}
	notifier := &fakeNotifier{}

	adminID, _ := store.CreateUser(context.Background(), &models.User{
		Name: "Lab Admin", Email: "admin@example.com", Role: models.RoleLabAdmin,
	})
	requesterID, _ := store.CreateUser(context.Background(), &models.User{
		Name: "Requester", Email: "requester@example.com", Role: models.RoleRequester,
	})
	superID, _ := store.CreateUser(context.Background(), &models.User{
		Name: "Root", Email: "root@example.com", Role: models.RoleSuperAdmin,
	})

	labID, _ := store.CreateLab(context.Background(), &models.Lab{
		Name: "chemistry lab", Capacity: 30, AdminID: &adminID,
	})

	return &fixture{
		svc:      NewService(store, locker, notifier),
		store:    store,
		locker:   locker,
		notifier: notifier,

		labID:     labID,
		requester: requesterID,
		labAdmin:  adminID,
		superID:   superID,
	}
}

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func (f *fixture) addSchedule(weekday int, periods models.PeriodSet, start, end time.Time) string {
	id, _ := f.store.CreateFixedSchedule(context.Background(), &models.FixedSchedule{
		LabID:     f.labID,
		Weekday:   weekday,
		Periods:   periods,
		StartDate: start,
		EndDate:   end,
	})
	return id
}

func (f *fixture) addBooking(requesterID string, date time.Time, periods models.PeriodSet, status models.BookingStatus) string {
	id, _ := f.store.CreateBooking(context.Background(), &models.Booking{
		LabID:       f.labID,
		RequesterID: requesterID,
		Date:        date,
		Periods:     periods,
		Description: "lab session",
		Status:      status,
	})
	return id
}
