package models

import "time"

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

// Terminal reports whether no further transition is allowed from s.
func (s BookingStatus) Terminal() bool {
	return s == BookingApproved || s == BookingRejected
}

type Role string

const (
	RoleRequester  Role = "requester"
	RoleLabAdmin   Role = "lab_admin"
	RoleSuperAdmin Role = "super_admin"
)

type Lab struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Capacity    int     `db:"capacity"`
	AdminID     *string `db:"admin_id"`
}

// FixedSchedule is a recurring weekly reservation: it claims Periods on every
// date whose weekday matches Weekday (Monday=0..Friday=4) inside the
// inclusive [StartDate, EndDate] range.
type FixedSchedule struct {
	ID          string    `db:"id"`
	LabID       string    `db:"lab_id"`
	Weekday     int       `db:"weekday"`
	Periods     PeriodSet `db:"periods"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Description string    `db:"description"`
}

type Booking struct {
	ID          string        `db:"id"`
	LabID       string        `db:"lab_id"`
	RequesterID string        `db:"requester_id"`
	Date        time.Time     `db:"booking_date"`
	Periods     PeriodSet     `db:"periods"`
	Description string        `db:"description"`
	Status      BookingStatus `db:"status"`
}

// User is the minimal identity projection the core needs: requester contact
// and the role used for approve/reject authorization.
type User struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Role         Role   `db:"role"`
	PasswordHash string `db:"password_hash"`
}

// DisplayName is what calendar entries show for a requester.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
