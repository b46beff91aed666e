package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func periodsToArray(periods models.PeriodSet) pq.Int64Array {
	arr := make(pq.Int64Array, len(periods))
	for i, p := range periods {
		arr[i] = int64(p)
	}
	return arr
}

func arrayToPeriods(arr pq.Int64Array) models.PeriodSet {
	periods := make([]models.Period, len(arr))
	for i, v := range arr {
		periods[i] = models.Period(v)
	}
	return models.NewPeriodSet(periods...)
}

func mapPqError(op string, err error) error {
	sqlErr, ok := err.(*pq.Error)
	if ok && sqlErr.Code == "23505" {
		return fmt.Errorf("%s: %w", op, response.ErrNameTaken)
	}
	if ok && sqlErr.Code == "23503" {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return fmt.Errorf("%s: %w", op, err)
}

// #### labs ####

func (s *Storage) CreateLab(ctx context.Context, lab *models.Lab) (string, error) {
	const op = "storage.postgres.CreateLab"

	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labs (id, name, description, capacity, admin_id)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		lab.Name,
		lab.Description,
		lab.Capacity,
		lab.AdminID,
	)
	if err != nil {
		return "", mapPqError(op, err)
	}

	return id, nil
}

func (s *Storage) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	const op = "storage.postgres.GetLab"

	var lab models.Lab

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, capacity, admin_id FROM labs WHERE id=$1`, id).
		Scan(
			&lab.ID,
			&lab.Name,
			&lab.Description,
			&lab.Capacity,
			&lab.AdminID,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &lab, nil
}

func (s *Storage) ListLabs(ctx context.Context) ([]*models.Lab, error) {
	const op = "storage.postgres.ListLabs"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, capacity, admin_id FROM labs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var labs []*models.Lab
	for rows.Next() {
		var lab models.Lab
		err := rows.Scan(&lab.ID, &lab.Name, &lab.Description, &lab.Capacity, &lab.AdminID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		labs = append(labs, &lab)
	}

	return labs, nil
}

func (s *Storage) UpdateLab(ctx context.Context, lab *models.Lab) error {
	const op = "storage.postgres.UpdateLab"

	res, err := s.db.ExecContext(ctx,
		`UPDATE labs SET name=$1, description=$2, capacity=$3, admin_id=$4 WHERE id=$5`,
		lab.Name,
		lab.Description,
		lab.Capacity,
		lab.AdminID,
		lab.ID,
	)
	if err != nil {
		return mapPqError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteLab(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteLab"

	res, err := s.db.ExecContext(ctx, `DELETE FROM labs WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### fixed schedules ####

func (s *Storage) CreateFixedSchedule(ctx context.Context, schedule *models.FixedSchedule) (string, error) {
	const op = "storage.postgres.CreateFixedSchedule"

	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fixed_schedules (id, lab_id, weekday, periods, start_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		schedule.LabID,
		schedule.Weekday,
		periodsToArray(schedule.Periods),
		schedule.StartDate,
		schedule.EndDate,
		schedule.Description,
	)
	if err != nil {
		return "", mapPqError(op, err)
	}

	return id, nil
}

func (s *Storage) GetFixedSchedule(ctx context.Context, id string) (*models.FixedSchedule, error) {
	const op = "storage.postgres.GetFixedSchedule"

	var schedule models.FixedSchedule
	var periods pq.Int64Array

	err := s.db.QueryRowContext(ctx,
		`SELECT id, lab_id, weekday, periods, start_date, end_date, description
		FROM fixed_schedules WHERE id=$1`, id).
		Scan(
			&schedule.ID,
			&schedule.LabID,
			&schedule.Weekday,
			&periods,
			&schedule.StartDate,
			&schedule.EndDate,
			&schedule.Description,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedule.Periods = arrayToPeriods(periods)

	return &schedule, nil
}

func (s *Storage) ListFixedSchedules(ctx context.Context, labID string) ([]*models.FixedSchedule, error) {
	const op = "storage.postgres.ListFixedSchedules"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lab_id, weekday, periods, start_date, end_date, description
		FROM fixed_schedules WHERE lab_id=$1 ORDER BY weekday`, labID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var schedules []*models.FixedSchedule
	for rows.Next() {
		var schedule models.FixedSchedule
		var periods pq.Int64Array

		err := rows.Scan(
			&schedule.ID,
			&schedule.LabID,
			&schedule.Weekday,
			&periods,
			&schedule.StartDate,
			&schedule.EndDate,
			&schedule.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		schedule.Periods = arrayToPeriods(periods)

		schedules = append(schedules, &schedule)
	}

	return schedules, nil
}

func (s *Storage) UpdateFixedSchedule(ctx context.Context, schedule *models.FixedSchedule) error {
	const op = "storage.postgres.UpdateFixedSchedule"

	res, err := s.db.ExecContext(ctx,
		`UPDATE fixed_schedules
		SET weekday=$1, periods=$2, start_date=$3, end_date=$4, description=$5
		WHERE id=$6`,
		schedule.Weekday,
		periodsToArray(schedule.Periods),
		schedule.StartDate,
		schedule.EndDate,
		schedule.Description,
		schedule.ID,
	)
	if err != nil {
		return mapPqError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteFixedSchedule(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteFixedSchedule"

	res, err := s.db.ExecContext(ctx, `DELETE FROM fixed_schedules WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### bookings ####

func (s *Storage) CreateBooking(ctx context.Context, booking *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBooking"

	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, lab_id, requester_id, booking_date, periods, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		booking.LabID,
		booking.RequesterID,
		booking.Date,
		periodsToArray(booking.Periods),
		booking.Description,
		string(booking.Status),
	)
	if err != nil {
		return "", mapPqError(op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking
	var periods pq.Int64Array

	err := s.db.QueryRowContext(ctx,
		`SELECT id, lab_id, requester_id, booking_date, periods, description, status
		FROM bookings WHERE id=$1`, id).
		Scan(
			&booking.ID,
			&booking.LabID,
			&booking.RequesterID,
			&booking.Date,
			&periods,
			&booking.Description,
			&booking.Status,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Periods = arrayToPeriods(periods)

	return &booking, nil
}

func (s *Storage) scanBookings(rows *sql.Rows, op string) ([]*models.Booking, error) {
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var booking models.Booking
		var periods pq.Int64Array

		err := rows.Scan(
			&booking.ID,
			&booking.LabID,
			&booking.RequesterID,
			&booking.Date,
			&periods,
			&booking.Description,
			&booking.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		booking.Periods = arrayToPeriods(periods)

		bookings = append(bookings, &booking)
	}

	return bookings, nil
}

// ListBookingsByLabDate returns bookings for a lab on a single calendar date,
// optionally narrowed to a status.
func (s *Storage) ListBookingsByLabDate(ctx context.Context, labID string, date time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookingsByLabDate"

	query := `SELECT id, lab_id, requester_id, booking_date, periods, description, status
		FROM bookings WHERE lab_id=$1 AND booking_date=$2`
	args := []any{labID, date}

	if status != nil {
		query += ` AND status=$3`
		args = append(args, string(*status))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.scanBookings(rows, op)
}

// ListBookingsByLabRange returns bookings for a lab inside [from, to]
// inclusive, optionally narrowed to a status.
func (s *Storage) ListBookingsByLabRange(ctx context.Context, labID string, from, to time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookingsByLabRange"

	query := `SELECT id, lab_id, requester_id, booking_date, periods, description, status
		FROM bookings WHERE lab_id=$1 AND booking_date >= $2 AND booking_date <= $3`
	args := []any{labID, from, to}

	if status != nil {
		query += ` AND status=$4`
		args = append(args, string(*status))
	}

	rows, err := s.db.QueryContext(ctx, query+` ORDER BY booking_date`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.scanBookings(rows, op)
}

func (s *Storage) ListBookingsByRequester(ctx context.Context, requesterID string) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookingsByRequester"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lab_id, requester_id, booking_date, periods, description, status
		FROM bookings WHERE requester_id=$1 ORDER BY booking_date`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.scanBookings(rows, op)
}

// ListPendingByRequester returns the requester's pending bookings for a lab
// on a date. The duplicate guard checks their period sets for containment.
func (s *Storage) ListPendingByRequester(ctx context.Context, requesterID, labID string, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListPendingByRequester"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lab_id, requester_id, booking_date, periods, description, status
		FROM bookings
		WHERE requester_id=$1 AND lab_id=$2 AND booking_date=$3 AND status=$4`,
		requesterID, labID, date, string(models.BookingPending))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.scanBookings(rows, op)
}

// UpdateBookingStatus flips a pending booking to a terminal status. The
// WHERE clause guards the one-shot transition: zero rows affected on a
// non-pending booking surfaces as ErrStateViolation.
func (s *Storage) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1 WHERE id=$2 AND status=$3`,
		string(status), bookingID, string(models.BookingPending))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id=$1)`, bookingID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, response.ErrStateViolation)
	}

	return nil
}

// #### users ####

func (s *Storage) CreateUser(ctx context.Context, user *models.User) (string, error) {
	const op = "storage.postgres.CreateUser"

	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		user.Name,
		user.Email,
		string(user.Role),
		user.PasswordHash,
	)
	if err != nil {
		return "", mapPqError(op, err)
	}

	return id, nil
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgres.GetUser"

	var user models.User

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, password_hash FROM users WHERE id=$1`, id).
		Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.PasswordHash,
		)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.postgres.ListUsers"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, password_hash FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		users = append(users, &user)
	}

	return users, nil
}

func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteUser"

	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	const op = "storage.postgres.CountUsersByRole"

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role=$1`, string(role)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
