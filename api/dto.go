package api

// Dates travel as "2006-01-02" strings; the service layer parses and
// validates them.

type LabRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	AdminID     *string `json:"admin_id,omitempty"`
}

type LabResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	AdminID     *string `json:"admin_id,omitempty"`
}

type FixedScheduleRequest struct {
	LabID       string `json:"lab_id"`
	Weekday     int    `json:"weekday"`
	Periods     []int  `json:"periods"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type FixedScheduleResponse struct {
	ID          string `json:"id"`
	LabID       string `json:"lab_id"`
	Weekday     int    `json:"weekday"`
	Periods     []int  `json:"periods"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type BookingRequest struct {
	LabID       string `json:"lab_id"`
	Date        string `json:"date"`
	Periods     []int  `json:"periods"`
	Description string `json:"description"`
}

type BookingResponse struct {
	ID          string `json:"id"`
	LabID       string `json:"lab_id"`
	RequesterID string `json:"requester_id"`
	Date        string `json:"date"`
	Periods     []int  `json:"periods"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type AvailabilityResponse struct {
	Available bool  `json:"available"`
	Conflicts []int `json:"conflicts"`
}

// CalendarEntry is one occupancy row of a calendar day: either a recurring
// fixed schedule or an approved booking.
type CalendarEntry struct {
	Kind        string `json:"kind"` // "fixed" or "booking"
	Periods     []int  `json:"periods"`
	Description string `json:"description"`
	Requester   string `json:"requester,omitempty"`
}

type CalendarDay struct {
	Date    string          `json:"date"`
	Entries []CalendarEntry `json:"entries"`
}

type UserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
