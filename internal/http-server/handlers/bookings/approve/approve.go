package approve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"agenda-service/api"
	"agenda-service/pkg/response"
	"agenda-service/pkg/sl"
)

type BookingApprover interface {
	ApproveBooking(ctx context.Context, actorID, bookingID string) (*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, approver BookingApprover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.approve.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		actorID := r.Header.Get("X-User-ID")

		booking, err := approver.ApproveBooking(r.Context(), actorID, id)

		var conflictErr *response.PeriodConflictError
		if errors.As(err, &conflictErr) {
			log.Error("approval would overlap an approved sibling", slog.Any("conflicts", conflictErr.Periods.Ints()))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.ConflictResponse(string(response.CONFLICT), "periods were approved for another booking", conflictErr.Periods))
			return
		}

		if errors.Is(err, response.ErrStateViolation) {
			log.Error("booking is already decided")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.STATE_VIOLATION), "booking is already decided"))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("actor does not administer this lab")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "operation not permitted"))
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to approve booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to approve booking"))
			return
		}

		log.Info("Booking approved", slog.Any("booking", booking))
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: *booking,
	})
}
