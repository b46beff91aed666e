package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"agenda-service/api"
	"agenda-service/pkg/response"
	"agenda-service/pkg/sl"
)

type BookingLister interface {
	ListMyBookings(ctx context.Context, actorID string) ([]*api.BookingResponse, error)
	ListLabBookings(ctx context.Context, actorID, labID string, statusFilter *string) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []*api.BookingResponse `json:"bookings"`
}

// New lists the actor's own bookings, or — with ?lab_id= — a lab's review
// queue (optionally narrowed with ?status=).
func New(log *slog.Logger, lister BookingLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.list.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		actorID := r.Header.Get("X-User-ID")
		if actorID == "" {
			log.Error("actor id is empty")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "X-User-ID header is required"))
			return
		}

		var bookings []*api.BookingResponse
		var err error

		if labID := r.URL.Query().Get("lab_id"); labID != "" {
			var statusFilter *string
			if status := r.URL.Query().Get("status"); status != "" {
				statusFilter = &status
			}
			bookings, err = lister.ListLabBookings(r.Context(), actorID, labID, statusFilter)
		} else {
			bookings, err = lister.ListMyBookings(r.Context(), actorID)
		}

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), err.Error()))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("actor does not administer this lab")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "operation not permitted"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to list bookings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
			return
		}

		render.JSON(w, r, Response{
			Bookings: bookings,
		})
	}
}
