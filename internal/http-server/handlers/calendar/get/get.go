package get

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

type CalendarBuilder interface {
	BuildCalendar(ctx context.Context, labID, fromStr, toStr string) ([]*api.CalendarDay, error)
}

type Response struct {
	response.Response
	Days []*api.CalendarDay `json:"days"`
}

// New answers GET /labs/{id}/calendar?from=2006-01-02&to=2006-01-02.
func New(log *slog.Logger, builder CalendarBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		labID := chi.URLParam(r, "id")
		if labID == "" {
			log.Error("lab id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "lab id is required"))
			return
		}

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		if from == "" || to == "" {
			log.Error("from/to is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "from and to are required"))
			return
		}

		days, err := builder.BuildCalendar(r.Context(), labID, from, to)

		if errors.Is(err, response.ErrInvalidRange) {
			log.Error("invalid date range")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_RANGE), "start date is after end date"))
			return
		}

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), err.Error()))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to build calendar", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to build calendar"))
			return
		}

		render.JSON(w, r, Response{
			Days: days,
		})
	}
}
