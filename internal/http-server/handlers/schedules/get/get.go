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

type ScheduleGetter interface {
	GetFixedSchedule(ctx context.Context, id string) (*api.FixedScheduleResponse, error)
	ListFixedSchedules(ctx context.Context, labID string) ([]*api.FixedScheduleResponse, error)
}

type Response struct {
	response.Response
	Schedule  *api.FixedScheduleResponse   `json:"schedule,omitempty"`
	Schedules []*api.FixedScheduleResponse `json:"schedules,omitempty"`
}

// New serves GET /schedules/{id} and GET /schedules?lab_id=.
func New(log *slog.Logger, getter ScheduleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id == "" {
			labID := r.URL.Query().Get("lab_id")
			if labID == "" {
				log.Error("lab_id is empty")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "lab_id is required"))
				return
			}

			schedules, err := getter.ListFixedSchedules(r.Context(), labID)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to list fixed schedules", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list fixed schedules"))
				return
			}

			render.JSON(w, r, Response{Schedules: schedules})
			return
		}

		schedule, err := getter.GetFixedSchedule(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get fixed schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get fixed schedule"))
			return
		}

		render.JSON(w, r, Response{Schedule: schedule})
	}
}
