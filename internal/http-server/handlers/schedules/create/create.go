package create

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

type ScheduleCreator interface {
	CreateFixedSchedule(ctx context.Context, actorID string, req *api.FixedScheduleRequest) (*api.FixedScheduleResponse, error)
}

type Request struct {
	api.FixedScheduleRequest
}

type Response struct {
	response.Response
	Schedule api.FixedScheduleResponse `json:"schedule,omitempty"`
}

func New(log *slog.Logger, creator ScheduleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedules.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		actorID := r.Header.Get("X-User-ID")

		schedule, err := creator.CreateFixedSchedule(r.Context(), actorID, &req.FixedScheduleRequest)

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
			log.Error("Failed to create fixed schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create fixed schedule"))
			return
		}

		log.Info("Fixed schedule created", slog.Any("schedule", schedule))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Schedule: *schedule,
		})
	}
}
