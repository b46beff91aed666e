package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"agenda-service/api"
	"agenda-service/pkg/response"
	"agenda-service/pkg/sl"
)

type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, labID, dateStr string, periods []int) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability api.AvailabilityResponse `json:"availability,omitempty"`
}

// New answers GET /labs/{id}/availability?date=2006-01-02&periods=1,2,3.
func New(log *slog.Logger, checker AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

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

		date := r.URL.Query().Get("date")
		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		periods, err := parsePeriods(r.URL.Query().Get("periods"))
		if err != nil {
			log.Error("Failed to parse periods", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "periods must be a comma-separated list of integers"))
			return
		}

		availability, err := checker.CheckAvailability(r.Context(), labID, date, periods)

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
			log.Error("Failed to check availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check availability"))
			return
		}

		log.Info("Availability checked", slog.Any("availability", availability))

		render.JSON(w, r, Response{
			Availability: *availability,
		})
	}
}

func parsePeriods(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	periods := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		periods = append(periods, n)
	}

	return periods, nil
}
