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

type LabGetter interface {
	GetLab(ctx context.Context, id string) (*api.LabResponse, error)
	ListLabs(ctx context.Context) ([]*api.LabResponse, error)
}

type Response struct {
	response.Response
	Lab  *api.LabResponse   `json:"lab,omitempty"`
	Labs []*api.LabResponse `json:"labs,omitempty"`
}

// New serves both GET /labs and GET /labs/{id}.
func New(log *slog.Logger, getter LabGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.labs.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id == "" {
			labs, err := getter.ListLabs(r.Context())
			if err != nil {
				log.Error("Failed to list labs", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list labs"))
				return
			}

			render.JSON(w, r, Response{Labs: labs})
			return
		}

		lab, err := getter.GetLab(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get lab", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get lab"))
			return
		}

		render.JSON(w, r, Response{Lab: lab})
	}
}
