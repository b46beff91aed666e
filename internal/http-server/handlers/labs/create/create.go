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

type LabCreator interface {
	CreateLab(ctx context.Context, actorID string, req *api.LabRequest) (*api.LabResponse, error)
}

type Request struct {
	api.LabRequest
}

type Response struct {
	response.Response
	Lab api.LabResponse `json:"lab,omitempty"`
}

func New(log *slog.Logger, creator LabCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.labs.create.New"

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

		lab, err := creator.CreateLab(r.Context(), actorID, &req.LabRequest)

		if errors.Is(err, response.ErrNameTaken) {
			log.Error("lab name already in use")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "a lab with this name already exists"))
			return
		}

		if errors.Is(err, response.ErrValidation) {
			log.Error("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION), err.Error()))
			return
		}

		if errors.Is(err, response.ErrForbidden) {
			log.Error("actor is not a super admin")
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
			log.Error("Failed to create lab", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create lab"))
			return
		}

		log.Info("Lab created", slog.Any("lab", lab))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Lab: *lab,
		})
	}
}
