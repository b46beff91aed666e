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

type UserGetter interface {
	GetUser(ctx context.Context, id string) (*api.UserResponse, error)
	ListUsers(ctx context.Context, actorID string) ([]*api.UserResponse, error)
}

type Response struct {
	response.Response
	User  *api.UserResponse   `json:"user,omitempty"`
	Users []*api.UserResponse `json:"users,omitempty"`
}

// New serves both GET /users (super admin only) and GET /users/{id}.
func New(log *slog.Logger, getter UserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id == "" {
			actorID := r.Header.Get("X-User-ID")

			users, err := getter.ListUsers(r.Context(), actorID)

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
				log.Error("Failed to list users", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list users"))
				return
			}

			render.JSON(w, r, Response{Users: users})
			return
		}

		user, err := getter.GetUser(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get user"))
			return
		}

		render.JSON(w, r, Response{User: user})
	}
}
