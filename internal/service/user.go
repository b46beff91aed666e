package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

func validRole(role models.Role) bool {
	switch role {
	case models.RoleRequester, models.RoleLabAdmin, models.RoleSuperAdmin:
		return true
	default:
		return false
	}
}

func (s *Service) CreateUser(ctx context.Context, actorID string, req *api.UserRequest) (*api.UserResponse, error) {
	const op = "service.CreateUser"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%s: email is required: %w", op, response.ErrValidation)
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("%s: password is required: %w", op, response.ErrValidation)
	}

	role := models.Role(req.Role)
	if !validRole(role) {
		return nil, fmt.Errorf("%s: invalid role: %w", op, response.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	}

	id, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetUser(ctx, id)
}

func (s *Service) GetUser(ctx context.Context, id string) (*api.UserResponse, error) {
	const op = "service.GetUser"

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return userResponse(user), nil
}

func (s *Service) ListUsers(ctx context.Context, actorID string) ([]*api.UserResponse, error) {
	const op = "service.ListUsers"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.UserResponse, 0, len(users))
	for _, user := range users {
		result = append(result, userResponse(user))
	}

	return result, nil
}

// DeleteUser removes a user. The last remaining super admin cannot be
// deleted, the system would become unmanageable.
func (s *Service) DeleteUser(ctx context.Context, actorID, id string) error {
	const op = "service.DeleteUser"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleSuperAdmin {
		return fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Role == models.RoleSuperAdmin {
		count, err := s.store.CountUsersByRole(ctx, models.RoleSuperAdmin)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if count <= 1 {
			return fmt.Errorf("%s: cannot delete the last super admin: %w", op, response.ErrForbidden)
		}
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func userResponse(user *models.User) *api.UserResponse {
	return &api.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}
