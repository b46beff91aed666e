package service

import (
	"context"
	"fmt"
	"strings"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

// normalizeLabName collapses runs of whitespace and lowercases so "Lab  A"
// and "lab a" count as the same name.
func normalizeLabName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func (s *Service) validateLabRequest(ctx context.Context, op string, req *api.LabRequest, excludeID string) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%s: name is required: %w", op, response.ErrValidation)
	}
	if req.Capacity < 0 {
		return fmt.Errorf("%s: capacity must not be negative: %w", op, response.ErrValidation)
	}

	labs, err := s.store.ListLabs(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	normalized := normalizeLabName(name)
	for _, lab := range labs {
		if lab.ID != excludeID && normalizeLabName(lab.Name) == normalized {
			return fmt.Errorf("%s: %w", op, response.ErrNameTaken)
		}
	}

	if req.AdminID != nil {
		admin, err := s.store.GetUser(ctx, *req.AdminID)
		if err != nil {
			return fmt.Errorf("%s: admin: %w", op, err)
		}
		if admin.Role != models.RoleLabAdmin {
			return fmt.Errorf("%s: admin must have the lab admin role: %w", op, response.ErrValidation)
		}
	}

	return nil
}

func (s *Service) CreateLab(ctx context.Context, actorID string, req *api.LabRequest) (*api.LabResponse, error) {
	const op = "service.CreateLab"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := s.validateLabRequest(ctx, op, req, ""); err != nil {
		return nil, err
	}

	lab := &models.Lab{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Capacity:    req.Capacity,
		AdminID:     req.AdminID,
	}

	id, err := s.store.CreateLab(ctx, lab)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetLab(ctx, id)
}

func (s *Service) GetLab(ctx context.Context, id string) (*api.LabResponse, error) {
	const op = "service.GetLab"

	lab, err := s.store.GetLab(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return labResponse(lab), nil
}

func (s *Service) ListLabs(ctx context.Context) ([]*api.LabResponse, error) {
	const op = "service.ListLabs"

	labs, err := s.store.ListLabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.LabResponse, 0, len(labs))
	for _, lab := range labs {
		result = append(result, labResponse(lab))
	}

	return result, nil
}

func (s *Service) UpdateLab(ctx context.Context, actorID, id string, req *api.LabRequest) (*api.LabResponse, error) {
	const op = "service.UpdateLab"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	lab, err := s.store.GetLab(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.validateLabRequest(ctx, op, req, lab.ID); err != nil {
		return nil, err
	}

	lab.Name = strings.TrimSpace(req.Name)
	lab.Description = strings.TrimSpace(req.Description)
	lab.Capacity = req.Capacity
	lab.AdminID = req.AdminID

	if err := s.store.UpdateLab(ctx, lab); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetLab(ctx, id)
}

func (s *Service) DeleteLab(ctx context.Context, actorID, id string) error {
	const op = "service.DeleteLab"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleSuperAdmin {
		return fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := s.store.DeleteLab(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func labResponse(lab *models.Lab) *api.LabResponse {
	return &api.LabResponse{
		ID:          lab.ID,
		Name:        lab.Name,
		Description: lab.Description,
		Capacity:    lab.Capacity,
		AdminID:     lab.AdminID,
	}
}
