package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agenda-service/api"
	"agenda-service/internal/models"
	"agenda-service/pkg/response"
)

func (s *Service) parseScheduleRequest(op string, req *api.FixedScheduleRequest) (models.PeriodSet, time.Time, time.Time, error) {
	if req.Weekday < 0 || req.Weekday > 4 {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%s: weekday must be 0 (Monday) to 4 (Friday): %w", op, response.ErrValidation)
	}

	periods := periodSetFromInts(req.Periods)
	if !periods.Valid() {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%s: periods must be a non-empty set within 1..9: %w", op, response.ErrValidation)
	}

	startDate, err := parseDate(op, "start_date", req.StartDate)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	endDate, err := parseDate(op, "end_date", req.EndDate)
	if err != nil {
		return nil, time.Time{}, time.Time{}, err
	}

	if startDate.After(endDate) {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%s: %w", op, response.ErrInvalidRange)
	}

	return periods, startDate, endDate, nil
}

func (s *Service) CreateFixedSchedule(ctx context.Context, actorID string, req *api.FixedScheduleRequest) (*api.FixedScheduleResponse, error) {
	const op = "service.CreateFixedSchedule"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	lab, err := s.store.GetLab(ctx, req.LabID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !administers(actor, lab) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	periods, startDate, endDate, err := s.parseScheduleRequest(op, req)
	if err != nil {
		return nil, err
	}

	schedule := &models.FixedSchedule{
		LabID:       lab.ID,
		Weekday:     req.Weekday,
		Periods:     periods,
		StartDate:   startDate,
		EndDate:     endDate,
		Description: strings.TrimSpace(req.Description),
	}

	id, err := s.store.CreateFixedSchedule(ctx, schedule)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetFixedSchedule(ctx, id)
}

func (s *Service) GetFixedSchedule(ctx context.Context, id string) (*api.FixedScheduleResponse, error) {
	const op = "service.GetFixedSchedule"

	schedule, err := s.store.GetFixedSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scheduleResponse(schedule), nil
}

func (s *Service) ListFixedSchedules(ctx context.Context, labID string) ([]*api.FixedScheduleResponse, error) {
	const op = "service.ListFixedSchedules"

	if _, err := s.store.GetLab(ctx, labID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	schedules, err := s.store.ListFixedSchedules(ctx, labID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.FixedScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		result = append(result, scheduleResponse(schedule))
	}

	return result, nil
}

func (s *Service) UpdateFixedSchedule(ctx context.Context, actorID, id string, req *api.FixedScheduleRequest) (*api.FixedScheduleResponse, error) {
	const op = "service.UpdateFixedSchedule"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.store.GetFixedSchedule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lab, err := s.store.GetLab(ctx, schedule.LabID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !administers(actor, lab) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	periods, startDate, endDate, err := s.parseScheduleRequest(op, req)
	if err != nil {
		return nil, err
	}

	schedule.Weekday = req.Weekday
	schedule.Periods = periods
	schedule.StartDate = startDate
	schedule.EndDate = endDate
	schedule.Description = strings.TrimSpace(req.Description)

	if err := s.store.UpdateFixedSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetFixedSchedule(ctx, id)
}

func (s *Service) DeleteFixedSchedule(ctx context.Context, actorID, id string) error {
	const op = "service.DeleteFixedSchedule"

	actor, err := s.actor(ctx, op, actorID)
	if err != nil {
		return err
	}

	schedule, err := s.store.GetFixedSchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lab, err := s.store.GetLab(ctx, schedule.LabID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !administers(actor, lab) {
		return fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	if err := s.store.DeleteFixedSchedule(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func scheduleResponse(schedule *models.FixedSchedule) *api.FixedScheduleResponse {
	return &api.FixedScheduleResponse{
		ID:          schedule.ID,
		LabID:       schedule.LabID,
		Weekday:     schedule.Weekday,
		Periods:     schedule.Periods.Ints(),
		StartDate:   schedule.StartDate.Format(dateLayout),
		EndDate:     schedule.EndDate.Format(dateLayout),
		Description: schedule.Description,
	}
}
