package services

import (
	"context"
	"fmt"

	appAuth "github.com/yigit/eduschedule/internal/app/auth"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
)

// TeachingHoursService aggregates teaching workload
type TeachingHoursService struct {
	sessions SessionStore
	authz    *appAuth.AuthorizationService
	factor   float64
}

// NewTeachingHoursService creates a new teaching hours service.
// factor weights minutes when the teaching_hour method is requested.
func NewTeachingHoursService(sessions SessionStore, authz *appAuth.AuthorizationService, factor float64) *TeachingHoursService {
	return &TeachingHoursService{
		sessions: sessions,
		authz:    authz,
		factor:   factor,
	}
}

// CalculateTeachingHours sums the durations of every session of a teacher, whatever its
// status. With method teaching_hour each minute counts as factor; any other method counts
// raw minutes. The total is not rounded.
func (s *TeachingHoursService) CalculateTeachingHours(ctx context.Context, actor models.Actor, teacherID int64, method string) (*dto.TeachingHoursResponse, error) {
	if _, err := s.authz.TeacherForActor(ctx, actor, teacherID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error listing teacher sessions: %w", err)
	}

	weight := 1.0
	if method == dto.TeachingHourMethod {
		weight = s.factor
	}

	resp := &dto.TeachingHoursResponse{
		TeacherID:    teacherID,
		Method:       method,
		SessionCount: len(sessions),
	}
	for _, session := range sessions {
		minutes := session.Duration().Minutes()
		resp.RawMinutes += minutes
		resp.WeightedMinutes += minutes * weight
	}
	resp.TotalHours = resp.WeightedMinutes / 60
	return resp, nil
}
