package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	appAuth "github.com/yigit/eduschedule/internal/app/auth"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
	"github.com/yigit/eduschedule/internal/pkg/lock"
	"github.com/yigit/eduschedule/internal/pkg/logger"
	"github.com/yigit/eduschedule/internal/pkg/metrics"
)

// CreateSessionInput carries a parsed session creation request
type CreateSessionInput struct {
	CourseID  int64
	Date      time.Time
	StartTime models.TimeOfDay
	EndTime   models.TimeOfDay
	// TeacherID overrides the course teacher when set
	TeacherID *int64
}

// SessionService handles session scheduling
type SessionService struct {
	courses     CourseRegistry
	sessions    SessionStore
	authz       *appAuth.AuthorizationService
	locker      lock.Locker
	lockTimeout time.Duration
	clock       Clock
}

// NewSessionService creates a new session service
func NewSessionService(
	courses CourseRegistry,
	sessions SessionStore,
	authz *appAuth.AuthorizationService,
	locker lock.Locker,
	lockTimeout time.Duration,
	clock Clock,
) *SessionService {
	return &SessionService{
		courses:     courses,
		sessions:    sessions,
		authz:       authz,
		locker:      locker,
		lockTimeout: lockTimeout,
		clock:       clock,
	}
}

// CreateSession validates and stores a new session. Checks run in a fixed order and the
// first failure wins: course, registration window, explicit teacher, capacity,
// interval, overlap.
// Capacity and overlap are evaluated under the course lock so concurrent requests
// cannot both pass them.
func (s *SessionService) CreateSession(ctx context.Context, actor models.Actor, in CreateSessionInput) (*models.Session, error) {
	course, err := s.authz.CourseForActor(ctx, actor, in.CourseID)
	if err != nil {
		return nil, err
	}

	date := helpers.CalendarDay(in.Date)
	if err := checkRegistrationWindow(course, date); err != nil {
		metrics.SessionRejected(metrics.ReasonInvalidRange)
		return nil, err
	}

	// An explicit teacher is resolved after the window check, before the lock
	teacherID := course.TeacherID
	if in.TeacherID != nil && *in.TeacherID != course.TeacherID {
		if _, err := s.authz.TeacherInInstitute(ctx, *in.TeacherID, course.InstituteID); err != nil {
			return nil, err
		}
		teacherID = *in.TeacherID
	}

	session := &models.Session{
		CourseID:  course.ID,
		TeacherID: teacherID,
		Date:      date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Status:    models.SessionScheduled,
	}

	err = lock.WithLock(ctx, s.locker, lock.CourseKey(course.ID), s.lockTimeout, func(ctx context.Context) error {
		count, err := s.sessions.CountByCourse(ctx, course.ID)
		if err != nil {
			return fmt.Errorf("error counting course sessions: %w", err)
		}
		if count >= course.NumberOfSessions {
			return apperrors.NewCapacityExceededError(course.NumberOfSessions)
		}

		if !in.StartTime.Before(in.EndTime) {
			return apperrors.NewInvalidIntervalError(in.StartTime.String(), in.EndTime.String())
		}

		sameDay, err := s.sessions.ListByCourseAndDate(ctx, course.ID, date)
		if err != nil {
			return fmt.Errorf("error loading sessions of the day: %w", err)
		}
		for _, existing := range sameDay {
			if existing.Overlaps(in.StartTime, in.EndTime) {
				return apperrors.NewScheduleConflictError(existing.ID, existing.StartTime.String(), existing.EndTime.String())
			}
		}

		return s.sessions.Create(ctx, session)
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			metrics.SessionRejected(metrics.ReasonLockTimeout)
			logger.Warn().Err(err).Int64("courseID", course.ID).Msg("Course lock not acquired")
			return nil, apperrors.NewResourceBusyError("Course schedule is busy, try again", err)
		}
		if reason := rejectionReason(err); reason != "" {
			metrics.SessionRejected(reason)
		}
		return nil, err
	}

	metrics.SessionCreated()
	logger.Info().
		Int64("sessionID", session.ID).
		Int64("courseID", course.ID).
		Int64("actorID", actor.UserID).
		Msg("Session created")
	return session, nil
}

func checkRegistrationWindow(course *models.Course, date time.Time) error {
	start := helpers.CalendarDay(course.RegistrationStartDate)
	end := helpers.CalendarDay(course.RegistrationEndDate)

	if date.Before(start) {
		return apperrors.NewInvalidRangeError("registrationStartDate", helpers.FormatDate(start), helpers.FormatDate(date))
	}
	if date.After(end) {
		return apperrors.NewInvalidRangeError("registrationEndDate", helpers.FormatDate(end), helpers.FormatDate(date))
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return metrics.ReasonCapacity
	case errors.Is(err, apperrors.ErrInvalidInterval):
		return metrics.ReasonInvalidInterval
	case errors.Is(err, apperrors.ErrScheduleConflict):
		return metrics.ReasonScheduleConflict
	}
	return ""
}

// GetSession returns a session visible to the actor
func (s *SessionService) GetSession(ctx context.Context, actor models.Actor, sessionID int64) (*models.Session, error) {
	session, _, err := s.authz.SessionForActor(ctx, actor, sessionID)
	return session, err
}

// ListSessionsForCourse returns the sessions of a course ordered by date and start time
func (s *SessionService) ListSessionsForCourse(ctx context.Context, actor models.Actor, courseID int64) ([]*models.Session, error) {
	if _, err := s.authz.CourseForActor(ctx, actor, courseID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions, nil
}

// UpdateSessionStatus moves a scheduled session to completed or cancelled
func (s *SessionService) UpdateSessionStatus(ctx context.Context, actor models.Actor, sessionID int64, status models.SessionStatus) (*models.Session, error) {
	session, _, err := s.authz.SessionForActor(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status != models.SessionScheduled || (status != models.SessionCompleted && status != models.SessionCancelled) {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("Cannot change session status from %s to %s", session.Status, status))
	}

	today := s.clock.Today()
	switch status {
	case models.SessionCancelled:
		if session.Date.Before(today) {
			return nil, apperrors.NewTemporalConflictError("Cannot cancel past sessions")
		}
	case models.SessionCompleted:
		if session.Date.After(today) {
			return nil, apperrors.NewInvalidStateError("Cannot complete a future session")
		}
	}

	if err := s.sessions.UpdateStatus(ctx, session.ID, status); err != nil {
		return nil, err
	}
	session.Status = status
	return session, nil
}

// DeleteSession removes a session that is not in the past; its attendance goes with it
func (s *SessionService) DeleteSession(ctx context.Context, actor models.Actor, sessionID int64) error {
	session, _, err := s.authz.SessionForActor(ctx, actor, sessionID)
	if err != nil {
		return err
	}

	if session.Date.Before(s.clock.Today()) {
		return apperrors.NewTemporalConflictError("Cannot delete past sessions")
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return err
	}

	logger.Info().Int64("sessionID", session.ID).Int64("actorID", actor.UserID).Msg("Session deleted")
	return nil
}
