package auth

import (
	"context"
	"errors"

	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// CourseFinder looks up courses
type CourseFinder interface {
	FindCourseByID(ctx context.Context, id int64) (*models.Course, error)
}

// UserFinder looks up users
type UserFinder interface {
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
}

// SessionFinder looks up sessions
type SessionFinder interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
}

// AuthorizationService decides which courses, sessions and teachers an actor may see.
// Every denial is reported as the matching not-found error so callers cannot probe
// for entities outside their reach. Nothing is cached; each call reads fresh state.
type AuthorizationService struct {
	courses  CourseFinder
	users    UserFinder
	sessions SessionFinder
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courses CourseFinder, users UserFinder, sessions SessionFinder) *AuthorizationService {
	return &AuthorizationService{
		courses:  courses,
		users:    users,
		sessions: sessions,
	}
}

// canManageCourse: admins of the course's institute, or the course teacher
func canManageCourse(actor models.Actor, course *models.Course) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return actor.InstituteID == course.InstituteID
	case models.RoleTeacher:
		return actor.UserID == course.TeacherID
	}
	return false
}

// CourseForActor returns the course if the actor may manage it
func (s *AuthorizationService) CourseForActor(ctx context.Context, actor models.Actor, courseID int64) (*models.Course, error) {
	course, err := s.courses.FindCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !canManageCourse(actor, course) {
		logger.Debug().Int64("userID", actor.UserID).Int64("courseID", courseID).Msg("Course hidden from actor")
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

// CourseOwnedBy returns the course if it belongs to teacherID and the actor may act for that teacher
func (s *AuthorizationService) CourseOwnedBy(ctx context.Context, actor models.Actor, courseID, teacherID int64) (*models.Course, error) {
	course, err := s.CourseForActor(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

// SessionForActor returns a session and its course if the actor may manage it.
// A teacher manages sessions of their courses and sessions assigned to them.
func (s *AuthorizationService) SessionForActor(ctx context.Context, actor models.Actor, sessionID int64) (*models.Session, *models.Course, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	course, err := s.courses.FindCourseByID(ctx, session.CourseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.ErrSessionNotFound
		}
		return nil, nil, err
	}

	allowed := canManageCourse(actor, course) ||
		(actor.Role == models.RoleTeacher && session.TeacherID == actor.UserID)
	if !allowed {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	return session, course, nil
}

// SessionOwnedBy returns the session if it belongs to teacherID, either as the
// session's teacher or as the course teacher, and the actor may act for that teacher.
func (s *AuthorizationService) SessionOwnedBy(ctx context.Context, actor models.Actor, sessionID, teacherID int64) (*models.Session, *models.Course, error) {
	if actor.Role == models.RoleTeacher && actor.UserID != teacherID {
		return nil, nil, apperrors.ErrSessionNotFound
	}

	session, course, err := s.SessionForActor(ctx, actor, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.TeacherID != teacherID && course.TeacherID != teacherID {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	return session, course, nil
}

// TeacherInInstitute returns the user if it is a teacher of the given institute
func (s *AuthorizationService) TeacherInInstitute(ctx context.Context, teacherID, instituteID int64) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if user.RoleType != models.RoleTeacher || user.InstituteID != instituteID {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// TeacherForActor returns the teacher whose workload the actor may read:
// teachers read their own, admins any teacher of their institute.
func (s *AuthorizationService) TeacherForActor(ctx context.Context, actor models.Actor, teacherID int64) (*models.User, error) {
	switch actor.Role {
	case models.RoleTeacher:
		if actor.UserID != teacherID {
			return nil, apperrors.ErrUserNotFound
		}
		return s.TeacherInInstitute(ctx, teacherID, actor.InstituteID)
	case models.RoleAdmin:
		return s.TeacherInInstitute(ctx, teacherID, actor.InstituteID)
	}
	return nil, apperrors.ErrUserNotFound
}
