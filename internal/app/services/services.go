package services

import (
	"context"
	"time"

	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
)

// Services defined in this package:
// - SessionService: schedules, lists and removes course sessions
// - AttendanceService: reconciles attendance against the course roster
// - TeachingHoursService: aggregates a teacher's scheduled minutes

// CourseRegistry is the read-only course and roster source
type CourseRegistry interface {
	FindCourseByID(ctx context.Context, id int64) (*models.Course, error)
	ListActiveEnrollments(ctx context.Context, courseID int64) ([]*models.Enrollment, error)
}

// SessionStore persists course sessions
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Session, error)
	ListByCourseAndDate(ctx context.Context, courseID int64, date time.Time) ([]*models.Session, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Session, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
	UpdateStatus(ctx context.Context, id int64, status models.SessionStatus) error
	Delete(ctx context.Context, id int64) error
}

// AttendanceStore persists attendance rows
type AttendanceStore interface {
	ListBySession(ctx context.Context, sessionID int64) ([]*models.Attendance, error)
	Upsert(ctx context.Context, a *models.Attendance) error
	CountByCourse(ctx context.Context, courseID int64) ([]*models.AttendanceCount, error)
}

// Transactor runs fn as one unit of work; stores called with the ctx passed to fn join it
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock supplies the current instant and the timezone that decides which calendar day it is
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock returns a wall clock reading days in loc
func NewClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

// Today is the current calendar day at midnight UTC
func (c Clock) Today() time.Time {
	return helpers.Today(c.now(), c.Location)
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
