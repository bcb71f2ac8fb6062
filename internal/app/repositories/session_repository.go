package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/db"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/dberrors"
	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// Constraint names from migrations/001_init.sql
const (
	sessionOverlapConstraint = "course_sessions_no_overlap"
)

// SessionRepository handles database operations for course sessions
type SessionRepository struct {
	db *db.PostgresDB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(database *db.PostgresDB) *SessionRepository {
	return &SessionRepository{db: database}
}

func (r *SessionRepository) selectSessionQuery() squirrel.SelectBuilder {
	return psql.Select(
		"id", "course_id", "teacher_id", "session_date", "start_time", "end_time",
		"status", "created_at", "updated_at",
	).From("course_sessions")
}

func pgTime(t models.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

func pgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: t, Valid: true}
}

// scanSession scans a row into a Session
func scanSession(row pgx.Row) (*models.Session, error) {
	var (
		s          models.Session
		start, end pgtype.Time
	)
	if err := row.Scan(
		&s.ID, &s.CourseID, &s.TeacherID, &s.Date, &start, &end,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	s.StartTime = models.TimeOfDayFromMicroseconds(start.Microseconds)
	s.EndTime = models.TimeOfDayFromMicroseconds(end.Microseconds)
	return &s, nil
}

func (r *SessionRepository) querySessions(ctx context.Context, b squirrel.SelectBuilder) ([]*models.Session, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building session query: %w", err)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Create inserts a session and fills in its generated columns
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	sqlStr, args, err := psql.Insert("course_sessions").
		Columns("course_id", "teacher_id", "session_date", "start_time", "end_time", "status").
		Values(s.CourseID, s.TeacherID, pgDate(s.Date), pgTime(s.StartTime), pgTime(s.EndTime), s.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create session query: %w", err)
	}

	err = r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if dberrors.IsExclusionConstraintError(err, sessionOverlapConstraint) {
			return apperrors.NewScheduleConflictError(0, "", "")
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", s.CourseID).Msg("Error executing create session query")
		return fmt.Errorf("error creating session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	sqlStr, args, err := r.selectSessionQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building session query: %w", err)
	}

	s, err := scanSession(r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}
	return s, nil
}

// ListByCourse returns all sessions of a course ordered by date then start time
func (r *SessionRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Session, error) {
	return r.querySessions(ctx, r.selectSessionQuery().
		Where(squirrel.Eq{"course_id": courseID}).
		OrderBy("session_date ASC", "start_time ASC", "id ASC"))
}

// ListByCourseAndDate returns the sessions of a course on one calendar day
func (r *SessionRepository) ListByCourseAndDate(ctx context.Context, courseID int64, date time.Time) ([]*models.Session, error) {
	return r.querySessions(ctx, r.selectSessionQuery().
		Where(squirrel.Eq{"course_id": courseID, "session_date": pgDate(date)}).
		OrderBy("start_time ASC"))
}

// ListByTeacher returns every session taught by a teacher, regardless of status
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID int64) ([]*models.Session, error) {
	return r.querySessions(ctx, r.selectSessionQuery().
		Where(squirrel.Eq{"teacher_id": teacherID}).
		OrderBy("session_date ASC", "start_time ASC"))
}

// CountByCourse counts the sessions created for a course
func (r *SessionRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	sqlStr, args, err := psql.Select("COUNT(*)").From("course_sessions").
		Where(squirrel.Eq{"course_id": courseID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count query: %w", err)
	}

	var count int
	if err := r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}
	return count, nil
}

// UpdateStatus changes the status of a session
func (r *SessionRepository) UpdateStatus(ctx context.Context, id int64, status models.SessionStatus) error {
	sqlStr, args, err := psql.Update("course_sessions").
		Set("status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update session query: %w", err)
	}

	tag, err := r.db.Querier(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// Delete removes a session; attendance rows go with it (ON DELETE CASCADE)
func (r *SessionRepository) Delete(ctx context.Context, id int64) error {
	sqlStr, args, err := psql.Delete("course_sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete session query: %w", err)
	}

	tag, err := r.db.Querier(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}
