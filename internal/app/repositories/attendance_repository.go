package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/db"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
)

// AttendanceRepository handles database operations for attendance rows
type AttendanceRepository struct {
	db *db.PostgresDB
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(database *db.PostgresDB) *AttendanceRepository {
	return &AttendanceRepository{db: database}
}

// ListBySession returns every attendance row recorded for a session
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Attendance, error) {
	sqlStr, args, err := psql.Select(
		"id", "session_id", "student_id", "status", "notes", "marked_by", "marked_at",
	).From("attendances").
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building attendance query: %w", err)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Attendance, 0)
	for rows.Next() {
		var (
			a     models.Attendance
			notes pgtype.Text
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.Status, &notes, &a.MarkedBy, &a.MarkedAt); err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		a.Notes = helpers.TextPtr(notes)
		records = append(records, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Upsert creates the (session, student) row or overwrites it in place
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) error {
	sqlStr, args, err := psql.Insert("attendances").
		Columns("session_id", "student_id", "status", "notes", "marked_by", "marked_at").
		Values(a.SessionID, a.StudentID, a.Status, helpers.NullText(a.Notes), a.MarkedBy, a.MarkedAt).
		Suffix(`ON CONFLICT (session_id, student_id) DO UPDATE SET
			status = EXCLUDED.status,
			notes = EXCLUDED.notes,
			marked_by = EXCLUDED.marked_by,
			marked_at = EXCLUDED.marked_at
		RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building upsert attendance query: %w", err)
	}

	if err := r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...).Scan(&a.ID); err != nil {
		return fmt.Errorf("error upserting attendance for student %d: %w", a.StudentID, err)
	}
	return nil
}

// CountByCourse aggregates attendance rows of every session of a course per student and status
func (r *AttendanceRepository) CountByCourse(ctx context.Context, courseID int64) ([]*models.AttendanceCount, error) {
	sqlStr, args, err := psql.Select(
		"a.student_id",
		"trim(u.first_name || ' ' || u.last_name) AS student_name",
		"a.status",
		"COUNT(*) AS count",
	).From("attendances a").
		Join("course_sessions s ON s.id = a.session_id").
		Join("users u ON u.id = a.student_id").
		Where(squirrel.Eq{"s.course_id": courseID}).
		GroupBy("a.student_id", "u.first_name", "u.last_name", "a.status").
		OrderBy("a.student_id", "a.status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building attendance stats query: %w", err)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error aggregating attendance: %w", err)
	}
	defer rows.Close()

	counts := make([]*models.AttendanceCount, 0)
	for rows.Next() {
		var c models.AttendanceCount
		if err := rows.Scan(&c.StudentID, &c.StudentName, &c.Status, &c.Count); err != nil {
			return nil, fmt.Errorf("error scanning attendance count: %w", err)
		}
		counts = append(counts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
