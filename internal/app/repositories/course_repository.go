package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/db"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/logger"
)

// CourseRepository reads course metadata and rosters
type CourseRepository struct {
	db *db.PostgresDB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{db: database}
}

// FindCourseByID retrieves a course by ID
func (r *CourseRepository) FindCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sqlStr, args, err := psql.Select(
		"id", "institute_id", "teacher_id", "name",
		"registration_start_date", "registration_end_date", "number_of_sessions",
	).From("courses").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building course query: %w", err)
	}

	var c models.Course
	err = r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&c.ID, &c.InstituteID, &c.TeacherID, &c.Name,
		&c.RegistrationStartDate, &c.RegistrationEndDate, &c.NumberOfSessions,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error retrieving course")
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}

	return &c, nil
}

// activeEnrollmentsQuery selects a course's active roster. Inside a transaction the
// enrollment rows are share-locked so they cannot be withdrawn before commit.
func activeEnrollmentsQuery(courseID int64, inTx bool) squirrel.SelectBuilder {
	q := psql.Select(
		"ce.course_id", "ce.student_id",
		"trim(u.first_name || ' ' || u.last_name) AS student_name", "ce.status",
	).From("course_enrollments ce").
		Join("users u ON u.id = ce.student_id").
		Where("ce.course_id = ?", courseID).
		Where("ce.status = ?", models.EnrollmentActive).
		OrderBy("student_name", "ce.student_id")
	if inTx {
		q = q.Suffix("FOR SHARE OF ce")
	}
	return q
}

// ListActiveEnrollments returns the roster of a course ordered by student name
func (r *CourseRepository) ListActiveEnrollments(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	sqlStr, args, err := activeEnrollmentsQuery(courseID, db.InTx(ctx)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building enrollment query: %w", err)
	}

	rows, err := r.db.Querier(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := make([]*models.Enrollment, 0)
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.CourseID, &e.StudentID, &e.StudentName, &e.Status); err != nil {
			return nil, fmt.Errorf("error scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return enrollments, nil
}
