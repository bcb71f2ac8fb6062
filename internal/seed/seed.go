package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/db"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// TokenIssuer signs access tokens for the seeded users
type TokenIssuer interface {
	GenerateAccessToken(userID int64, role string, instituteID int64) (string, error)
}

type demoUser struct {
	firstName string
	lastName  string
	email     string
	role      appModels.RoleType
}

var demoUsers = []demoUser{
	{"Demo", "Admin", "admin@demo.eduschedule.app", appModels.RoleAdmin},
	{"Ayse", "Yilmaz", "ayse.yilmaz@demo.eduschedule.app", appModels.RoleTeacher},
	{"Mehmet", "Kaya", "mehmet.kaya@demo.eduschedule.app", appModels.RoleTeacher},
	{"Ali", "Demir", "ali.demir@demo.eduschedule.app", appModels.RoleStudent},
	{"Zeynep", "Celik", "zeynep.celik@demo.eduschedule.app", appModels.RoleStudent},
	{"Can", "Sahin", "can.sahin@demo.eduschedule.app", appModels.RoleStudent},
}

// CreateDemoData creates a demo institute with staff, students and one course.
// Every statement upserts, so running it again leaves the data unchanged.
// When tokens is not nil an access token is logged for each staff user.
func CreateDemoData(ctx context.Context, database *db.PostgresDB, tokens TokenIssuer, now time.Time, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating demo data...")

	ids := make(map[string]int64, len(demoUsers))
	var instituteID int64

	err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		instituteID, err = upsertReturningID(ctx, tx, psql.Insert("institutes").
			Columns("name").
			Values("Demo Institute").
			Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id"))
		if err != nil {
			return fmt.Errorf("institute: %w", err)
		}

		for _, u := range demoUsers {
			id, err := upsertReturningID(ctx, tx, psql.Insert("users").
				Columns("institute_id", "first_name", "last_name", "email", "role_type").
				Values(instituteID, u.firstName, u.lastName, u.email, string(u.role)).
				Suffix("ON CONFLICT (email) DO UPDATE SET updated_at = now() RETURNING id"))
			if err != nil {
				return fmt.Errorf("user %s: %w", u.email, err)
			}
			ids[u.email] = id
		}

		teacherID := ids[demoUsers[1].email]
		var courseID int64
		existing := psql.Select("id").From("courses").
			Where(squirrel.Eq{"institute_id": instituteID, "name": "Introduction to Algorithms"}).
			Limit(1)
		query, args, err := existing.ToSql()
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, query, args...).Scan(&courseID)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// Registration window spans the current month and the next
			start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 2, -1)
			courseID, err = upsertReturningID(ctx, tx, psql.Insert("courses").
				Columns("institute_id", "teacher_id", "name", "registration_start_date", "registration_end_date", "number_of_sessions").
				Values(instituteID, teacherID, "Introduction to Algorithms", start, end, 12).
				Suffix("RETURNING id"))
			if err != nil {
				return fmt.Errorf("course: %w", err)
			}
		case err != nil:
			return fmt.Errorf("course lookup: %w", err)
		}

		enroll := psql.Insert("course_enrollments").Columns("course_id", "student_id", "status")
		for _, u := range demoUsers {
			if u.role == appModels.RoleStudent {
				enroll = enroll.Values(courseID, ids[u.email], string(appModels.EnrollmentActive))
			}
		}
		query, args, err = enroll.Suffix("ON CONFLICT (course_id, student_id) DO NOTHING").ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("enrollments: %w", err)
		}

		lgr.Info().Int64("instituteID", instituteID).Int64("courseID", courseID).Msg("Demo course ready")
		return nil
	})
	if err != nil {
		return err
	}

	if tokens != nil {
		for _, u := range demoUsers {
			if u.role == appModels.RoleStudent {
				continue
			}
			token, err := tokens.GenerateAccessToken(ids[u.email], string(u.role), instituteID)
			if err != nil {
				lgr.Warn().Err(err).Str("email", u.email).Msg("Could not sign demo token")
				continue
			}
			lgr.Info().Str("email", u.email).Str("role", string(u.role)).Str("token", token).Msg("Demo access token")
		}
	}

	lgr.Info().Msg("Demo data check/creation finished.")
	return nil
}

func upsertReturningID(ctx context.Context, tx pgx.Tx, b squirrel.InsertBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var id int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
