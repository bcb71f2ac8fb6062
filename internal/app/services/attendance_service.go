package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	appAuth "github.com/yigit/eduschedule/internal/app/auth"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/logger"
	"github.com/yigit/eduschedule/internal/pkg/metrics"
)

// AttendanceRecord is one student's status in a marking batch
type AttendanceRecord struct {
	StudentID int64
	Status    models.AttendanceStatus
	Notes     *string
}

// AttendanceService reconciles attendance rows with course rosters
type AttendanceService struct {
	courses    CourseRegistry
	sessions   SessionStore
	attendance AttendanceStore
	tx         Transactor
	authz      *appAuth.AuthorizationService
	clock      Clock
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	courses CourseRegistry,
	sessions SessionStore,
	attendance AttendanceStore,
	tx Transactor,
	authz *appAuth.AuthorizationService,
	clock Clock,
) *AttendanceService {
	return &AttendanceService{
		courses:    courses,
		sessions:   sessions,
		attendance: attendance,
		tx:         tx,
		authz:      authz,
		clock:      clock,
	}
}

// resolveTeacherID picks the teacher an operation acts for. Teachers act as
// themselves unless they name someone else; admins must name the teacher.
func resolveTeacherID(actor models.Actor, explicit *int64) (int64, error) {
	if explicit != nil && *explicit > 0 {
		return *explicit, nil
	}
	if actor.IsTeacher() {
		return actor.UserID, nil
	}
	return 0, apperrors.NewBadRequestError("teacherId is required")
}

// checkAttendable rejects sessions that cannot carry attendance yet or anymore
func (s *AttendanceService) checkAttendable(session *models.Session) error {
	if session.Date.After(s.clock.Today()) {
		return apperrors.NewInvalidStateError("Cannot take attendance for future sessions")
	}
	if session.Status == models.SessionCancelled {
		return apperrors.NewInvalidStateError("Cannot take attendance for cancelled sessions")
	}
	return nil
}

// GetSessionAttendanceView lists every actively enrolled student with their recorded
// status; students without a row default to absent.
func (s *AttendanceService) GetSessionAttendanceView(ctx context.Context, actor models.Actor, sessionID int64) (*dto.SessionAttendanceView, error) {
	session, _, err := s.authz.SessionForActor(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttendable(session); err != nil {
		return nil, err
	}
	return s.buildView(ctx, session)
}

func (s *AttendanceService) buildView(ctx context.Context, session *models.Session) (*dto.SessionAttendanceView, error) {
	roster, err := s.courses.ListActiveEnrollments(ctx, session.CourseID)
	if err != nil {
		return nil, fmt.Errorf("error loading roster: %w", err)
	}

	rows, err := s.attendance.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading attendance: %w", err)
	}
	byStudent := make(map[int64]*models.Attendance, len(rows))
	for _, row := range rows {
		byStudent[row.StudentID] = row
	}

	// Rows of students who left the roster are kept in storage but not shown
	entries := make([]dto.AttendanceEntry, 0, len(roster))
	for _, e := range roster {
		entry := dto.AttendanceEntry{
			StudentID:   e.StudentID,
			StudentName: e.StudentName,
			Status:      string(models.AttendanceAbsent),
		}
		if row, ok := byStudent[e.StudentID]; ok {
			markedAt := row.MarkedAt
			markedBy := row.MarkedBy
			entry.Status = string(row.Status)
			entry.Notes = row.Notes
			entry.MarkedAt = &markedAt
			entry.MarkedBy = &markedBy
		}
		entries = append(entries, entry)
	}

	return &dto.SessionAttendanceView{
		Session: dto.NewSessionResponse(session),
		Records: entries,
	}, nil
}

// MarkAttendance creates or updates the rows of a batch. The batch is all-or-nothing:
// a single unknown student rejects it, and a storage failure rolls every row back.
// Existence, ownership and session state are checked before the batch itself, so an
// inaccessible session reads as not found whatever the payload.
func (s *AttendanceService) MarkAttendance(ctx context.Context, actor models.Actor, sessionID int64, explicitTeacherID *int64, records []AttendanceRecord) (*dto.SessionAttendanceView, error) {
	teacherID, err := resolveTeacherID(actor, explicitTeacherID)
	if err != nil {
		return nil, err
	}

	session, _, err := s.authz.SessionOwnedBy(ctx, actor, sessionID, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttendable(session); err != nil {
		return nil, err
	}
	if err := validateBatch(records); err != nil {
		return nil, err
	}

	markedAt := s.clock.now()
	var rejected error
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		// The roster is read in the same transaction as the writes so an
		// unenrolment cannot land between the check and the upserts
		if err := s.checkEnrolled(ctx, session.CourseID, records); err != nil {
			if errors.Is(err, apperrors.ErrInvalidArgument) {
				rejected = err
			}
			return err
		}
		for _, r := range records {
			row := &models.Attendance{
				SessionID: session.ID,
				StudentID: r.StudentID,
				Status:    r.Status,
				Notes:     r.Notes,
				MarkedBy:  teacherID,
				MarkedAt:  markedAt,
			}
			if err := s.attendance.Upsert(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
	if rejected != nil {
		return nil, rejected
	}
	if err != nil {
		logger.Error().Err(err).Int64("sessionID", session.ID).Int("records", len(records)).Msg("Attendance batch rolled back")
		return nil, fmt.Errorf("error saving attendance: %w", err)
	}

	metrics.AttendanceMarked(len(records))
	logger.Info().
		Int64("sessionID", session.ID).
		Int64("teacherID", teacherID).
		Int("records", len(records)).
		Msg("Attendance marked")

	return s.buildView(ctx, session)
}

// checkEnrolled rejects a batch naming students outside the active roster,
// listing every offending id in ascending order
func (s *AttendanceService) checkEnrolled(ctx context.Context, courseID int64, records []AttendanceRecord) error {
	roster, err := s.courses.ListActiveEnrollments(ctx, courseID)
	if err != nil {
		return fmt.Errorf("error loading roster: %w", err)
	}
	enrolled := make(map[int64]struct{}, len(roster))
	for _, e := range roster {
		enrolled[e.StudentID] = struct{}{}
	}

	var invalid []int64
	for _, r := range records {
		if _, ok := enrolled[r.StudentID]; !ok {
			invalid = append(invalid, r.StudentID)
		}
	}
	if len(invalid) > 0 {
		sort.Slice(invalid, func(i, j int) bool { return invalid[i] < invalid[j] })
		return apperrors.NewInvalidStudentsError(invalid)
	}
	return nil
}

func validateBatch(records []AttendanceRecord) error {
	if len(records) == 0 {
		return apperrors.NewBadRequestError("Attendance records are required")
	}

	seen := make(map[int64]bool, len(records))
	var duplicates []int64
	for _, r := range records {
		if !r.Status.Valid() {
			return apperrors.NewBadRequestError(fmt.Sprintf("Invalid attendance status %q for student %d", r.Status, r.StudentID))
		}
		if seen[r.StudentID] {
			duplicates = append(duplicates, r.StudentID)
			continue
		}
		seen[r.StudentID] = true
	}
	if len(duplicates) > 0 {
		ids := make([]string, len(duplicates))
		for i, id := range duplicates {
			ids[i] = fmt.Sprint(id)
		}
		return apperrors.NewCustomError(apperrors.ErrBadRequest, "Duplicate students in attendance data: "+strings.Join(ids, ", ")).
			WithDetails(map[string]interface{}{"duplicateStudentIds": duplicates})
	}
	return nil
}

// GetCourseAttendanceStats counts statuses over all sessions of a course, overall and
// per student. Every actively enrolled student is listed, with zeros if never marked.
func (s *AttendanceService) GetCourseAttendanceStats(ctx context.Context, actor models.Actor, courseID int64, explicitTeacherID *int64) (*dto.CourseAttendanceStats, error) {
	teacherID, err := resolveTeacherID(actor, explicitTeacherID)
	if err != nil {
		return nil, err
	}
	course, err := s.authz.CourseOwnedBy(ctx, actor, courseID, teacherID)
	if err != nil {
		return nil, err
	}

	total, err := s.sessions.CountByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}
	counts, err := s.attendance.CountByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("error aggregating attendance: %w", err)
	}
	roster, err := s.courses.ListActiveEnrollments(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading roster: %w", err)
	}

	stats := &dto.CourseAttendanceStats{CourseID: course.ID, TotalSessions: total}
	perStudent := make(map[int64]*dto.StudentAttendanceStats)
	order := make([]int64, 0, len(roster))
	for _, e := range roster {
		perStudent[e.StudentID] = &dto.StudentAttendanceStats{StudentID: e.StudentID, StudentName: e.StudentName}
		order = append(order, e.StudentID)
	}

	for _, c := range counts {
		addCount(&stats.Overall, c.Status, c.Count)
		st, ok := perStudent[c.StudentID]
		if !ok {
			st = &dto.StudentAttendanceStats{StudentID: c.StudentID, StudentName: c.StudentName}
			perStudent[c.StudentID] = st
			order = append(order, c.StudentID)
		}
		addCount(&st.Counts, c.Status, c.Count)
	}

	stats.Students = make([]dto.StudentAttendanceStats, 0, len(order))
	for _, id := range order {
		stats.Students = append(stats.Students, *perStudent[id])
	}
	return stats, nil
}

func addCount(counts *dto.StatusCounts, status models.AttendanceStatus, n int) {
	switch status {
	case models.AttendancePresent:
		counts.Present += n
	case models.AttendanceAbsent:
		counts.Absent += n
	case models.AttendanceLate:
		counts.Late += n
	case models.AttendanceExcused:
		counts.Excused += n
	}
}
