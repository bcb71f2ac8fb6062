package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/lock"
)

func createInput(t *testing.T, date time.Time, start, end string) CreateSessionInput {
	return CreateSessionInput{
		CourseID:  courseID,
		Date:      date,
		StartTime: tod(t, start),
		EndTime:   tod(t, end),
	}
}

func TestCreateSession_Valid_PersistsScheduledWithCourseTeacher(t *testing.T) {
	f := newFixture(t)

	s, err := f.sessionSvc.CreateSession(context.Background(), teacherActor, createInput(t, day(2025, 3, 12), "09:00", "10:30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if s.Status != models.SessionScheduled {
		t.Errorf("expected scheduled, got %s", s.Status)
	}
	if s.TeacherID != teacherID {
		t.Errorf("expected course teacher %d, got %d", teacherID, s.TeacherID)
	}

	stored, err := f.sessions.GetByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if !stored.Date.Equal(day(2025, 3, 12)) || stored.StartTime.String() != "09:00" || stored.EndTime.String() != "10:30" {
		t.Errorf("unexpected stored session: %+v", stored)
	}
}

func TestCreateSession_UnknownCourse_ReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	in := createInput(t, day(2025, 3, 12), "09:00", "10:00")
	in.CourseID = 99

	if _, err := f.sessionSvc.CreateSession(context.Background(), adminActor, in); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateSession_ActorWithoutAccess_ReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	in := createInput(t, day(2025, 3, 12), "09:00", "10:00")

	for name, actor := range map[string]models.Actor{
		"other teacher":         coTeacherActor,
		"admin of another inst": otherAdminActor,
		"student":               {UserID: 15, Role: models.RoleStudent, InstituteID: 1},
	} {
		if _, err := f.sessionSvc.CreateSession(context.Background(), actor, in); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
	if n, _ := f.sessions.CountByCourse(context.Background(), courseID); n != 0 {
		t.Errorf("expected nothing stored, got %d sessions", n)
	}
}

func TestCreateSession_DateOutsideWindow_ReturnsInvalidRange(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		date  time.Time
		bound string
	}{
		{day(2025, 2, 28), "registrationStartDate"},
		{day(2025, 4, 1), "registrationEndDate"},
	}
	for _, tc := range cases {
		_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, tc.date, "09:00", "10:00"))
		if !errors.Is(err, apperrors.ErrInvalidRange) {
			t.Fatalf("%s: expected ErrInvalidRange, got %v", tc.date.Format("2006-01-02"), err)
		}
		ce, ok := apperrors.AsCustomError(err)
		if !ok || ce.Details["bound"] != tc.bound {
			t.Errorf("expected bound %s in details, got %+v", tc.bound, ce)
		}
	}
}

func TestCreateSession_WindowBoundsInclusive_Succeeds(t *testing.T) {
	f := newFixture(t)

	for _, d := range []time.Time{day(2025, 3, 1), day(2025, 3, 31)} {
		if _, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, d, "09:00", "10:00")); err != nil {
			t.Errorf("%s: unexpected error: %v", d.Format("2006-01-02"), err)
		}
	}
}

func TestCreateSession_AtCapacity_ReturnsCapacityExceeded(t *testing.T) {
	f := newFixture(t)
	for d := 11; d <= 14; d++ {
		f.addSession(t, courseID, teacherID, day(2025, 3, d), "09:00", "10:00", models.SessionScheduled)
	}

	_, err := f.sessionSvc.CreateSession(context.Background(), teacherActor, createInput(t, day(2025, 3, 20), "09:00", "10:00"))
	if !errors.Is(err, apperrors.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if err.Error() != "Course allows maximum 4 sessions" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestCreateSession_CheckOrder_FirstFailureWins(t *testing.T) {
	f := newFixture(t)
	for d := 11; d <= 14; d++ {
		f.addSession(t, courseID, teacherID, day(2025, 3, d), "09:00", "10:00", models.SessionScheduled)
	}

	// Out of range and over capacity: the range check runs first
	_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 4, 2), "09:00", "10:00"))
	if !errors.Is(err, apperrors.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange first, got %v", err)
	}

	// Out of range with an unknown explicit teacher: the range check still runs first
	unknown := int64(404)
	in := createInput(t, day(2025, 4, 2), "09:00", "10:00")
	in.TeacherID = &unknown
	_, err = f.sessionSvc.CreateSession(context.Background(), adminActor, in)
	if !errors.Is(err, apperrors.ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange before the teacher lookup, got %v", err)
	}

	// Over capacity with an inverted interval: capacity runs before the interval
	_, err = f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 20), "11:00", "10:00"))
	if !errors.Is(err, apperrors.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded first, got %v", err)
	}
}

func TestCreateSession_EndNotAfterStart_ReturnsInvalidInterval(t *testing.T) {
	f := newFixture(t)

	for _, tc := range [][2]string{{"10:00", "10:00"}, {"11:00", "10:00"}} {
		_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), tc[0], tc[1]))
		if !errors.Is(err, apperrors.ErrInvalidInterval) {
			t.Errorf("%s-%s: expected ErrInvalidInterval, got %v", tc[0], tc[1], err)
		}
	}
}

func TestCreateSession_Overlap_ReturnsScheduleConflict(t *testing.T) {
	f := newFixture(t)
	existing := f.addSession(t, courseID, teacherID, day(2025, 3, 12), "09:00", "10:00", models.SessionScheduled)

	for _, tc := range [][2]string{
		{"09:30", "10:30"},
		{"08:30", "09:01"},
		{"09:00", "10:00"},
		{"08:00", "11:00"},
		{"09:15", "09:45"},
	} {
		_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), tc[0], tc[1]))
		if !errors.Is(err, apperrors.ErrScheduleConflict) {
			t.Fatalf("%s-%s: expected ErrScheduleConflict, got %v", tc[0], tc[1], err)
		}
		ce, _ := apperrors.AsCustomError(err)
		if ce == nil || ce.Details["conflictingSessionId"] != existing.ID {
			t.Errorf("expected conflicting session %d in details, got %+v", existing.ID, ce)
		}
	}
}

func TestCreateSession_BackToBackOrOtherDay_Succeeds(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, courseID, teacherID, day(2025, 3, 12), "09:00", "10:00", models.SessionScheduled)

	cases := []struct {
		date       time.Time
		start, end string
	}{
		{day(2025, 3, 12), "10:00", "11:00"},
		{day(2025, 3, 12), "08:00", "09:00"},
		{day(2025, 3, 13), "09:00", "10:00"},
	}
	for _, tc := range cases {
		if _, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, tc.date, tc.start, tc.end)); err != nil {
			t.Errorf("%s %s-%s: unexpected error: %v", tc.date.Format("2006-01-02"), tc.start, tc.end, err)
		}
	}
}

func TestCreateSession_OverlapInOtherCourse_Succeeds(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, 4, coTeacherID, day(2025, 3, 12), "09:00", "10:00", models.SessionScheduled)

	if _, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), "09:00", "10:00")); err != nil {
		t.Fatalf("sessions of different courses must not conflict: %v", err)
	}
}

func TestCreateSession_ExplicitTeacher(t *testing.T) {
	f := newFixture(t)

	co := coTeacherID
	in := createInput(t, day(2025, 3, 12), "09:00", "10:00")
	in.TeacherID = &co
	s, err := f.sessionSvc.CreateSession(context.Background(), adminActor, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TeacherID != coTeacherID {
		t.Errorf("expected teacher %d, got %d", coTeacherID, s.TeacherID)
	}

	for _, id := range []int64{foreignID, 15, 404} {
		bad := id
		in := createInput(t, day(2025, 3, 13), "09:00", "10:00")
		in.TeacherID = &bad
		if _, err := f.sessionSvc.CreateSession(context.Background(), adminActor, in); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("teacher %d: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestCreateSession_StorageConstraint_ReturnsScheduleConflict(t *testing.T) {
	f := newFixture(t)
	f.sessions.createErr = apperrors.NewScheduleConflictError(0, "", "")

	_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), "09:00", "10:00"))
	if !errors.Is(err, apperrors.ErrScheduleConflict) {
		t.Fatalf("expected ErrScheduleConflict, got %v", err)
	}
}

func TestCreateSession_LockHeld_ReturnsResourceBusy(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.courses, f.sessions, f.authz, f.locker, 20*time.Millisecond, f.clock)

	unlock, err := f.locker.Lock(context.Background(), lock.CourseKey(courseID))
	if err != nil {
		t.Fatal(err)
	}
	defer unlock(context.Background())

	_, err = svc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), "09:00", "10:00"))
	if !errors.Is(err, apperrors.ErrResourceBusy) {
		t.Fatalf("expected ErrResourceBusy, got %v", err)
	}
	if n, _ := f.sessions.CountByCourse(context.Background(), courseID); n != 0 {
		t.Errorf("expected nothing stored, got %d", n)
	}
}

// releaseFailingLocker grants locks whose release reports the lock as lost
type releaseFailingLocker struct{}

func (releaseFailingLocker) Lock(context.Context, string) (lock.Unlock, error) {
	return func(context.Context) error { return lock.ErrLockLost }, nil
}

func TestCreateSession_ReleaseFailsAfterStore_ReturnsSession(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(f.courses, f.sessions, f.authz, releaseFailingLocker{}, time.Second, f.clock)

	s, err := svc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), "09:00", "10:00"))
	if err != nil {
		t.Fatalf("stored session must be reported as created, got %v", err)
	}
	if s == nil || s.ID == 0 {
		t.Fatalf("expected the stored session, got %+v", s)
	}
	if n, _ := f.sessions.CountByCourse(context.Background(), courseID); n != 1 {
		t.Errorf("expected exactly one stored session, got %d", n)
	}
}

func TestCreateSession_ConcurrentOverlapping_OnlyOneSucceeds(t *testing.T) {
	f := newFixture(t)

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, createInput(t, day(2025, 3, 12), "09:00", "10:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperrors.ErrScheduleConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != workers-1 {
		t.Errorf("expected 1 created and %d conflicts, got %d and %d", workers-1, created, conflicts)
	}
}

func TestCreateSession_ConcurrentDistinctSlots_NeverExceedsCapacity(t *testing.T) {
	f := newFixture(t)

	starts := []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00"}
	var wg sync.WaitGroup
	for _, start := range starts {
		wg.Add(1)
		go func(start string) {
			defer wg.Done()
			in := createInput(t, day(2025, 3, 12), start, start[:2]+":30")
			_, err := f.sessionSvc.CreateSession(context.Background(), adminActor, in)
			if err != nil && !errors.Is(err, apperrors.ErrCapacityExceeded) {
				t.Errorf("%s: unexpected error: %v", start, err)
			}
		}(start)
	}
	wg.Wait()

	if n, _ := f.sessions.CountByCourse(context.Background(), courseID); n != 4 {
		t.Errorf("expected exactly 4 sessions, got %d", n)
	}
}

func TestListSessionsForCourse_OrdersByDateThenStart(t *testing.T) {
	f := newFixture(t)
	f.addSession(t, courseID, teacherID, day(2025, 3, 14), "09:00", "10:00", models.SessionScheduled)
	f.addSession(t, courseID, teacherID, day(2025, 3, 12), "13:00", "14:00", models.SessionScheduled)
	f.addSession(t, courseID, teacherID, day(2025, 3, 12), "08:00", "09:00", models.SessionCancelled)
	f.addSession(t, 4, coTeacherID, day(2025, 3, 1), "08:00", "09:00", models.SessionScheduled)

	sessions, err := f.sessionSvc.ListSessionsForCourse(context.Background(), teacherActor, courseID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	want := []string{"2025-03-12 08:00", "2025-03-12 13:00", "2025-03-14 09:00"}
	for i, s := range sessions {
		got := s.Date.Format("2006-01-02") + " " + s.StartTime.String()
		if got != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got)
		}
	}
}

func TestListSessionsForCourse_OtherTeacher_ReturnsNotFound(t *testing.T) {
	f := newFixture(t)

	if _, err := f.sessionSvc.ListSessionsForCourse(context.Background(), coTeacherActor, courseID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession_PastSession_ReturnsTemporalConflict(t *testing.T) {
	f := newFixture(t)
	past := f.addSession(t, courseID, teacherID, day(2025, 3, 9), "09:00", "10:00", models.SessionScheduled)

	err := f.sessionSvc.DeleteSession(context.Background(), teacherActor, past.ID)
	if !errors.Is(err, apperrors.ErrTemporalConflict) {
		t.Fatalf("expected ErrTemporalConflict, got %v", err)
	}
	if _, err := f.sessions.GetByID(context.Background(), past.ID); err != nil {
		t.Errorf("past session must survive: %v", err)
	}
}

func TestDeleteSession_TodayOrFuture_Deletes(t *testing.T) {
	f := newFixture(t)
	todays := f.addSession(t, courseID, teacherID, day(2025, 3, 10), "08:00", "09:00", models.SessionScheduled)
	future := f.addSession(t, courseID, teacherID, day(2025, 3, 20), "08:00", "09:00", models.SessionScheduled)

	f.addAttendance(todays.ID, 15, models.AttendancePresent)
	f.addAttendance(future.ID, 16, models.AttendanceExcused)

	for _, s := range []*models.Session{todays, future} {
		if err := f.sessionSvc.DeleteSession(context.Background(), teacherActor, s.ID); err != nil {
			t.Fatalf("session %d: unexpected error: %v", s.ID, err)
		}
		if _, err := f.sessions.GetByID(context.Background(), s.ID); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("session %d still stored", s.ID)
		}
		if rows, _ := f.attendance.ListBySession(context.Background(), s.ID); len(rows) != 0 {
			t.Errorf("session %d: expected its attendance removed, got %d rows", s.ID, len(rows))
		}
	}
}

func TestDeleteSession_KeepsAttendanceOfOtherSessions(t *testing.T) {
	f := newFixture(t)
	doomed := f.addSession(t, courseID, teacherID, day(2025, 3, 20), "08:00", "09:00", models.SessionScheduled)
	kept := f.addSession(t, courseID, teacherID, day(2025, 3, 10), "08:00", "09:00", models.SessionScheduled)
	f.addAttendance(doomed.ID, 15, models.AttendancePresent)
	f.addAttendance(kept.ID, 15, models.AttendanceLate)

	if err := f.sessionSvc.DeleteSession(context.Background(), teacherActor, doomed.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows, _ := f.attendance.ListBySession(context.Background(), kept.ID); len(rows) != 1 {
		t.Errorf("expected the other session's row to stay, got %d rows", len(rows))
	}
}

func TestDeleteSession_Unknown_ReturnsNotFound(t *testing.T) {
	f := newFixture(t)

	if err := f.sessionSvc.DeleteSession(context.Background(), adminActor, 404); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession_TodayInConfiguredTimezone(t *testing.T) {
	f := newFixture(t)
	istanbul := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 10th is already the 11th in UTC+3
	clock := Clock{Now: func() time.Time { return time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC) }, Location: istanbul}
	svc := NewSessionService(f.courses, f.sessions, f.authz, f.locker, time.Second, clock)
	s := f.addSession(t, courseID, teacherID, day(2025, 3, 10), "09:00", "10:00", models.SessionScheduled)

	if err := svc.DeleteSession(context.Background(), adminActor, s.ID); !errors.Is(err, apperrors.ErrTemporalConflict) {
		t.Fatalf("expected ErrTemporalConflict, got %v", err)
	}
}

func TestGetSession_AssignedTeacherCanSee(t *testing.T) {
	f := newFixture(t)
	s := f.addSession(t, courseID, coTeacherID, day(2025, 3, 12), "09:00", "10:00", models.SessionScheduled)
	other := f.addSession(t, courseID, teacherID, day(2025, 3, 13), "09:00", "10:00", models.SessionScheduled)

	if _, err := f.sessionSvc.GetSession(context.Background(), coTeacherActor, s.ID); err != nil {
		t.Errorf("assigned teacher should see the session: %v", err)
	}
	if _, err := f.sessionSvc.GetSession(context.Background(), coTeacherActor, other.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unassigned session, got %v", err)
	}
}

func TestUpdateSessionStatus(t *testing.T) {
	f := newFixture(t)
	past := f.addSession(t, courseID, teacherID, day(2025, 3, 5), "09:00", "10:00", models.SessionScheduled)
	future := f.addSession(t, courseID, teacherID, day(2025, 3, 20), "09:00", "10:00", models.SessionScheduled)
	done := f.addSession(t, courseID, teacherID, day(2025, 3, 6), "09:00", "10:00", models.SessionCompleted)

	cases := []struct {
		name    string
		id      int64
		status  models.SessionStatus
		wantErr error
	}{
		{"cancel past", past.ID, models.SessionCancelled, apperrors.ErrTemporalConflict},
		{"complete future", future.ID, models.SessionCompleted, apperrors.ErrInvalidState},
		{"reopen completed", done.ID, models.SessionScheduled, apperrors.ErrInvalidState},
		{"cancel completed", done.ID, models.SessionCancelled, apperrors.ErrInvalidState},
		{"complete past", past.ID, models.SessionCompleted, nil},
		{"cancel future", future.ID, models.SessionCancelled, nil},
	}
	for _, tc := range cases {
		got, err := f.sessionSvc.UpdateSessionStatus(context.Background(), teacherActor, tc.id, tc.status)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if got.Status != tc.status {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.status, got.Status)
		}
		stored, _ := f.sessions.GetByID(context.Background(), tc.id)
		if stored.Status != tc.status {
			t.Errorf("%s: stored status %s", tc.name, stored.Status)
		}
	}
}
