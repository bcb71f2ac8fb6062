package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	appAuth "github.com/yigit/eduschedule/internal/app/auth"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
	"github.com/yigit/eduschedule/internal/pkg/lock"
)

// In-memory stores shared by the service tests. They copy on the way in and out
// so services cannot mutate stored state behind the store's back.

type fakeCourses struct {
	courses map[int64]*models.Course
	roster  map[int64][]*models.Enrollment
	// rosterReadsInTx counts roster reads made inside snapshotTx
	rosterReadsInTx int
}

func (f *fakeCourses) FindCourseByID(_ context.Context, id int64) (*models.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, apperrors.ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) ListActiveEnrollments(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	if inTx, _ := ctx.Value(inTxKey{}).(bool); inTx {
		f.rosterReadsInTx++
	}
	out := make([]*models.Enrollment, 0)
	for _, e := range f.roster[courseID] {
		if e.Status == models.EnrollmentActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[int64]*models.User
}

func (f *fakeUsers) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeSessions struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*models.Session
	createErr error
	// onDelete mirrors ON DELETE CASCADE into dependent stores
	onDelete func(sessionID int64)
}

func (f *fakeSessions) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

// filter returns matching rows in id order, which is deliberately not date order
func (f *fakeSessions) filter(match func(*models.Session) bool) []*models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Session, 0)
	for _, s := range f.rows {
		if match(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeSessions) ListByCourse(_ context.Context, courseID int64) ([]*models.Session, error) {
	return f.filter(func(s *models.Session) bool { return s.CourseID == courseID }), nil
}

func (f *fakeSessions) ListByCourseAndDate(_ context.Context, courseID int64, date time.Time) ([]*models.Session, error) {
	return f.filter(func(s *models.Session) bool { return s.CourseID == courseID && s.Date.Equal(date) }), nil
}

func (f *fakeSessions) ListByTeacher(_ context.Context, teacherID int64) ([]*models.Session, error) {
	return f.filter(func(s *models.Session) bool { return s.TeacherID == teacherID }), nil
}

func (f *fakeSessions) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	sessions, _ := f.ListByCourse(ctx, courseID)
	return len(sessions), nil
}

func (f *fakeSessions) UpdateStatus(_ context.Context, id int64, status models.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	s.Status = status
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	if _, ok := f.rows[id]; !ok {
		f.mu.Unlock()
		return apperrors.ErrSessionNotFound
	}
	delete(f.rows, id)
	f.mu.Unlock()

	if f.onDelete != nil {
		f.onDelete(id)
	}
	return nil
}

type attendanceKey struct{ sessionID, studentID int64 }

type fakeAttendance struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[attendanceKey]*models.Attendance
	sessions *fakeSessions
	users    *fakeUsers
	// failOn makes Upsert fail for this student
	failOn int64
}

func (f *fakeAttendance) ListBySession(_ context.Context, sessionID int64) ([]*models.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Attendance, 0)
	for k, a := range f.rows {
		if k.sessionID == sessionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (f *fakeAttendance) Upsert(_ context.Context, a *models.Attendance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != 0 && a.StudentID == f.failOn {
		return errStorage
	}
	k := attendanceKey{a.SessionID, a.StudentID}
	if existing, ok := f.rows[k]; ok {
		a.ID = existing.ID
	} else {
		f.nextID++
		a.ID = f.nextID
	}
	cp := *a
	f.rows[k] = &cp
	return nil
}

func (f *fakeAttendance) deleteSession(sessionID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.rows {
		if k.sessionID == sessionID {
			delete(f.rows, k)
		}
	}
}

func (f *fakeAttendance) CountByCourse(ctx context.Context, courseID int64) ([]*models.AttendanceCount, error) {
	sessions, _ := f.sessions.ListByCourse(ctx, courseID)
	inCourse := make(map[int64]bool, len(sessions))
	for _, s := range sessions {
		inCourse[s.ID] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	type key struct {
		student int64
		status  models.AttendanceStatus
	}
	totals := make(map[key]int)
	for k, a := range f.rows {
		if inCourse[k.sessionID] {
			totals[key{a.StudentID, a.Status}]++
		}
	}

	out := make([]*models.AttendanceCount, 0, len(totals))
	for k, n := range totals {
		name := ""
		if u, ok := f.users.users[k.student]; ok {
			name = u.FullName()
		}
		out = append(out, &models.AttendanceCount{StudentID: k.student, StudentName: name, Status: k.status, Count: n})
	}
	return out, nil
}

type inTxKey struct{}

// snapshotTx restores the attendance rows when fn fails, like a rolled back transaction
type snapshotTx struct {
	attendance *fakeAttendance
}

func (t *snapshotTx) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.attendance.mu.Lock()
	snapshot := make(map[attendanceKey]*models.Attendance, len(t.attendance.rows))
	for k, v := range t.attendance.rows {
		cp := *v
		snapshot[k] = &cp
	}
	t.attendance.mu.Unlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		t.attendance.mu.Lock()
		t.attendance.rows = snapshot
		t.attendance.mu.Unlock()
		return err
	}
	return nil
}

type storageError struct{}

func (storageError) Error() string { return "connection reset" }

var errStorage error = storageError{}

// Fixture: institute 1 has admin 1, teachers 7 and 8, students 15-17 (17 dropped from course 3).
// Institute 2 has admin 2 and teacher 9. Course 3 belongs to teacher 7, runs through March 2025
// and allows four sessions. The clock reads 2025-03-10 noon UTC.
const (
	adminID      int64 = 1
	otherAdminID int64 = 2
	teacherID    int64 = 7
	coTeacherID  int64 = 8
	foreignID    int64 = 9
	courseID     int64 = 3
)

var (
	adminActor      = models.Actor{UserID: adminID, Role: models.RoleAdmin, InstituteID: 1}
	otherAdminActor = models.Actor{UserID: otherAdminID, Role: models.RoleAdmin, InstituteID: 2}
	teacherActor    = models.Actor{UserID: teacherID, Role: models.RoleTeacher, InstituteID: 1}
	coTeacherActor  = models.Actor{UserID: coTeacherID, Role: models.RoleTeacher, InstituteID: 1}
)

type fixture struct {
	courses    *fakeCourses
	users      *fakeUsers
	sessions   *fakeSessions
	attendance *fakeAttendance
	authz      *appAuth.AuthorizationService
	clock      Clock
	locker     lock.Locker

	sessionSvc    *SessionService
	attendanceSvc *AttendanceService
	hoursSvc      *TeachingHoursService
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tod(t *testing.T, s string) models.TimeOfDay {
	t.Helper()
	v, err := models.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("bad time %q: %v", s, err)
	}
	return v
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &fakeUsers{users: map[int64]*models.User{
		adminID:      {ID: adminID, InstituteID: 1, FirstName: "Ada", LastName: "Admin", RoleType: models.RoleAdmin, IsActive: true},
		otherAdminID: {ID: otherAdminID, InstituteID: 2, FirstName: "Omer", LastName: "Admin", RoleType: models.RoleAdmin, IsActive: true},
		teacherID:    {ID: teacherID, InstituteID: 1, FirstName: "Ayse", LastName: "Yilmaz", RoleType: models.RoleTeacher, IsActive: true},
		coTeacherID:  {ID: coTeacherID, InstituteID: 1, FirstName: "Can", LastName: "Kaya", RoleType: models.RoleTeacher, IsActive: true},
		foreignID:    {ID: foreignID, InstituteID: 2, FirstName: "Deniz", LastName: "Aksoy", RoleType: models.RoleTeacher, IsActive: true},
		15:           {ID: 15, InstituteID: 1, FirstName: "Ali", LastName: "Demir", RoleType: models.RoleStudent, IsActive: true},
		16:           {ID: 16, InstituteID: 1, FirstName: "Berk", LastName: "Sahin", RoleType: models.RoleStudent, IsActive: true},
		17:           {ID: 17, InstituteID: 1, FirstName: "Cem", LastName: "Tas", RoleType: models.RoleStudent, IsActive: true},
	}}

	courses := &fakeCourses{
		courses: map[int64]*models.Course{
			courseID: {
				ID: courseID, InstituteID: 1, TeacherID: teacherID, Name: "Algebra",
				RegistrationStartDate: day(2025, 3, 1),
				RegistrationEndDate:   day(2025, 3, 31),
				NumberOfSessions:      4,
			},
			4: {
				ID: 4, InstituteID: 1, TeacherID: coTeacherID, Name: "Geometry",
				RegistrationStartDate: day(2025, 3, 1),
				RegistrationEndDate:   day(2025, 3, 31),
				NumberOfSessions:      10,
			},
		},
		roster: map[int64][]*models.Enrollment{
			courseID: {
				{CourseID: courseID, StudentID: 15, StudentName: "Ali Demir", Status: models.EnrollmentActive},
				{CourseID: courseID, StudentID: 16, StudentName: "Berk Sahin", Status: models.EnrollmentActive},
				{CourseID: courseID, StudentID: 17, StudentName: "Cem Tas", Status: models.EnrollmentDropped},
			},
		},
	}

	sessions := &fakeSessions{rows: map[int64]*models.Session{}}
	attendance := &fakeAttendance{rows: map[attendanceKey]*models.Attendance{}, sessions: sessions, users: users}
	sessions.onDelete = attendance.deleteSession

	f := &fixture{
		courses:    courses,
		users:      users,
		sessions:   sessions,
		attendance: attendance,
		authz:      appAuth.NewAuthorizationService(courses, users, sessions),
		clock: Clock{
			Now:      func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
			Location: time.UTC,
		},
		locker: lock.NewLocalLocker(),
	}
	f.sessionSvc = NewSessionService(courses, sessions, f.authz, f.locker, time.Second, f.clock)
	f.attendanceSvc = NewAttendanceService(courses, sessions, attendance, &snapshotTx{attendance: attendance}, f.authz, f.clock)
	f.hoursSvc = NewTeachingHoursService(sessions, f.authz, 0.75)
	return f
}

// addSession stores a session directly, bypassing scheduling checks
func (f *fixture) addSession(t *testing.T, course, teacher int64, date time.Time, start, end string, status models.SessionStatus) *models.Session {
	t.Helper()
	s := &models.Session{
		CourseID:  course,
		TeacherID: teacher,
		Date:      date,
		StartTime: tod(t, start),
		EndTime:   tod(t, end),
		Status:    status,
	}
	if err := f.sessions.Create(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) addAttendance(sessionID, studentID int64, status models.AttendanceStatus) {
	_ = f.attendance.Upsert(context.Background(), &models.Attendance{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    status,
		MarkedBy:  teacherID,
		MarkedAt:  time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
	})
}
