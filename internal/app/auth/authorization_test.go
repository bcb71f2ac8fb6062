package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
)

type stubStore struct {
	courses  map[int64]*models.Course
	users    map[int64]*models.User
	sessions map[int64]*models.Session
}

func (s *stubStore) FindCourseByID(_ context.Context, id int64) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrCourseNotFound
}

func (s *stubStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s *stubStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	if ss, ok := s.sessions[id]; ok {
		return ss, nil
	}
	return nil, apperrors.ErrSessionNotFound
}

func newTestAuthz() *AuthorizationService {
	store := &stubStore{
		courses: map[int64]*models.Course{
			1: {ID: 1, InstituteID: 10, TeacherID: 100, NumberOfSessions: 5},
		},
		users: map[int64]*models.User{
			100: {ID: 100, InstituteID: 10, RoleType: models.RoleTeacher},
			101: {ID: 101, InstituteID: 10, RoleType: models.RoleTeacher},
			102: {ID: 102, InstituteID: 20, RoleType: models.RoleTeacher},
			103: {ID: 103, InstituteID: 10, RoleType: models.RoleStudent},
		},
		sessions: map[int64]*models.Session{
			1: {ID: 1, CourseID: 1, TeacherID: 100, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
			2: {ID: 2, CourseID: 1, TeacherID: 101, Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)},
			// Session whose course vanished
			3: {ID: 3, CourseID: 99, TeacherID: 100},
		},
	}
	return NewAuthorizationService(store, store, store)
}

var (
	admin      = models.Actor{UserID: 1, Role: models.RoleAdmin, InstituteID: 10}
	foreignAdm = models.Actor{UserID: 2, Role: models.RoleAdmin, InstituteID: 20}
	owner      = models.Actor{UserID: 100, Role: models.RoleTeacher, InstituteID: 10}
	assistant  = models.Actor{UserID: 101, Role: models.RoleTeacher, InstituteID: 10}
	student    = models.Actor{UserID: 103, Role: models.RoleStudent, InstituteID: 10}
)

func TestCourseForActor(t *testing.T) {
	authz := newTestAuthz()

	for _, actor := range []models.Actor{admin, owner} {
		if _, err := authz.CourseForActor(context.Background(), actor, 1); err != nil {
			t.Errorf("actor %d: unexpected error: %v", actor.UserID, err)
		}
	}
	for _, actor := range []models.Actor{foreignAdm, assistant, student} {
		if _, err := authz.CourseForActor(context.Background(), actor, 1); !errors.Is(err, apperrors.ErrCourseNotFound) {
			t.Errorf("actor %d: expected ErrCourseNotFound, got %v", actor.UserID, err)
		}
	}
}

func TestSessionForActor_AssignedTeacherSeesOnlyOwnSession(t *testing.T) {
	authz := newTestAuthz()

	if _, _, err := authz.SessionForActor(context.Background(), assistant, 2); err != nil {
		t.Errorf("assigned teacher should see session 2: %v", err)
	}
	if _, _, err := authz.SessionForActor(context.Background(), assistant, 1); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := authz.SessionForActor(context.Background(), owner, 2); err != nil {
		t.Errorf("course teacher should see every session of the course: %v", err)
	}
}

func TestSessionForActor_OrphanSession_ReturnsSessionNotFound(t *testing.T) {
	if _, _, err := newTestAuthz().SessionForActor(context.Background(), admin, 3); !errors.Is(err, apperrors.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionOwnedBy(t *testing.T) {
	authz := newTestAuthz()

	cases := []struct {
		name    string
		actor   models.Actor
		session int64
		teacher int64
		ok      bool
	}{
		{"owner on own course", owner, 1, 100, true},
		{"owner on assistant's session", owner, 2, 100, true},
		{"assistant on own session", assistant, 2, 101, true},
		{"teacher naming someone else", owner, 1, 101, false},
		{"admin for owner", admin, 1, 100, true},
		{"admin for unrelated teacher", admin, 1, 101, false},
		{"foreign admin", foreignAdm, 1, 100, false},
	}
	for _, tc := range cases {
		_, _, err := authz.SessionOwnedBy(context.Background(), tc.actor, tc.session, tc.teacher)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", tc.name, err)
		}
	}
}

func TestTeacherForActor(t *testing.T) {
	authz := newTestAuthz()

	if _, err := authz.TeacherForActor(context.Background(), owner, 100); err != nil {
		t.Errorf("teacher reading self: %v", err)
	}
	if _, err := authz.TeacherForActor(context.Background(), admin, 101); err != nil {
		t.Errorf("admin reading own institute teacher: %v", err)
	}

	denied := []struct {
		actor   models.Actor
		teacher int64
	}{
		{owner, 101},
		{admin, 102},
		{admin, 103},
		{student, 100},
	}
	for _, d := range denied {
		if _, err := authz.TeacherForActor(context.Background(), d.actor, d.teacher); !errors.Is(err, apperrors.ErrUserNotFound) {
			t.Errorf("actor %d reading %d: expected ErrUserNotFound, got %v", d.actor.UserID, d.teacher, err)
		}
	}
}
