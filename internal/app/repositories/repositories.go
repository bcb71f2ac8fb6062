package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/yigit/eduschedule/internal/db"
)

// psql builds Postgres ($n) placeholder queries
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	CourseRepository     *CourseRepository
	UserRepository       *UserRepository
	SessionRepository    *SessionRepository
	AttendanceRepository *AttendanceRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		CourseRepository:     NewCourseRepository(database),
		UserRepository:       NewUserRepository(database),
		SessionRepository:    NewSessionRepository(database),
		AttendanceRepository: NewAttendanceRepository(database),
	}
}
