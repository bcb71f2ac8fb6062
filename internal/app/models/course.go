package models

import "time"

// Course is the read-only view of a course needed for scheduling.
// Dates are calendar days stored at midnight UTC.
type Course struct {
	ID                    int64     `json:"id" db:"id"`
	InstituteID           int64     `json:"instituteId" db:"institute_id"`
	TeacherID             int64     `json:"teacherId" db:"teacher_id"`
	Name                  string    `json:"name" db:"name"`
	RegistrationStartDate time.Time `json:"registrationStartDate" db:"registration_start_date"`
	RegistrationEndDate   time.Time `json:"registrationEndDate" db:"registration_end_date"`
	NumberOfSessions      int       `json:"numberOfSessions" db:"number_of_sessions"`
}

// Enrollment links a student to a course
type Enrollment struct {
	CourseID    int64            `json:"courseId" db:"course_id"`
	StudentID   int64            `json:"studentId" db:"student_id"`
	StudentName string           `json:"studentName" db:"student_name"`
	Status      EnrollmentStatus `json:"status" db:"status"`
}
