package models

// User is the subset of the 'users' table the scheduler consults
type User struct {
	ID          int64    `json:"id" db:"id" example:"1"`
	InstituteID int64    `json:"instituteId" db:"institute_id" example:"1"`
	FirstName   string   `json:"firstName" db:"first_name" example:"Ayse"`
	LastName    string   `json:"lastName" db:"last_name" example:"Yilmaz"`
	RoleType    RoleType `json:"roleType" db:"role_type" example:"TEACHER"`
	IsActive    bool     `json:"isActive" db:"is_active" example:"true"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID      int64
	Role        RoleType
	InstituteID int64
}

// IsAdmin reports whether the actor administers an institute
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsTeacher reports whether the actor is a teacher
func (a Actor) IsTeacher() bool {
	return a.Role == RoleTeacher
}
