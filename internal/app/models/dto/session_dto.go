package dto

import (
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
)

// CreateSessionRequest is the body of POST /courses/{courseId}/sessions
type CreateSessionRequest struct {
	Date      string `json:"date" binding:"required,calendardate" example:"2025-03-10"`
	StartTime string `json:"startTime" binding:"required,clock" example:"09:00"`
	EndTime   string `json:"endTime" binding:"required,clock" example:"10:30"`
	TeacherID *int64 `json:"teacherId,omitempty" binding:"omitempty,gt=0" example:"7"`
}

// UpdateSessionStatusRequest is the body of PATCH /sessions/{sessionId}/status
type UpdateSessionStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled completed cancelled" example:"completed"`
}

// SessionResponse is the public shape of a session
type SessionResponse struct {
	ID        int64  `json:"id" example:"42"`
	CourseID  int64  `json:"courseId" example:"3"`
	TeacherID int64  `json:"teacherId" example:"7"`
	Date      string `json:"date" example:"2025-03-10"`
	StartTime string `json:"startTime" example:"09:00"`
	EndTime   string `json:"endTime" example:"10:30"`
	Status    string `json:"status" example:"scheduled" enums:"scheduled,completed,cancelled"`
}

// NewSessionResponse converts a session model
func NewSessionResponse(s *models.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:        s.ID,
		CourseID:  s.CourseID,
		TeacherID: s.TeacherID,
		Date:      helpers.FormatDate(s.Date),
		StartTime: s.StartTime.String(),
		EndTime:   s.EndTime.String(),
		Status:    string(s.Status),
	}
}

// NewSessionListResponse converts a slice of sessions, never returning nil
func NewSessionListResponse(sessions []*models.Session) []*SessionResponse {
	out := make([]*SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionResponse(s))
	}
	return out
}
