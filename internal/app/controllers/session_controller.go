package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/app/services"
	"github.com/yigit/eduschedule/internal/middleware"
	"github.com/yigit/eduschedule/internal/pkg/helpers"
)

// SessionScheduler is the session operations the controller needs
type SessionScheduler interface {
	CreateSession(ctx context.Context, actor models.Actor, in services.CreateSessionInput) (*models.Session, error)
	GetSession(ctx context.Context, actor models.Actor, sessionID int64) (*models.Session, error)
	ListSessionsForCourse(ctx context.Context, actor models.Actor, courseID int64) ([]*models.Session, error)
	UpdateSessionStatus(ctx context.Context, actor models.Actor, sessionID int64, status models.SessionStatus) (*models.Session, error)
	DeleteSession(ctx context.Context, actor models.Actor, sessionID int64) error
}

// SessionController handles course session endpoints
type SessionController struct {
	sessionService SessionScheduler
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService SessionScheduler) *SessionController {
	return &SessionController{sessionService: sessionService}
}

// CreateSession schedules a session for a course
// @Summary Create a course session
// @Description Schedules a session inside the course registration window. Fails when the course is full, the interval is empty or it overlaps another session of the course on that day.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Param request body dto.CreateSessionRequest true "Session information"
// @Success 201 {object} dto.APIResponse{data=dto.SessionResponse} "Session created successfully"
// @Failure 400 {object} dto.APIResponse "Invalid range, interval, capacity or schedule conflict"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.APIResponse "Forbidden - Role not allowed"
// @Failure 404 {object} dto.APIResponse "Course or teacher not found"
// @Failure 503 {object} dto.APIResponse "Course schedule busy"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /courses/{courseId}/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(ctx, err)
		return
	}

	in, err := toCreateSessionInput(courseID, req)
	if err != nil {
		middleware.BindingError(ctx, err)
		return
	}

	session, err := c.sessionService.CreateSession(ctx.Request.Context(), actor, in)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewSessionResponse(session), "Session created successfully"))
}

// toCreateSessionInput parses the wire formats the binding rules already vetted
func toCreateSessionInput(courseID int64, req dto.CreateSessionRequest) (services.CreateSessionInput, error) {
	date, err := helpers.ParseDate(req.Date)
	if err != nil {
		return services.CreateSessionInput{}, err
	}
	start, err := models.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return services.CreateSessionInput{}, err
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return services.CreateSessionInput{}, err
	}
	return services.CreateSessionInput{
		CourseID:  courseID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		TeacherID: req.TeacherID,
	}, nil
}

// ListSessions lists the sessions of a course
// @Summary List course sessions
// @Description Lists every session of the course ordered by date and start time
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]dto.SessionResponse} "Sessions retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid course ID"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /courses/{courseId}/sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	sessions, err := c.sessionService.ListSessionsForCourse(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSessionListResponse(sessions), "Sessions retrieved successfully"))
}

// GetSession returns one session
// @Summary Get session by ID
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid session ID"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /sessions/{sessionId} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSessionResponse(session), "Session retrieved successfully"))
}

// UpdateSessionStatus completes or cancels a scheduled session
// @Summary Update session status
// @Description Moves a scheduled session to completed (not before its day) or cancelled (not after its day)
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID" Format(int64) minimum(1)
// @Param request body dto.UpdateSessionStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session status updated successfully"
// @Failure 400 {object} dto.APIResponse "Transition not allowed"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /sessions/{sessionId}/status [patch]
func (c *SessionController) UpdateSessionStatus(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	var req dto.UpdateSessionStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(ctx, err)
		return
	}

	session, err := c.sessionService.UpdateSessionStatus(ctx.Request.Context(), actor, sessionID, models.SessionStatus(req.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewSessionResponse(session), "Session status updated successfully"))
}

// DeleteSession removes a session that has not yet passed
// @Summary Delete a session
// @Description Deletes a session dated today or later together with its attendance
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse "Session deleted successfully"
// @Failure 400 {object} dto.APIResponse "Cannot delete past sessions"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /sessions/{sessionId} [delete]
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	if err := c.sessionService.DeleteSession(ctx.Request.Context(), actor, sessionID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Session deleted successfully"))
}
