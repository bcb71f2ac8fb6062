package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/app/services"
	"github.com/yigit/eduschedule/internal/middleware"
)

// AttendanceReconciler is the attendance operations the controller needs
type AttendanceReconciler interface {
	GetSessionAttendanceView(ctx context.Context, actor models.Actor, sessionID int64) (*dto.SessionAttendanceView, error)
	MarkAttendance(ctx context.Context, actor models.Actor, sessionID int64, teacherID *int64, records []services.AttendanceRecord) (*dto.SessionAttendanceView, error)
	GetCourseAttendanceStats(ctx context.Context, actor models.Actor, courseID int64, teacherID *int64) (*dto.CourseAttendanceStats, error)
}

// AttendanceController handles attendance endpoints
type AttendanceController struct {
	attendanceService AttendanceReconciler
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService AttendanceReconciler) *AttendanceController {
	return &AttendanceController{attendanceService: attendanceService}
}

// GetSessionAttendance returns the reconciled roster of a session
// @Summary Get session attendance
// @Description Lists every actively enrolled student with their recorded status. Students without a record are reported absent.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SessionAttendanceView} "Attendance retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Session is in the future or cancelled"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /sessions/{sessionId}/attendance [get]
func (c *AttendanceController) GetSessionAttendance(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	view, err := c.attendanceService.GetSessionAttendanceView(ctx.Request.Context(), actor, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Attendance retrieved successfully"))
}

// MarkAttendance records a batch of statuses for a session
// @Summary Mark attendance
// @Description Creates or updates one record per student. The batch is rejected as a whole when any student is not actively enrolled. Admins must pass teacherId.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID" Format(int64) minimum(1)
// @Param request body dto.MarkAttendanceRequest true "Attendance batch"
// @Success 200 {object} dto.APIResponse{data=dto.SessionAttendanceView} "Attendance marked successfully"
// @Failure 400 {object} dto.APIResponse "Invalid batch, unknown students or session state"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /sessions/{sessionId}/attendance [put]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(ctx, err)
		return
	}

	records := make([]services.AttendanceRecord, 0, len(req.Records))
	for _, r := range req.Records {
		records = append(records, services.AttendanceRecord{
			StudentID: r.StudentID,
			Status:    models.AttendanceStatus(r.Status),
			Notes:     r.Notes,
		})
	}

	view, err := c.attendanceService.MarkAttendance(ctx.Request.Context(), actor, sessionID, req.TeacherID, records)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(view, "Attendance marked successfully"))
}

// GetCourseAttendanceStats aggregates attendance over a course
// @Summary Course attendance statistics
// @Description Counts statuses over all sessions of the course, overall and per student. Admins must pass teacherId.
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Param teacherId query int false "Teacher acting on the course (required for admins)"
// @Success 200 {object} dto.APIResponse{data=dto.CourseAttendanceStats} "Statistics retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Missing teacherId"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Course not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /courses/{courseId}/attendance/stats [get]
func (c *AttendanceController) GetCourseAttendanceStats(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}
	teacherID, ok := parseOptionalIDQuery(ctx, "teacherId")
	if !ok {
		return
	}

	stats, err := c.attendanceService.GetCourseAttendanceStats(ctx.Request.Context(), actor, courseID, teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, "Statistics retrieved successfully"))
}
