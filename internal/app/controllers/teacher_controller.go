package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/middleware"
)

// TeachingHoursCalculator computes teacher workload
type TeachingHoursCalculator interface {
	CalculateTeachingHours(ctx context.Context, actor models.Actor, teacherID int64, method string) (*dto.TeachingHoursResponse, error)
}

// TeacherController handles teacher workload endpoints
type TeacherController struct {
	hoursService TeachingHoursCalculator
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(hoursService TeachingHoursCalculator) *TeacherController {
	return &TeacherController{hoursService: hoursService}
}

// GetTeachingHours reports the hours a teacher is scheduled for
// @Summary Teaching hours
// @Description Sums the durations of all sessions of the teacher. method=teaching_hour weights each minute by the configured factor (0.75 by default); any other value counts clock minutes.
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param teacherId path int true "Teacher ID" Format(int64) minimum(1)
// @Param method query string false "Aggregation method" Enums(teaching_hour, clock_hour)
// @Success 200 {object} dto.APIResponse{data=dto.TeachingHoursResponse} "Teaching hours calculated successfully"
// @Failure 400 {object} dto.APIResponse "Invalid teacher ID"
// @Failure 401 {object} dto.APIResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.APIResponse "Teacher not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /teachers/{teacherId}/teaching-hours [get]
func (c *TeacherController) GetTeachingHours(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	teacherID, ok := parseIDParam(ctx, "teacherId")
	if !ok {
		return
	}

	hours, err := c.hoursService.CalculateTeachingHours(ctx.Request.Context(), actor, teacherID, ctx.Query("method"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hours, "Teaching hours calculated successfully"))
}
