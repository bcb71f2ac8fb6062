package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/controllers"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1
type Controllers struct {
	Session    *controllers.SessionController
	Attendance *controllers.AttendanceController
	Teacher    *controllers.TeacherController
	Health     *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router gin.IRouter, ctrls Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	// Health check endpoint (public)
	v1.GET("/health", ctrls.Health.Health)

	// --- Authenticated Routes Group ---
	// Scheduling and attendance are staff operations
	staff := v1.Group("")
	staff.Use(authMiddleware.JWTAuth())
	staff.Use(authMiddleware.RolesRequired(models.RoleAdmin, models.RoleTeacher))

	courses := staff.Group("/courses/:courseId")
	{
		courses.POST("/sessions", ctrls.Session.CreateSession)
		courses.GET("/sessions", ctrls.Session.ListSessions)
		courses.GET("/attendance/stats", ctrls.Attendance.GetCourseAttendanceStats)
	}

	sessions := staff.Group("/sessions/:sessionId")
	{
		sessions.GET("", ctrls.Session.GetSession)
		sessions.PATCH("/status", ctrls.Session.UpdateSessionStatus)
		sessions.DELETE("", ctrls.Session.DeleteSession)
		sessions.GET("/attendance", ctrls.Attendance.GetSessionAttendance)
		sessions.PUT("/attendance", ctrls.Attendance.MarkAttendance)
	}

	teachers := staff.Group("/teachers/:teacherId")
	{
		teachers.GET("/teaching-hours", ctrls.Teacher.GetTeachingHours)
	}
}
