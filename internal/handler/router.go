package handler

import "github.com/gin-gonic/gin"

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Semesters   *SemesterHandler
	Subjects    *SubjectHandler
	Assignments *AssignmentHandler
	Dashboard   *DashboardHandler
	Sweeps      *SweepHandler
}

// RegisterRoutes mounts the API on group. requireAuth guards every route that
// acts on behalf of a user.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, requireAuth gin.HandlerFunc) {
	group.POST("/auth/login", h.Auth.Login)
	group.POST("/users", h.Auth.Register)

	secured := group.Group("")
	secured.Use(requireAuth)

	secured.GET("/me", h.Users.Me)
	secured.GET("/dashboard", h.Dashboard.Latest)

	secured.POST("/semesters", h.Semesters.Create)
	secured.DELETE("/semesters/:semId", h.Semesters.Delete)
	secured.GET("/semesters/:semId/dashboard", h.Dashboard.ForSemester)
	secured.GET("/semesters/:semId/calendar", h.Dashboard.Calendar)
	secured.GET("/semesters/:semId/calendar/export", h.Dashboard.ExportCalendar)
	secured.POST("/semesters/:semId/subjects", h.Subjects.Create)

	secured.DELETE("/subjects/:subId", h.Subjects.Delete)
	secured.POST("/subjects/:subId/assignments", h.Assignments.Create)

	secured.PATCH("/assignments/:assignId", h.Assignments.Update)
	secured.DELETE("/assignments/:assignId", h.Assignments.Delete)
	secured.PATCH("/assignments/:assignId/state", h.Assignments.UpdateState)

	secured.POST("/admin/sweeps", h.Sweeps.Trigger)
}
