package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faculty-timetable-api/internal/middleware"
	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

// RegisterTimetableRoutes mounts the timetable API under rg. auth must attach JWT claims.
func RegisterTimetableRoutes(rg *gin.RouterGroup, h *TimetableHandler, auth gin.HandlerFunc) {
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	adminsOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), middleware.RoleSelf)
	anyone := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleFaculty)

	timetables := rg.Group("/timetables", auth)
	timetables.POST("/generate", admins, h.Generate)
	timetables.POST("/regenerate", admins, h.Regenerate)
	timetables.GET("/jobs/:id", admins, h.JobStatus)
	timetables.GET("/faculty/:id", adminsOrSelf, h.Faculty)
	timetables.DELETE("/faculty/:id", admins, h.Clear)
	timetables.GET("/faculty/:id/free-slots", adminsOrSelf, h.FreeSlots)
	timetables.GET("/faculty/:id/availability", adminsOrSelf, h.Availability)
	timetables.GET("/faculty/:id/export", adminsOrSelf, h.Export)
	timetables.GET("/batch/:id", anyone, h.Batch)
	timetables.DELETE("/batch/:id", admins, h.RetireBatch)
	timetables.DELETE("/course/:id", admins, h.RetireCourse)
}
