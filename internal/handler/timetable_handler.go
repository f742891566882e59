package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/faculty-timetable-api/internal/dto"
	"github.com/noah-isme/faculty-timetable-api/internal/middleware"
	"github.com/noah-isme/faculty-timetable-api/internal/service"
	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
	"github.com/noah-isme/faculty-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	GetFacultyTimetable(ctx context.Context, facultyID string) ([]dto.TimetableEntryDTO, bool, error)
	GetBatchTimetable(ctx context.Context, batchID string, query dto.BatchTimetableQuery) ([]dto.TimetableEntryDTO, bool, error)
	FreeSlots(ctx context.Context, facultyID string) ([]dto.TimeSlotDTO, error)
	IsFacultyAvailable(ctx context.Context, facultyID string, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, error)
	ClearFaculty(ctx context.Context, facultyID string) (*dto.ClearTimetableResponse, error)
	RetireCourse(ctx context.Context, courseID string) (*dto.RetireTimetableResponse, error)
	RetireBatch(ctx context.Context, batchID string) (*dto.RetireTimetableResponse, error)
	Export(ctx context.Context, facultyID, format string) (*service.ExportFile, error)
}

type regenerationService interface {
	Enqueue(ctx context.Context, req dto.RegenerateTimetablesRequest) (*dto.RegenerationJobStatus, error)
	Status(ctx context.Context, jobID string) (*dto.RegenerationJobStatus, error)
}

// TimetableHandler exposes timetable generation and read endpoints.
type TimetableHandler struct {
	timetables   timetableService
	regeneration regenerationService
}

// NewTimetableHandler constructs the handler. regeneration may be nil when no queue runs.
func NewTimetableHandler(timetables *service.TimetableService, regeneration *service.RegenerationService) *TimetableHandler {
	h := &TimetableHandler{timetables: timetables}
	if regeneration != nil {
		h.regeneration = regeneration
	}
	return h
}

// Generate godoc
// @Summary Generate a faculty timetable
// @Description Replaces every existing entry of the faculty member with a freshly allocated timetable. Under-allocation is reported per assignment, not as an error.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.timetables.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, map[string]interface{}{"complete": result.Complete})
}

// Regenerate godoc
// @Summary Queue timetable regeneration for several faculty members
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.RegenerateTimetablesRequest true "Regeneration payload"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /timetables/regenerate [post]
func (h *TimetableHandler) Regenerate(c *gin.Context) {
	if h.regeneration == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "regeneration queue is disabled"))
		return
	}
	var req dto.RegenerateTimetablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regeneration payload"))
		return
	}
	status, err := h.regeneration.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, status)
}

// JobStatus godoc
// @Summary Get regeneration job status
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *TimetableHandler) JobStatus(c *gin.Context) {
	if h.regeneration == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "regeneration queue is disabled"))
		return
	}
	status, err := h.regeneration.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Faculty godoc
// @Summary Get a faculty timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/faculty/{id} [get]
func (h *TimetableHandler) Faculty(c *gin.Context) {
	entries, hit, err := h.timetables.GetFacultyTimetable(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, entries, middleware.ExtractMeta(c))
}

// Batch godoc
// @Summary Get a batch timetable for one term
// @Tags Timetables
// @Produce json
// @Param id path string true "Batch ID"
// @Param academicYear query string true "Academic year"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /timetables/batch/{id} [get]
func (h *TimetableHandler) Batch(c *gin.Context) {
	var query dto.BatchTimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch timetable query"))
		return
	}
	entries, hit, err := h.timetables.GetBatchTimetable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, entries, middleware.ExtractMeta(c))
}

// FreeSlots godoc
// @Summary List slots where the faculty member is free
// @Tags Timetables
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/faculty/{id}/free-slots [get]
func (h *TimetableHandler) FreeSlots(c *gin.Context) {
	slots, err := h.timetables.FreeSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// Availability godoc
// @Summary Check whether the faculty member is free at one day and period
// @Tags Timetables
// @Produce json
// @Param id path string true "Faculty ID"
// @Param day query string true "Day of week, e.g. MONDAY"
// @Param period query int true "Period number"
// @Success 200 {object} response.Envelope
// @Router /timetables/faculty/{id}/availability [get]
func (h *TimetableHandler) Availability(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}
	result, err := h.timetables.IsFacultyAvailable(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download a faculty timetable grid
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Faculty ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /timetables/faculty/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	file, err := h.timetables.Export(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Clear godoc
// @Summary Delete every timetable entry of a faculty member
// @Tags Timetables
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/faculty/{id} [delete]
func (h *TimetableHandler) Clear(c *gin.Context) {
	result, err := h.timetables.ClearFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// RetireCourse godoc
// @Summary Delete every timetable entry of a course
// @Tags Timetables
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/course/{id} [delete]
func (h *TimetableHandler) RetireCourse(c *gin.Context) {
	result, err := h.timetables.RetireCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// RetireBatch godoc
// @Summary Delete every timetable entry of a batch
// @Tags Timetables
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/batch/{id} [delete]
func (h *TimetableHandler) RetireBatch(c *gin.Context) {
	result, err := h.timetables.RetireBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
