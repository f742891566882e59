package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/faculty-timetable-api/internal/dto"
	"github.com/noah-isme/faculty-timetable-api/internal/models"
	"github.com/noah-isme/faculty-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
	"github.com/noah-isme/faculty-timetable-api/pkg/export"
)

type facultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type assignmentReader interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.Assignment, error)
	ListBatchesByCourse(ctx context.Context, courseID string) ([]string, error)
}

type slotCatalogSource interface {
	EnsureCatalog(ctx context.Context) (int, error)
	ListSchedulable(ctx context.Context) ([]models.TimeSlot, error)
}

type timetableEntryStore interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableEntryDetail, error)
	ListByBatchTerm(ctx context.Context, batchID, academicYear, semester string) ([]models.TimetableEntryDetail, error)
	ListOccupancy(ctx context.Context, exec sqlx.ExtContext, facultyID string, batchIDs []string) ([]models.SlotOccupancy, error)
	IsFacultyBusy(ctx context.Context, facultyID string, day models.DayOfWeek, period int) (bool, error)
	DeleteByFaculty(ctx context.Context, exec sqlx.ExtContext, facultyID string) (int64, error)
	DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error)
	DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID string) (int64, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// TimetableConfig governs allocation and caching behaviour.
type TimetableConfig struct {
	MaxLabsPerDay int
	LabRounding   scheduler.LabRounding
	CacheTTL      time.Duration
}

// ExportFile is a rendered timetable ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// TimetableService generates and serves faculty timetables.
type TimetableService struct {
	faculty     facultyReader
	assignments assignmentReader
	slots       slotCatalogSource
	entries     timetableEntryStore
	tx          txProvider
	locker      BatchLocker
	cache       timetableCache
	metrics     *MetricsService
	renderers   map[string]tableRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         TimetableConfig
}

// NewTimetableService wires the generation pipeline.
func NewTimetableService(
	faculty facultyReader,
	assignments assignmentReader,
	slots slotCatalogSource,
	entries timetableEntryStore,
	tx txProvider,
	locker BatchLocker,
	cache timetableCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewMemoryBatchLocker(0)
	}
	if cfg.MaxLabsPerDay <= 0 {
		cfg.MaxLabsPerDay = scheduler.DefaultMaxLabsPerDay
	}
	if cfg.LabRounding == "" {
		cfg.LabRounding = scheduler.LabRoundingTruncate
	}
	csv := export.NewCSVExporter()
	pdf := export.NewPDFExporter()
	return &TimetableService{
		faculty:     faculty,
		assignments: assignments,
		slots:       slots,
		entries:     entries,
		tx:          tx,
		locker:      locker,
		cache:       cache,
		metrics:     metrics,
		renderers:   map[string]tableRenderer{csv.Extension(): csv, pdf.Extension(): pdf},
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// Generate replaces the faculty member's timetable with a freshly allocated one.
// Missing faculty or zero assignments fail before anything is locked or written.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (resp *dto.GenerateTimetableResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	if _, err := s.ensureFaculty(ctx, req.FacultyID); err != nil {
		return nil, err
	}
	queryStart := time.Now()
	assignments, err := s.assignments.ListByFaculty(ctx, req.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty assignments")
	}
	s.observeQuery("timetable_assignments", queryStart)
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoAssignments, fmt.Sprintf("faculty %s has no course assignments", req.FacultyID))
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	seed := scheduler.EntropySeed()
	if req.Seed != nil {
		seed = *req.Seed
	}
	batchIDs := assignmentBatches(assignments)

	started := time.Now()
	defer func() {
		outcome := "error"
		if err == nil {
			outcome = "partial"
			if resp.Complete {
				outcome = "complete"
			}
		}
		s.metrics.ObserveGeneration(outcome, time.Since(started))
	}()

	release, err := s.locker.Lock(ctx, GenerationLockKeys(req.FacultyID, batchIDs))
	s.metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	removed, err := s.entries.DeleteByFaculty(ctx, tx, req.FacultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear existing timetable")
	}
	queryStart = time.Now()
	occupancy, err := s.entries.ListOccupancy(ctx, tx, req.FacultyID, batchIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing occupancy")
	}
	s.observeQuery("timetable_occupancy", queryStart)

	allocator := scheduler.NewAllocator(scheduler.Options{
		MaxLabsPerDay: s.cfg.MaxLabsPerDay,
		LabRounding:   s.cfg.LabRounding,
		Shuffler:      scheduler.NewShuffler(seed),
		Logger:        s.logger,
	})
	outcome := allocator.Allocate(scheduler.Request{
		FacultyID:    req.FacultyID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Assignments:  assignments,
		Catalog:      catalog,
		Persisted:    scheduler.NewOccupancy(occupancy),
	})

	entries := outcome.Entries()
	queryStart = time.Now()
	if err = s.entries.BulkCreate(ctx, tx, entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable entries")
	}
	s.observeQuery("timetable_insert", queryStart)
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
	}

	s.invalidate(ctx, req.FacultyID)
	s.recordPlacement(outcome)

	resp = buildGenerateResponse(req, seed, removed, outcome, entries)
	s.logger.Info("timetable generated",
		zap.String("faculty_id", req.FacultyID),
		zap.String("academic_year", req.AcademicYear),
		zap.String("semester", req.Semester),
		zap.Int64("seed", seed),
		zap.Int64("removed", removed),
		zap.Int("placed", resp.PlacedPeriods),
		zap.Int("shortfall", resp.Shortfall))
	return resp, nil
}

// GetFacultyTimetable returns every entry of the faculty member. The bool reports a cache hit.
func (s *TimetableService) GetFacultyTimetable(ctx context.Context, facultyID string) ([]dto.TimetableEntryDTO, bool, error) {
	key := FacultyTimetableKey(facultyID)
	var cached []dto.TimetableEntryDTO
	if hit, _ := s.cacheGet(ctx, key, &cached); hit {
		return cached, true, nil
	}
	if _, err := s.ensureFaculty(ctx, facultyID); err != nil {
		return nil, false, err
	}
	queryStart := time.Now()
	rows, err := s.entries.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty timetable")
	}
	s.observeQuery("timetable_faculty", queryStart)
	result := toEntryDTOs(rows)
	s.cacheSet(ctx, key, result)
	return result, false, nil
}

// GetBatchTimetable returns a batch's entries for one term across all faculty.
func (s *TimetableService) GetBatchTimetable(ctx context.Context, batchID string, query dto.BatchTimetableQuery) ([]dto.TimetableEntryDTO, bool, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "batch id is required")
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch timetable query")
	}
	key := BatchTimetableKey(batchID, query.AcademicYear, query.Semester)
	var cached []dto.TimetableEntryDTO
	if hit, _ := s.cacheGet(ctx, key, &cached); hit {
		return cached, true, nil
	}
	queryStart := time.Now()
	rows, err := s.entries.ListByBatchTerm(ctx, batchID, query.AcademicYear, query.Semester)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch timetable")
	}
	s.observeQuery("timetable_batch", queryStart)
	result := toEntryDTOs(rows)
	s.cacheSet(ctx, key, result)
	return result, false, nil
}

// FreeSlots lists catalog slots where the faculty member has no entry.
func (s *TimetableService) FreeSlots(ctx context.Context, facultyID string) ([]dto.TimeSlotDTO, error) {
	if _, err := s.ensureFaculty(ctx, facultyID); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListSchedulable(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.entries.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty timetable")
	}
	busy := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		busy[cellKey(row.Day, row.PeriodNumber)] = struct{}{}
	}
	free := make([]dto.TimeSlotDTO, 0, len(slots))
	for _, slot := range slots {
		if _, ok := busy[cellKey(slot.Day, slot.PeriodNumber)]; ok {
			continue
		}
		free = append(free, dto.TimeSlotDTO{
			ID:           slot.ID,
			DayOfWeek:    slot.Day.String(),
			PeriodNumber: slot.PeriodNumber,
			StartTime:    slot.StartTime,
			EndTime:      slot.EndTime,
		})
	}
	return free, nil
}

// IsFacultyAvailable reports whether the faculty member has no entry at one cell.
func (s *TimetableService) IsFacultyAvailable(ctx context.Context, facultyID string, query dto.AvailabilityQuery) (*dto.AvailabilityResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	day := models.ParseDayOfWeek(query.DayOfWeek)
	if !day.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", query.DayOfWeek))
	}
	if _, err := s.ensureFaculty(ctx, facultyID); err != nil {
		return nil, err
	}
	busy, err := s.entries.IsFacultyBusy(ctx, facultyID, day, query.PeriodNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check faculty availability")
	}
	return &dto.AvailabilityResponse{
		FacultyID:    facultyID,
		DayOfWeek:    day.String(),
		PeriodNumber: query.PeriodNumber,
		Available:    !busy,
	}, nil
}

// ClearFaculty removes every entry of the faculty member.
func (s *TimetableService) ClearFaculty(ctx context.Context, facultyID string) (*dto.ClearTimetableResponse, error) {
	if _, err := s.ensureFaculty(ctx, facultyID); err != nil {
		return nil, err
	}
	release, err := s.locker.Lock(ctx, GenerationLockKeys(facultyID, nil))
	if err != nil {
		return nil, err
	}
	defer release()

	removed, err := s.entries.DeleteByFaculty(ctx, nil, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear faculty timetable")
	}
	s.invalidate(ctx, facultyID)
	s.logger.Info("timetable cleared", zap.String("faculty_id", facultyID), zap.Int64("removed", removed))
	return &dto.ClearTimetableResponse{FacultyID: facultyID, RemovedEntries: removed}, nil
}

// RetireCourse drops every entry of a course about to be removed from the catalog.
// Generation for every batch the course touches is held off meanwhile. A course that stays
// assigned is placed again by the next run; deleting the course row cascades to its entries.
func (s *TimetableService) RetireCourse(ctx context.Context, courseID string) (*dto.RetireTimetableResponse, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}
	batchIDs, err := s.assignments.ListBatchesByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course batches")
	}
	if len(batchIDs) > 0 {
		keys := make([]string, 0, len(batchIDs))
		for _, id := range batchIDs {
			keys = append(keys, "batch:"+id)
		}
		release, err := s.locker.Lock(ctx, sortedUnique(keys))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	removed, err := s.entries.DeleteByCourse(ctx, nil, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear course entries")
	}
	s.invalidateAll(ctx)
	s.logger.Info("course entries cleared", zap.String("course_id", courseID), zap.Int64("removed", removed))
	return &dto.RetireTimetableResponse{Scope: "course", ID: courseID, RemovedEntries: removed}, nil
}

// RetireBatch drops every entry of a batch. Generation touching the batch is held off meanwhile.
func (s *TimetableService) RetireBatch(ctx context.Context, batchID string) (*dto.RetireTimetableResponse, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch id is required")
	}
	release, err := s.locker.Lock(ctx, []string{"batch:" + batchID})
	if err != nil {
		return nil, err
	}
	defer release()

	removed, err := s.entries.DeleteByBatch(ctx, nil, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear batch entries")
	}
	s.invalidateAll(ctx)
	s.logger.Info("batch entries cleared", zap.String("batch_id", batchID), zap.Int64("removed", removed))
	return &dto.RetireTimetableResponse{Scope: "batch", ID: batchID, RemovedEntries: removed}, nil
}

// Export renders the faculty member's weekly grid as csv or pdf.
func (s *TimetableService) Export(ctx context.Context, facultyID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	faculty, err := s.ensureFaculty(ctx, facultyID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListSchedulable(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.entries.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty timetable")
	}

	dataset := timetableGrid(slots, rows)
	dataset.Title = "Timetable: " + faculty.Name
	dataset.Subtitle = faculty.Department
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("timetable-%s.%s", facultyID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *TimetableService) ensureFaculty(ctx context.Context, facultyID string) (*models.Faculty, error) {
	if strings.TrimSpace(facultyID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "faculty id is required")
	}
	faculty, err := s.faculty.FindByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("faculty %s not found", facultyID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return faculty, nil
}

func (s *TimetableService) loadCatalog(ctx context.Context) (*scheduler.Catalog, error) {
	start := time.Now()
	if _, err := s.slots.EnsureCatalog(ctx); err != nil {
		return nil, err
	}
	slots, err := s.slots.ListSchedulable(ctx)
	if err != nil {
		return nil, err
	}
	s.observeQuery("timetable_catalog", start)
	catalog, err := scheduler.NewCatalog(slots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "time slot catalog is inconsistent")
	}
	if catalog.Len() == 0 {
		s.logger.Warn("time slot catalog is empty; nothing can be placed")
	}
	return catalog, nil
}

func (s *TimetableService) observeQuery(label string, start time.Time) {
	s.metrics.ObserveDBQuery(label, time.Since(start))
}

func (s *TimetableService) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return s.cache.Get(ctx, key, dest)
}

func (s *TimetableService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, value, s.cfg.CacheTTL)
}

func (s *TimetableService) invalidate(ctx context.Context, facultyID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, FacultyTimetableKey(facultyID))
	_ = s.cache.Invalidate(ctx, batchTimetablesPattern)
}

// invalidateAll drops every cached view; course and batch removals span many faculty members.
func (s *TimetableService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Invalidate(ctx, facultyTimetablesPattern)
	_ = s.cache.Invalidate(ctx, batchTimetablesPattern)
}

func (s *TimetableService) recordPlacement(outcome scheduler.Outcome) {
	placed := map[models.CourseType]int{}
	short := map[models.CourseType]int{}
	for _, a := range outcome.Allocations {
		placed[a.CourseType] += a.Placed
		short[a.CourseType] += a.Shortfall()
	}
	for courseType, n := range placed {
		s.metrics.AddPlacement(string(courseType), n, short[courseType])
	}
}

func assignmentBatches(assignments []models.Assignment) []string {
	seen := map[string]struct{}{}
	batches := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.BatchID]; ok {
			continue
		}
		seen[a.BatchID] = struct{}{}
		batches = append(batches, a.BatchID)
	}
	sort.Strings(batches)
	return batches
}

func buildGenerateResponse(req dto.GenerateTimetableRequest, seed, removed int64, outcome scheduler.Outcome, entries []models.TimetableEntry) *dto.GenerateTimetableResponse {
	resp := &dto.GenerateTimetableResponse{
		FacultyID:      req.FacultyID,
		AcademicYear:   req.AcademicYear,
		Semester:       req.Semester,
		Seed:           seed,
		RemovedEntries: removed,
		PlacedPeriods:  len(outcome.Placements),
		Shortfall:      outcome.TotalShortfall(),
		Complete:       outcome.Complete(),
		Allocations:    make([]dto.AllocationSummary, 0, len(outcome.Allocations)),
		Entries:        make([]dto.PlacedPeriod, 0, len(outcome.Placements)),
	}
	for _, a := range outcome.Allocations {
		resp.Allocations = append(resp.Allocations, dto.AllocationSummary{
			AssignmentID: a.AssignmentID,
			CourseID:     a.CourseID,
			BatchID:      a.BatchID,
			CourseType:   string(a.CourseType),
			Required:     a.Required,
			Placed:       a.Placed,
			Shortfall:    a.Shortfall(),
		})
	}
	// entries and placements share order
	for i, p := range outcome.Placements {
		resp.Entries = append(resp.Entries, dto.PlacedPeriod{
			EntryID:      entries[i].ID,
			CourseID:     p.CourseID,
			BatchID:      p.BatchID,
			CourseType:   string(p.CourseType),
			TimeSlotID:   p.Slot.ID,
			DayOfWeek:    p.Slot.Day.String(),
			PeriodNumber: p.Slot.PeriodNumber,
		})
	}
	return resp
}

func toEntryDTOs(rows []models.TimetableEntryDetail) []dto.TimetableEntryDTO {
	result := make([]dto.TimetableEntryDTO, 0, len(rows))
	for _, row := range rows {
		result = append(result, dto.TimetableEntryDTO{
			ID:              row.ID,
			FacultyID:       row.FacultyID,
			FacultyName:     row.FacultyName,
			CourseID:        row.CourseID,
			CourseTitle:     row.CourseTitle,
			CourseCode:      row.CourseCode,
			CourseType:      string(row.CourseType),
			BatchID:         row.BatchID,
			BatchName:       row.BatchName,
			BatchDepartment: row.BatchDepartment,
			BatchSection:    row.BatchSection,
			TimeSlotID:      row.TimeSlotID,
			DayOfWeek:       row.Day.String(),
			PeriodNumber:    row.PeriodNumber,
			StartTime:       row.StartTime,
			EndTime:         row.EndTime,
			AcademicYear:    row.AcademicYear,
			Semester:        row.Semester,
		})
	}
	return result
}

func cellKey(day models.DayOfWeek, period int) string {
	return strconv.Itoa(int(day)) + "-" + strconv.Itoa(period)
}

// timetableGrid lays entries out with one row per day and one column per period.
func timetableGrid(slots []models.TimeSlot, rows []models.TimetableEntryDetail) export.Dataset {
	periodLabels := map[int]string{}
	var periods []int
	var days []models.DayOfWeek
	seenDay := map[models.DayOfWeek]bool{}
	for _, slot := range slots {
		if _, ok := periodLabels[slot.PeriodNumber]; !ok {
			periodLabels[slot.PeriodNumber] = fmt.Sprintf("P%d %s-%s", slot.PeriodNumber, slot.StartTime, slot.EndTime)
			periods = append(periods, slot.PeriodNumber)
		}
		if !seenDay[slot.Day] {
			seenDay[slot.Day] = true
			days = append(days, slot.Day)
		}
	}
	sort.Ints(periods)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	cells := map[string][]string{}
	for _, row := range rows {
		key := cellKey(row.Day, row.PeriodNumber)
		label := row.CourseCode
		if label == "" {
			label = row.CourseTitle
		}
		if row.BatchName != "" {
			label += "\n" + row.BatchName
		}
		cells[key] = append(cells[key], label)
	}

	headers := []string{"Day"}
	for _, period := range periods {
		headers = append(headers, periodLabels[period])
	}
	dataset := export.Dataset{Headers: headers}
	for _, day := range days {
		record := map[string]string{"Day": day.String()}
		for _, period := range periods {
			record[periodLabels[period]] = strings.Join(cells[cellKey(day, period)], "\n")
		}
		dataset.Rows = append(dataset.Rows, record)
	}
	return dataset
}
