package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jsalter/lplate/internal/config"
	"github.com/jsalter/lplate/internal/eligibility"
	"github.com/jsalter/lplate/internal/logbook"
	"github.com/jsalter/lplate/internal/scanner"
	"github.com/jsalter/lplate/internal/storage/sqlite"
	"github.com/jsalter/lplate/pkg/logger"
)

// Handler holds the API handlers and their dependencies
type Handler struct {
	students *sqlite.StudentStorage
	scans    *sqlite.ScanStorage
	pipeline *scanner.Pipeline
	config   *config.Config
	clock    scanner.Clock
	logger   *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(students *sqlite.StudentStorage, scans *sqlite.ScanStorage, pipeline *scanner.Pipeline, cfg *config.Config, clock scanner.Clock, log *logger.Logger) *Handler {
	if clock == nil {
		clock = scanner.RealClock{}
	}
	return &Handler{
		students: students,
		scans:    scans,
		pipeline: pipeline,
		config:   cfg,
		clock:    clock,
		logger:   log.Named("api-handler"),
	}
}

// studentRequest is the JSON body for creating or updating a student.
// Dates are plain "2006-01-02" strings; hours are decimal hours.
type studentRequest struct {
	Name                    string  `json:"name"`
	DateOfBirth             string  `json:"date_of_birth"`
	LicenceIssueDate        string  `json:"licence_issue_date"`
	SupervisedHours         float64 `json:"supervised_hours"`
	ProfessionalHours       float64 `json:"professional_hours"`
	NightHours              float64 `json:"night_hours"`
	SaferDriverCredit       bool    `json:"safer_driver_credit"`
	VRUCredit               bool    `json:"vru_credit"`
	FirstAidCredit          bool    `json:"first_aid_credit"`
	HazardTestPassed        bool    `json:"hazard_test_passed"`
	DrivingAssessmentPassed bool    `json:"driving_assessment_passed"`
	TenureStart             *string `json:"tenure_start"`
}

func (req *studentRequest) apply(record *sqlite.StudentRecord) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return fmt.Errorf("invalid date_of_birth: %w", err)
	}
	issue, err := time.Parse("2006-01-02", req.LicenceIssueDate)
	if err != nil {
		return fmt.Errorf("invalid licence_issue_date: %w", err)
	}
	if req.SupervisedHours < 0 || req.ProfessionalHours < 0 || req.NightHours < 0 {
		return fmt.Errorf("hours must not be negative")
	}

	record.Name = req.Name
	record.DateOfBirth = dob
	record.LicenceIssueDate = issue
	record.SupervisedHours = req.SupervisedHours
	record.ProfessionalHours = req.ProfessionalHours
	record.NightHours = req.NightHours
	record.SaferDriverCredit = req.SaferDriverCredit
	record.VRUCredit = req.VRUCredit
	record.FirstAidCredit = req.FirstAidCredit
	record.HazardTestPassed = req.HazardTestPassed
	record.DrivingAssessmentPassed = req.DrivingAssessmentPassed

	record.TenureStart = nil
	if req.TenureStart != nil && *req.TenureStart != "" {
		tenure, err := time.Parse("2006-01-02", *req.TenureStart)
		if err != nil {
			return fmt.Errorf("invalid tenure_start: %w", err)
		}
		record.TenureStart = &tenure
	}
	return nil
}

// CreateStudent handles POST /students
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	now := time.Now().UTC()
	record := &sqlite.StudentRecord{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := req.apply(record); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.students.StoreStudent(record); err != nil {
		h.logger.Error("Failed to store student", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to store student"))
		return
	}

	h.writeJSON(w, http.StatusCreated, record)
}

// GetStudent handles GET /students/{id}
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadStudent(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// UpdateStudent handles PUT /students/{id}: the manual-entry path for
// hours, credits and dates. Derived fields go stale until the next
// evaluation.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := req.apply(record); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.students.UpdateStudentInputs(record); err != nil {
		h.logger.Error("Failed to update student", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to update student"))
		return
	}

	updated, err := h.students.GetStudent(record.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to reload student"))
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

// EvaluateStudent handles POST /students/{id}/evaluate: runs the rule
// engine over the stored record and writes the derived fields back.
func (h *Handler) EvaluateStudent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	today := h.clock.Now()
	result := eligibility.Evaluate(eligibility.Record{
		DateOfBirth:             record.DateOfBirth,
		LicenceIssueDate:        record.LicenceIssueDate,
		SupervisedHours:         record.SupervisedHours,
		ProfessionalHours:       record.ProfessionalHours,
		NightHours:              record.NightHours,
		SaferDriverCredit:       record.SaferDriverCredit,
		VRUCredit:               record.VRUCredit,
		FirstAidCredit:          record.FirstAidCredit,
		HazardTestPassed:        record.HazardTestPassed,
		DrivingAssessmentPassed: record.DrivingAssessmentPassed,
		TenureStart:             record.TenureStart,
	}, today)

	if err := h.students.UpdateDerived(record.ID, result, today); err != nil {
		h.logger.Error("Failed to write back evaluation", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to store evaluation"))
		return
	}

	h.logger.Info("Evaluated student",
		logger.String("student_id", record.ID),
		logger.String("pathway", string(result.Pathway)),
		logger.String("status", string(result.Status)),
		logger.Float64("credited_hours", result.CreditedHours))

	h.writeJSON(w, http.StatusOK, result)
}

// SubmitScan handles POST /students/{id}/scans: accepts one page
// image as multipart form data and queues it for extraction.
func (h *Handler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	maxBytes := int64(h.config.Scanner.MaxImageMB) << 20
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("missing image file: %w", err))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("failed to read image: %w", err))
		return
	}

	job, err := h.pipeline.Submit(record.ID, image, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, job.Snapshot())
}

// GetScanJob handles GET /scans/{id}: the polling endpoint for scan
// progress and results.
func (h *Handler) GetScanJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job := h.pipeline.GetJob(id)
	if job == nil {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("scan job not found"))
		return
	}
	h.writeJSON(w, http.StatusOK, job.Snapshot())
}

// GetStudentTotals handles GET /students/{id}/totals: cumulative
// category totals replayed from the scan audit trail.
func (h *Handler) GetStudentTotals(w http.ResponseWriter, r *http.Request) {
	record, ok := h.loadStudent(w, r)
	if !ok {
		return
	}

	scans, err := h.scans.GetPageScans(record.ID)
	if err != nil {
		h.logger.Error("Failed to load page scans", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load page scans"))
		return
	}

	pages := make([]logbook.PageScanResult, 0, len(scans))
	for _, scan := range scans {
		pages = append(pages, logbook.PageScanResult{
			PageType:     logbook.PageType(scan.PageType),
			PageNumber:   scan.PageNumber,
			EntryCount:   scan.EntryCount,
			ValidCount:   scan.ValidCount,
			TotalMinutes: scan.TotalMinutes,
			ErrorCount:   scan.ErrorCount,
			WarningCount: scan.WarningCount,
		})
	}

	h.writeJSON(w, http.StatusOK, logbook.AccumulatePages(pages))
}

// GetHealth handles GET /health
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetConfig handles GET /config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.config.Redacted())
}

// loadStudent resolves the {id} URL parameter to a stored record,
// writing the error response itself when it cannot.
func (h *Handler) loadStudent(w http.ResponseWriter, r *http.Request) (*sqlite.StudentRecord, bool) {
	id := chi.URLParam(r, "id")
	record, err := h.students.GetStudent(id)
	if errors.Is(err, sqlite.ErrStudentNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to load student", logger.String("student_id", id), logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to load student"))
		return nil, false
	}
	return record, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}
