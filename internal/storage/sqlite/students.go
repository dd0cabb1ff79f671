package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jsalter/lplate/internal/eligibility"
	"github.com/jsalter/lplate/internal/logbook"
	"github.com/jsalter/lplate/pkg/logger"
)

// ErrStudentNotFound is returned when no student has the given ID.
var ErrStudentNotFound = errors.New("student not found")

// StudentStorage handles storage of student eligibility records
type StudentStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStudentStorage creates a new SQLite student storage
func NewStudentStorage(db *sql.DB, log *logger.Logger) *StudentStorage {
	storage := &StudentStorage{
		db:     db,
		logger: log.Named("sqlite-students"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize student storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *StudentStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			date_of_birth TIMESTAMP NOT NULL,
			licence_issue_date TIMESTAMP NOT NULL,
			supervised_hours REAL NOT NULL DEFAULT 0,
			professional_hours REAL NOT NULL DEFAULT 0,
			night_hours REAL NOT NULL DEFAULT 0,
			safer_driver_credit INTEGER NOT NULL DEFAULT 0,
			vru_credit INTEGER NOT NULL DEFAULT 0,
			first_aid_credit INTEGER NOT NULL DEFAULT 0,
			hazard_test_passed INTEGER NOT NULL DEFAULT 0,
			driving_assessment_passed INTEGER NOT NULL DEFAULT 0,
			tenure_start TIMESTAMP,
			pathway TEXT,
			required_hours REAL,
			required_night_hours REAL,
			required_tenure_months INTEGER,
			credited_hours REAL,
			remaining_hours REAL,
			earliest_eligible TIMESTAMP,
			status TEXT,
			evaluated_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create students table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_students_status ON students(status)`,
		`CREATE INDEX IF NOT EXISTS idx_students_pathway ON students(pathway)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create student index: %w", err)
		}
	}

	return nil
}

// StoreStudent inserts a new student record.
func (s *StudentStorage) StoreStudent(record *StudentRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO students
		(id, name, date_of_birth, licence_issue_date,
		 supervised_hours, professional_hours, night_hours,
		 safer_driver_credit, vru_credit, first_aid_credit,
		 hazard_test_passed, driving_assessment_passed,
		 tenure_start, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Name,
		record.DateOfBirth.Format(time.RFC3339),
		record.LicenceIssueDate.Format(time.RFC3339),
		record.SupervisedHours,
		record.ProfessionalHours,
		record.NightHours,
		record.SaferDriverCredit,
		record.VRUCredit,
		record.FirstAidCredit,
		record.HazardTestPassed,
		record.DrivingAssessmentPassed,
		nullableTime(record.TenureStart),
		record.CreatedAt.Format(time.RFC3339),
		record.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert student: %w", err)
	}
	return nil
}

// GetStudent returns the student with the given ID.
func (s *StudentStorage) GetStudent(id string) (*StudentRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, name, date_of_birth, licence_issue_date,
		        supervised_hours, professional_hours, night_hours,
		        safer_driver_credit, vru_credit, first_aid_credit,
		        hazard_test_passed, driving_assessment_passed,
		        tenure_start, pathway, required_hours, required_night_hours,
		        required_tenure_months, credited_hours, remaining_hours,
		        earliest_eligible, status, evaluated_at, created_at, updated_at
		FROM students
		WHERE id = ?`,
		id,
	)

	record, err := scanStudentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query student: %w", err)
	}
	return record, nil
}

// UpdateStudentInputs rewrites the manually-entered input fields. The
// derived fields are untouched; they go stale until the next
// evaluation recomputes them.
func (s *StudentStorage) UpdateStudentInputs(record *StudentRecord) error {
	result, err := s.db.Exec(
		`UPDATE students
		SET name = ?, date_of_birth = ?, licence_issue_date = ?,
		    supervised_hours = ?, professional_hours = ?, night_hours = ?,
		    safer_driver_credit = ?, vru_credit = ?, first_aid_credit = ?,
		    hazard_test_passed = ?, driving_assessment_passed = ?,
		    tenure_start = ?, updated_at = ?
		WHERE id = ?`,
		record.Name,
		record.DateOfBirth.Format(time.RFC3339),
		record.LicenceIssueDate.Format(time.RFC3339),
		record.SupervisedHours,
		record.ProfessionalHours,
		record.NightHours,
		record.SaferDriverCredit,
		record.VRUCredit,
		record.FirstAidCredit,
		record.HazardTestPassed,
		record.DrivingAssessmentPassed,
		nullableTime(record.TenureStart),
		time.Now().UTC().Format(time.RFC3339),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return requireRow(result)
}

// UpdateDerived writes back the output of one eligibility evaluation.
func (s *StudentStorage) UpdateDerived(id string, res eligibility.Result, evaluatedAt time.Time) error {
	result, err := s.db.Exec(
		`UPDATE students
		SET pathway = ?, required_hours = ?, required_night_hours = ?,
		    required_tenure_months = ?, credited_hours = ?, remaining_hours = ?,
		    earliest_eligible = ?, status = ?, evaluated_at = ?, updated_at = ?
		WHERE id = ?`,
		string(res.Pathway),
		res.RequiredHours,
		res.RequiredNightHours,
		res.RequiredTenureMonths,
		res.CreditedHours,
		res.RemainingHours,
		nullableTime(res.EarliestEligible),
		string(res.Status),
		evaluatedAt.Format(time.RFC3339),
		evaluatedAt.Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update derived fields: %w", err)
	}
	return requireRow(result)
}

// ApplyScannedMinutes folds one completed page's valid minutes into
// the stored hour totals. Day and night pages both count as supervised
// hours; night pages additionally count toward the night requirement.
func (s *StudentStorage) ApplyScannedMinutes(id string, pageType logbook.PageType, minutes int) error {
	hours := float64(minutes) / 60

	var supervised, night, professional float64
	switch pageType {
	case logbook.PageDaySupervised:
		supervised = hours
	case logbook.PageNightSupervised:
		supervised = hours
		night = hours
	case logbook.PageProfessionalDriving, logbook.PageProfessionalStamp:
		professional = hours
	default:
		return fmt.Errorf("unknown page type %q", pageType)
	}

	result, err := s.db.Exec(
		`UPDATE students
		SET supervised_hours = supervised_hours + ?,
		    night_hours = night_hours + ?,
		    professional_hours = professional_hours + ?,
		    updated_at = ?
		WHERE id = ?`,
		supervised,
		night,
		professional,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to apply scanned minutes: %w", err)
	}
	return requireRow(result)
}

// scanStudentRow scans one student row, translating the stored
// RFC3339 strings back to times.
func scanStudentRow(row *sql.Row) (*StudentRecord, error) {
	var record StudentRecord
	var dob, issue, createdAt, updatedAt string
	var tenureStart, earliestEligible, evaluatedAt sql.NullString
	var pathway, status sql.NullString
	var requiredHours, requiredNight, credited, remaining sql.NullFloat64
	var tenureMonths sql.NullInt64

	if err := row.Scan(
		&record.ID,
		&record.Name,
		&dob,
		&issue,
		&record.SupervisedHours,
		&record.ProfessionalHours,
		&record.NightHours,
		&record.SaferDriverCredit,
		&record.VRUCredit,
		&record.FirstAidCredit,
		&record.HazardTestPassed,
		&record.DrivingAssessmentPassed,
		&tenureStart,
		&pathway,
		&requiredHours,
		&requiredNight,
		&tenureMonths,
		&credited,
		&remaining,
		&earliestEligible,
		&status,
		&evaluatedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if record.DateOfBirth, err = time.Parse(time.RFC3339, dob); err != nil {
		return nil, fmt.Errorf("failed to parse date_of_birth: %w", err)
	}
	if record.LicenceIssueDate, err = time.Parse(time.RFC3339, issue); err != nil {
		return nil, fmt.Errorf("failed to parse licence_issue_date: %w", err)
	}
	if record.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if record.TenureStart, err = parseNullableTime(tenureStart); err != nil {
		return nil, fmt.Errorf("failed to parse tenure_start: %w", err)
	}
	if record.EarliestEligible, err = parseNullableTime(earliestEligible); err != nil {
		return nil, fmt.Errorf("failed to parse earliest_eligible: %w", err)
	}
	if record.EvaluatedAt, err = parseNullableTime(evaluatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse evaluated_at: %w", err)
	}

	record.Pathway = pathway.String
	record.Status = status.String
	record.RequiredHours = requiredHours.Float64
	record.RequiredNightHours = requiredNight.Float64
	record.RequiredTenureMonths = int(tenureMonths.Int64)
	record.CreditedHours = credited.Float64
	record.RemainingHours = remaining.Float64

	return &record, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
