package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jsalter/lplate/internal/logbook"
	"github.com/jsalter/lplate/pkg/logger"
)

// ScanStorage handles the page scan audit trail
type ScanStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewScanStorage creates a new SQLite scan storage
func NewScanStorage(db *sql.DB, log *logger.Logger) *ScanStorage {
	storage := &ScanStorage{
		db:     db,
		logger: log.Named("sqlite-scans"),
	}

	if err := storage.initDB(); err != nil {
		storage.logger.Error("Failed to initialize scan storage", logger.Error(err))
	}

	return storage
}

// initDB initializes the database tables
func (s *ScanStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS page_scans (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			page_type TEXT NOT NULL,
			page_number INTEGER,
			entry_count INTEGER NOT NULL,
			valid_count INTEGER NOT NULL,
			total_minutes INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			subtotal_check TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			FOREIGN KEY (student_id) REFERENCES students(id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create page_scans table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_page_scans_student_id ON page_scans(student_id)`,
		`CREATE INDEX IF NOT EXISTS idx_page_scans_page_type ON page_scans(page_type)`,
		`CREATE INDEX IF NOT EXISTS idx_page_scans_created_at ON page_scans(created_at)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create page scan index: %w", err)
		}
	}

	return nil
}

// RecordPageScan stores the aggregate of one completed page scan.
func (s *ScanStorage) RecordPageScan(studentID string, page *logbook.PageScanResult) error {
	_, err := s.db.Exec(
		`INSERT INTO page_scans
		(id, student_id, page_type, page_number, entry_count, valid_count,
		 total_minutes, error_count, warning_count, subtotal_check, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		studentID,
		string(page.PageType),
		page.PageNumber,
		page.EntryCount,
		page.ValidCount,
		page.TotalMinutes,
		page.ErrorCount,
		page.WarningCount,
		string(page.SubtotalCheck),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert page scan: %w", err)
	}
	return nil
}

// GetPageScans returns every recorded page scan for a student, oldest
// first, so cumulative totals replay in scan order.
func (s *ScanStorage) GetPageScans(studentID string) ([]*PageScanRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, student_id, page_type, page_number, entry_count, valid_count,
		        total_minutes, error_count, warning_count, subtotal_check, created_at
		FROM page_scans
		WHERE student_id = ?
		ORDER BY created_at ASC`,
		studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query page scans: %w", err)
	}
	defer rows.Close()

	return s.scanPageScanRows(rows)
}

// scanPageScanRows scans database rows into PageScanRecord structs
func (s *ScanStorage) scanPageScanRows(rows *sql.Rows) ([]*PageScanRecord, error) {
	var records []*PageScanRecord
	for rows.Next() {
		var record PageScanRecord
		var createdAt string
		var pageNumber sql.NullInt64

		if err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.PageType,
			&pageNumber,
			&record.EntryCount,
			&record.ValidCount,
			&record.TotalMinutes,
			&record.ErrorCount,
			&record.WarningCount,
			&record.SubtotalCheck,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page scan: %w", err)
		}

		var err error
		record.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if pageNumber.Valid {
			n := int(pageNumber.Int64)
			record.PageNumber = &n
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}
