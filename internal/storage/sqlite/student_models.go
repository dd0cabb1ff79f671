package sqlite

import "time"

// StudentRecord is the persisted eligibility record. The input fields
// are entered manually or accumulated by the page scanner; the derived
// fields are rewritten in full on every evaluation and must never be
// edited independently.
type StudentRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	DateOfBirth      time.Time `json:"date_of_birth"`
	LicenceIssueDate time.Time `json:"licence_issue_date"`

	SupervisedHours   float64 `json:"supervised_hours"`
	ProfessionalHours float64 `json:"professional_hours"`
	NightHours        float64 `json:"night_hours"`

	SaferDriverCredit bool `json:"safer_driver_credit"`
	VRUCredit         bool `json:"vru_credit"`
	FirstAidCredit    bool `json:"first_aid_credit"`

	HazardTestPassed        bool `json:"hazard_test_passed"`
	DrivingAssessmentPassed bool `json:"driving_assessment_passed"`

	TenureStart *time.Time `json:"tenure_start,omitempty"`

	// Derived fields, written back by the eligibility engine.
	Pathway              string     `json:"pathway,omitempty"`
	RequiredHours        float64    `json:"required_hours,omitempty"`
	RequiredNightHours   float64    `json:"required_night_hours,omitempty"`
	RequiredTenureMonths int        `json:"required_tenure_months,omitempty"`
	CreditedHours        float64    `json:"credited_hours,omitempty"`
	RemainingHours       float64    `json:"remaining_hours,omitempty"`
	EarliestEligible     *time.Time `json:"earliest_eligible,omitempty"`
	Status               string     `json:"status,omitempty"`
	EvaluatedAt          *time.Time `json:"evaluated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageScanRecord is one row of the scan audit trail: the per-page
// aggregate a completed scan produced, without the row detail.
type PageScanRecord struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	PageType      string    `json:"page_type"`
	PageNumber    *int      `json:"page_number,omitempty"`
	EntryCount    int       `json:"entry_count"`
	ValidCount    int       `json:"valid_count"`
	TotalMinutes  int       `json:"total_minutes"`
	ErrorCount    int       `json:"error_count"`
	WarningCount  int       `json:"warning_count"`
	SubtotalCheck string    `json:"subtotal_check"`
	CreatedAt     time.Time `json:"created_at"`
}
