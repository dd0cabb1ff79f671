// Package eligibility is the authoritative rule set deciding whether a
// learner qualifies for a licence upgrade. Evaluate is a pure function
// of the student's stored record and the current date; the derived
// fields it returns are recomputed in full on every call and never
// mutated independently.
package eligibility

import "time"

// Pathway is the regulatory track a student is on, fixed by their age
// when the learner permit was issued.
type Pathway string

const (
	// PathwayRed is the stricter track for students under 25 at issuance.
	PathwayRed Pathway = "red"
	// PathwayGreen is the relaxed track for students 25 and over.
	PathwayGreen Pathway = "green"
)

// Status is the eligibility classification. The constants are listed
// in priority order: Evaluate returns the first one whose guard holds.
type Status string

const (
	StatusPendingHours       Status = "PENDING_HOURS"
	StatusPendingTenure      Status = "PENDING_TENURE"
	StatusPendingAssessments Status = "PENDING_ASSESSMENTS"
	StatusEligible           Status = "ELIGIBLE"
	StatusNotEligible        Status = "NOT_ELIGIBLE"
)

// Flat hour credits for completed safety courses.
const (
	saferDriverCreditHours = 20
	vruCreditHours         = 10
	firstAidCreditHours    = 5
)

// minAgeAtIssue is the age floor checked in the ELIGIBLE branch.
const minAgeAtIssue = 17

// Record is the evaluation input: the subset of the student record
// the rules read. Whether the hours came from manual entry or the page
// scanner does not matter; the stored totals are authoritative.
type Record struct {
	DateOfBirth       time.Time
	LicenceIssueDate  time.Time
	SupervisedHours   float64
	ProfessionalHours float64
	NightHours        float64

	SaferDriverCredit bool
	VRUCredit         bool
	FirstAidCredit    bool

	HazardTestPassed        bool
	DrivingAssessmentPassed bool

	TenureStart *time.Time
}

// Result holds the derived fields written back to the student record
// after each evaluation.
type Result struct {
	Pathway              Pathway    `json:"pathway"`
	RequiredHours        float64    `json:"requiredHours"`
	RequiredNightHours   float64    `json:"requiredNightHours"`
	RequiredTenureMonths int        `json:"requiredTenureMonths"`
	CreditedHours        float64    `json:"creditedHours"`
	RemainingHours       float64    `json:"remainingHours"`
	EarliestEligible     *time.Time `json:"earliestEligible,omitempty"`
	Status               Status     `json:"status"`
}

// Evaluate recomputes every derived field from the record and today's
// date. It has no failure mode: missing optional inputs are treated as
// zero or absent, never as errors.
func Evaluate(rec Record, today time.Time) Result {
	var res Result

	ageAtIssue := yearsBetween(rec.DateOfBirth, rec.LicenceIssueDate)
	if ageAtIssue < 25 {
		res.Pathway = PathwayRed
		res.RequiredHours = 100
		res.RequiredNightHours = 10
		res.RequiredTenureMonths = 12
	} else {
		res.Pathway = PathwayGreen
		res.RequiredHours = 50
		res.RequiredNightHours = 5
		res.RequiredTenureMonths = 6
	}

	res.CreditedHours = creditedHours(rec)
	res.RemainingHours = res.RequiredHours - res.CreditedHours
	if res.RemainingHours < 0 {
		res.RemainingHours = 0
	}

	if rec.TenureStart != nil {
		d := rec.TenureStart.AddDate(0, res.RequiredTenureMonths, 0)
		res.EarliestEligible = &d
	}

	res.Status = classify(rec, res, ageAtIssue, today)
	return res
}

// creditedHours applies the flat credit formula to the stored totals:
// professional hours count triple up to ten, plus supervised hours,
// plus fixed course credits.
func creditedHours(rec Record) float64 {
	professional := rec.ProfessionalHours
	if professional > 10 {
		professional = 10
	}
	credited := professional*3 + rec.SupervisedHours
	if rec.SaferDriverCredit {
		credited += saferDriverCreditHours
	}
	if rec.VRUCredit {
		credited += vruCreditHours
	}
	if rec.FirstAidCredit {
		credited += firstAidCreditHours
	}
	return credited
}

// classify walks the status guards in strict priority order: an hours
// deficiency dominates everything, then tenure, then assessments.
// Night-hours and the age floor are checked only inside the ELIGIBLE
// guard, so a student short on nothing but night hours falls through
// to NOT_ELIGIBLE rather than getting a pending category of its own.
func classify(rec Record, res Result, ageAtIssue int, today time.Time) Status {
	switch {
	case res.CreditedHours < res.RequiredHours:
		return StatusPendingHours

	case res.EarliestEligible != nil && today.Before(*res.EarliestEligible):
		return StatusPendingTenure

	case !rec.HazardTestPassed || !rec.DrivingAssessmentPassed:
		return StatusPendingAssessments

	case rec.NightHours >= res.RequiredNightHours && ageAtIssue >= minAgeAtIssue:
		return StatusEligible

	default:
		return StatusNotEligible
	}
}

// yearsBetween returns the number of whole years from a to b.
func yearsBetween(a, b time.Time) int {
	years := b.Year() - a.Year()
	anniversary := a.AddDate(years, 0, 0)
	if b.Before(anniversary) {
		years--
	}
	return years
}
