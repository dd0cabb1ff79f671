package logbook

// ProfessionalCreditTier is how many actual professional-instructor
// hours attract the 3-for-1 credit. Hours beyond the tier are credited
// one for one.
const (
	ProfessionalCreditTier       = 10.0
	ProfessionalCreditMultiplier = 3.0
)

// ProfessionalCredit breaks down how professional-instructor hours
// convert to credited hours.
type ProfessionalCredit struct {
	FirstTierCredit float64 `json:"firstTierCredit"`
	ExcessCredit    float64 `json:"excessCredit"`
	TotalCredit     float64 `json:"totalCredit"`
}

// CumulativeTotals is the grand total across every scanned page,
// bucketed by category, with the professional credit rule applied.
type CumulativeTotals struct {
	DayMinutes          int                `json:"dayMinutes"`
	NightMinutes        int                `json:"nightMinutes"`
	ProfessionalMinutes int                `json:"professionalMinutes"`
	Professional        ProfessionalCredit `json:"professionalCredit"`
	ActualHours         float64            `json:"actualHours"`
	CreditedHours       float64            `json:"creditedHours"`
	EntryCount          int                `json:"entryCount"`
	ValidCount          int                `json:"validCount"`
	ErrorCount          int                `json:"errorCount"`
	WarningCount        int                `json:"warningCount"`
}

// CreditProfessionalHours applies the tiered incentive: the first ten
// actual hours with a professional instructor count triple, the rest
// count one for one.
func CreditProfessionalHours(actualHours float64) ProfessionalCredit {
	tier := actualHours
	if tier > ProfessionalCreditTier {
		tier = ProfessionalCreditTier
	}
	excess := actualHours - ProfessionalCreditTier
	if excess < 0 {
		excess = 0
	}
	c := ProfessionalCredit{
		FirstTierCredit: tier * ProfessionalCreditMultiplier,
		ExcessCredit:    excess,
	}
	c.TotalCredit = c.FirstTierCredit + c.ExcessCredit
	return c
}

// AccumulatePages buckets valid-row minutes by page category across
// every page and applies the professional credit rule. Error and
// warning counts are summed as-is; the same finding on two pages
// counts twice.
func AccumulatePages(pages []PageScanResult) CumulativeTotals {
	var t CumulativeTotals

	for _, p := range pages {
		switch p.PageType {
		case PageDaySupervised:
			t.DayMinutes += p.TotalMinutes
		case PageNightSupervised:
			t.NightMinutes += p.TotalMinutes
		case PageProfessionalDriving, PageProfessionalStamp:
			t.ProfessionalMinutes += p.TotalMinutes
		}
		t.EntryCount += p.EntryCount
		t.ValidCount += p.ValidCount
		t.ErrorCount += p.ErrorCount
		t.WarningCount += p.WarningCount
	}

	day := float64(t.DayMinutes) / 60
	night := float64(t.NightMinutes) / 60
	professional := float64(t.ProfessionalMinutes) / 60

	t.Professional = CreditProfessionalHours(professional)
	t.ActualHours = day + night + professional
	t.CreditedHours = day + night + t.Professional.TotalCredit
	return t
}
