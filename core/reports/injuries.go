package reports

import (
	"context"
	"strings"
	"time"

	"sentinel-ehs/core/store"
)

// NatureOptions is the fixed injury-nature vocabulary, in form order. Every
// option appears in the report even when its counts are zero.
var NatureOptions = []string{
	"Amputation",
	"Abrasion",
	"Burn (Flame)",
	"Burn (Chemical)",
	"Burn (Steam/hot substance)",
	"Concussion",
	"Crushing (Injury)",
	"Contusion/bruise",
	"Dislocation",
	"Drowning",
	"Burn (Electric)",
	"Fracture",
	"Forgein body/splinter",
	"Heat Exhaustion",
	"Heatstroke",
	"Laceration",
	"Multiple Injury",
	"Poisoning",
	"Puncture",
	"Asphyxiation",
	"Sprain/Strain",
	"Other",
}

// TotalRowLabel names the grand-total row appended after the nature rows.
const TotalRowLabel = "Total Injuries"

// InjuryNatureRow is one nature line of the matrix: totals per year column and
// per calendar month, months aggregated across all years in the range.
type InjuryNatureRow struct {
	Nature string      `json:"nature"`
	Total  int         `json:"total"`
	Years  map[int]int `json:"years"`
	Months [12]int     `json:"months"`
}

type InjuryNatureReport struct {
	From  time.Time         `json:"from"`
	To    time.Time         `json:"to"`
	Years []int             `json:"years"`
	Rows  []InjuryNatureRow `json:"rows"`
}

// NatureCountSource is the slice of the incidents store this report reads.
type NatureCountSource interface {
	ListInjuryNatureCounts(ctx context.Context, site string, from, to time.Time) ([]store.NatureCount, error)
}

type InjuryNatureService struct {
	incidents NatureCountSource
	now       func() time.Time
}

func NewInjuryNatureService(incidents NatureCountSource) *InjuryNatureService {
	return &InjuryNatureService{incidents: incidents, now: time.Now}
}

// Report builds the nature × year/month matrix over [from, to], defaulting to
// the current calendar year. Unrecognised natures fold into "Other".
func (s *InjuryNatureService) Report(ctx context.Context, site string, from, to time.Time) (*InjuryNatureReport, error) {
	today := s.now().UTC()
	if from.IsZero() {
		from = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(today.Year(), 12, 31, 23, 59, 59, 0, time.UTC)
	}

	counts, err := s.incidents.ListInjuryNatureCounts(ctx, site, from, to)
	if err != nil {
		return nil, err
	}

	var years []int
	for y := from.Year(); y <= to.Year(); y++ {
		years = append(years, y)
	}

	known := make(map[string]struct{}, len(NatureOptions))
	for _, opt := range NatureOptions {
		known[opt] = struct{}{}
	}

	byNature := map[string]*InjuryNatureRow{}
	rows := make([]InjuryNatureRow, 0, len(NatureOptions)+1)
	for _, opt := range NatureOptions {
		rows = append(rows, InjuryNatureRow{Nature: opt, Years: zeroYears(years)})
	}
	for i := range rows {
		byNature[rows[i].Nature] = &rows[i]
	}

	for _, c := range counts {
		nature := strings.TrimSpace(c.Nature)
		if _, ok := known[nature]; !ok {
			nature = "Other"
		}
		row := byNature[nature]
		if c.Month >= 1 && c.Month <= 12 {
			row.Months[c.Month-1] += c.Total
		}
		if _, ok := row.Years[c.Year]; ok {
			row.Years[c.Year] += c.Total
			row.Total += c.Total
		}
	}

	total := InjuryNatureRow{Nature: TotalRowLabel, Years: zeroYears(years)}
	for _, row := range rows {
		total.Total += row.Total
		for y, v := range row.Years {
			total.Years[y] += v
		}
		for m, v := range row.Months {
			total.Months[m] += v
		}
	}
	rows = append(rows, total)

	return &InjuryNatureReport{From: from, To: to, Years: years, Rows: rows}, nil
}

func zeroYears(years []int) map[int]int {
	out := make(map[int]int, len(years))
	for _, y := range years {
		out[y] = 0
	}
	return out
}
