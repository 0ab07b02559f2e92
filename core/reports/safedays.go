package reports

import (
	"context"
	"sort"
	"time"

	"sentinel-ehs/core/store"
)

// ClassFlagSource is the slice of the incidents store the safe-days report
// reads: classification flags for incident-category records only.
type ClassFlagSource interface {
	ListClassFlags(ctx context.Context, sites []string, from, to time.Time) ([]store.ClassFlagRow, error)
}

// SafeDaysRow is one site-day of the report. Streak columns count days since
// the last incident of that class; totals accumulate over the requested range.
type SafeDaysRow struct {
	Site string    `json:"site"`
	Date time.Time `json:"date"`

	LTIFreeDays int `json:"lti_free_days"`
	TIFDays     int `json:"tif_days"`
	MTCDays     int `json:"mtc_days"`
	FACDays     int `json:"fac_days"`
	PDIDays     int `json:"pdi_days"`
	ENVDays     int `json:"env_days"`

	NumLTI int `json:"num_lti"`
	NumMTC int `json:"num_mtc"`
	NumFAC int `json:"num_fac"`
	NumPDI int `json:"num_pdi"`
	NumENV int `json:"num_env"`

	LTIFRTarget *float64 `json:"ltifr_target,omitempty"`
	LTIFR       *float64 `json:"ltifr,omitempty"`

	IncidentNumbers []string `json:"incident_numbers,omitempty"`

	TodayLTI bool `json:"today_lti"`
	TodayTIF bool `json:"today_tif"`
	TodayMTC bool `json:"today_mtc"`
	TodayFAC bool `json:"today_fac"`
	TodayPDI bool `json:"today_pdi"`
	TodayENV bool `json:"today_env"`
}

type SafeDaysRequest struct {
	Sites []string
	From  time.Time
	To    time.Time
}

// SafeDaysService builds the per-site daily streak report with a merged
// company roll-up appended after the site rows.
type SafeDaysService struct {
	incidents ClassFlagSource
	sites     store.SitesStore

	lookbackDays int
	now          func() time.Time
}

func NewSafeDaysService(incidents ClassFlagSource, sites store.SitesStore, lookbackDays int) *SafeDaysService {
	if lookbackDays <= 0 {
		lookbackDays = 365
	}
	return &SafeDaysService{incidents: incidents, sites: sites, lookbackDays: lookbackDays, now: time.Now}
}

// dayFlags merges every incident of one site-day into class booleans, per-class
// counts, and the record numbers behind them.
type dayFlags struct {
	lti, tif, mtc, fac, pdi, env bool
	counts                       struct{ lti, mtc, fac, pdi, env int }
	numbers                      []string
}

func (s *SafeDaysService) Report(ctx context.Context, req SafeDaysRequest) ([]SafeDaysRow, error) {
	configs, err := s.sites.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]store.SiteConfig, len(configs))
	for _, cfg := range configs {
		byName[cfg.Site] = cfg
	}

	selected := req.Sites
	if len(selected) == 0 {
		for _, cfg := range configs {
			selected = append(selected, cfg.Site)
		}
		sort.Strings(selected)
	}

	to := day(req.To)
	if to.IsZero() {
		to = day(s.now().UTC())
	}
	from := day(req.From)

	// The streak for the first requested day depends on the previous day, so
	// the query window starts one day earlier.
	queryFrom := to.AddDate(0, 0, -s.lookbackDays)
	if !from.IsZero() {
		queryFrom = from.AddDate(0, 0, -1)
	}

	flags, err := s.incidents.ListClassFlags(ctx, selected, queryFrom, to.AddDate(0, 0, 1).Add(-time.Second))
	if err != nil {
		return nil, err
	}
	bySite := groupFlags(flags)

	var rows []SafeDaysRow
	for _, site := range selected {
		cfg, ok := byName[site]
		if !ok {
			continue
		}
		start := day(cfg.StartDate)
		if !from.IsZero() && from.After(start) {
			start = from
		}
		if start.After(to) {
			continue
		}
		rows = append(rows, buildDailyRows(site, start, to, day(cfg.StartDate), cfg.LTIFRTarget, cfg.LTIFRActual, bySite[site])...)
	}

	company, err := s.companySummary(ctx, selected, byName, from, to, bySite)
	if err != nil {
		return nil, err
	}
	return append(rows, company...), nil
}

func (s *SafeDaysService) companySummary(ctx context.Context, selected []string, byName map[string]store.SiteConfig, from, to time.Time, bySite map[string]map[time.Time]*dayFlags) ([]SafeDaysRow, error) {
	var companyStart time.Time
	for _, site := range selected {
		cfg, ok := byName[site]
		if !ok {
			continue
		}
		start := day(cfg.StartDate)
		if companyStart.IsZero() || start.Before(companyStart) {
			companyStart = start
		}
	}
	if companyStart.IsZero() {
		return nil, nil
	}

	start := companyStart
	if !from.IsZero() && from.After(start) {
		start = from
	}
	if start.After(to) {
		return nil, nil
	}

	merged := map[time.Time]*dayFlags{}
	for _, site := range selected {
		for d, info := range bySite[site] {
			m := merged[d]
			if m == nil {
				m = &dayFlags{}
				merged[d] = m
			}
			m.lti = m.lti || info.lti
			m.tif = m.tif || info.tif
			m.mtc = m.mtc || info.mtc
			m.fac = m.fac || info.fac
			m.pdi = m.pdi || info.pdi
			m.env = m.env || info.env
			m.counts.lti += info.counts.lti
			m.counts.mtc += info.counts.mtc
			m.counts.fac += info.counts.fac
			m.counts.pdi += info.counts.pdi
			m.counts.env += info.counts.env
		}
	}

	settings, err := s.sites.GetReportSettings(ctx)
	if err != nil {
		return nil, err
	}
	rows := buildDailyRows("Company", start, to, companyStart, settings.CompanyLTIFRTarget, settings.CompanyLTIFRActual, merged)
	for i := range rows {
		rows[i].IncidentNumbers = nil
	}
	return rows, nil
}

func groupFlags(flags []store.ClassFlagRow) map[string]map[time.Time]*dayFlags {
	out := map[string]map[time.Time]*dayFlags{}
	for _, row := range flags {
		if row.OccurredAt.IsZero() {
			continue
		}
		d := day(row.OccurredAt)
		perSite := out[row.Site]
		if perSite == nil {
			perSite = map[time.Time]*dayFlags{}
			out[row.Site] = perSite
		}
		info := perSite[d]
		if info == nil {
			info = &dayFlags{}
			perSite[d] = info
		}
		tif := row.LTI || row.MTC || row.FAC
		info.lti = info.lti || row.LTI
		info.tif = info.tif || tif
		info.mtc = info.mtc || row.MTC
		info.fac = info.fac || row.FAC
		info.pdi = info.pdi || row.PDI
		info.env = info.env || row.ENV
		if row.LTI {
			info.counts.lti++
		}
		if row.MTC {
			info.counts.mtc++
		}
		if row.FAC {
			info.counts.fac++
		}
		if row.PDI {
			info.counts.pdi++
		}
		if row.ENV {
			info.counts.env++
		}
		info.numbers = append(info.numbers, row.Number)
	}
	return out
}

// buildDailyRows walks every day in [start, end]. A streak column resets the
// day after an incident of its class; the site's configured start date zeroes
// everything.
func buildDailyRows(site string, start, end, siteStart time.Time, target, actual *float64, days map[time.Time]*dayFlags) []SafeDaysRow {
	var streak struct{ lti, tif, mtc, fac, pdi, env int }
	var totals struct{ lti, mtc, fac, pdi, env int }

	var rows []SafeDaysRow
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Equal(siteStart) {
			streak = struct{ lti, tif, mtc, fac, pdi, env int }{}
		} else {
			prev := days[d.AddDate(0, 0, -1)]
			if prev == nil {
				prev = &dayFlags{}
			}
			streak.lti = bump(streak.lti, prev.lti)
			streak.tif = bump(streak.tif, prev.tif)
			streak.mtc = bump(streak.mtc, prev.mtc)
			streak.fac = bump(streak.fac, prev.fac)
			streak.pdi = bump(streak.pdi, prev.pdi)
			streak.env = bump(streak.env, prev.env)
		}

		today := days[d]
		if today == nil {
			today = &dayFlags{}
		}
		totals.lti += today.counts.lti
		totals.mtc += today.counts.mtc
		totals.fac += today.counts.fac
		totals.pdi += today.counts.pdi
		totals.env += today.counts.env

		rows = append(rows, SafeDaysRow{
			Site:            site,
			Date:            d,
			LTIFreeDays:     streak.lti,
			TIFDays:         streak.tif,
			MTCDays:         streak.mtc,
			FACDays:         streak.fac,
			PDIDays:         streak.pdi,
			ENVDays:         streak.env,
			NumLTI:          totals.lti,
			NumMTC:          totals.mtc,
			NumFAC:          totals.fac,
			NumPDI:          totals.pdi,
			NumENV:          totals.env,
			LTIFRTarget:     target,
			LTIFR:           actual,
			IncidentNumbers: today.numbers,
			TodayLTI:        today.lti,
			TodayTIF:        today.tif,
			TodayMTC:        today.mtc,
			TodayFAC:        today.fac,
			TodayPDI:        today.pdi,
			TodayENV:        today.env,
		})
	}
	return rows
}

func bump(streak int, brokeYesterday bool) int {
	if brokeYesterday {
		return 0
	}
	return streak + 1
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
