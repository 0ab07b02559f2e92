package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sentinel-ehs/config"
	"sentinel-ehs/core/reports"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

// Snapshot is the cached dashboard payload: today's safe-days rows keyed by
// site, with the grouping and colour hints the board renders with.
type Snapshot struct {
	Today         string                         `json:"today"`
	Rows          map[string]reports.SafeDaysRow `json:"rows"`
	ComplexBySite map[string]string              `json:"complex_by_site"`
	ColourBySite  map[string]string              `json:"colour_by_site"`
	CompanyColour string                         `json:"company_colour"`
	RefreshedAt   time.Time                      `json:"refreshed_at"`
}

// Refresher keeps the snapshot warm: one refresh at start, then one exactly on
// every hour. Reads never touch the database.
type Refresher struct {
	cfg      config.DashboardConfig
	safeDays *reports.SafeDaysService
	sites    store.SitesStore
	logger   *utils.Logger

	mu   sync.RWMutex
	snap *Snapshot

	cronMu  sync.Mutex
	cron    *cron.Cron
	running bool

	now func() time.Time
}

func NewRefresher(cfg config.DashboardConfig, safeDays *reports.SafeDaysService, sites store.SitesStore, logger *utils.Logger) *Refresher {
	return &Refresher{cfg: cfg, safeDays: safeDays, sites: sites, logger: logger, now: time.Now}
}

func (r *Refresher) StartWithContext(ctx context.Context) {
	if r == nil || !r.cfg.Enabled {
		return
	}
	r.cronMu.Lock()
	defer r.cronMu.Unlock()
	if r.running {
		return
	}

	if err := r.Refresh(ctx); err != nil {
		r.logger.Printf("initial dashboard refresh failed: %v", err)
	}

	spec := r.cfg.CronSpec
	if spec == "" {
		spec = "0 * * * *"
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if err := r.Refresh(ctx); err != nil {
			r.logger.Printf("dashboard refresh failed: %v", err)
		}
	}); err != nil {
		r.logger.Printf("dashboard cron spec %q rejected: %v", spec, err)
		return
	}
	c.Start()
	r.cron = c
	r.running = true
}

func (r *Refresher) StopWithContext(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.cronMu.Lock()
	c := r.cron
	r.cron = nil
	wasRunning := r.running
	r.running = false
	r.cronMu.Unlock()
	if !wasRunning || c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the last refreshed payload, nil before the first refresh
// completes.
func (r *Refresher) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Refresh rebuilds today's rows from the safe-days report and swaps the cache.
func (r *Refresher) Refresh(ctx context.Context) error {
	today := r.now().UTC().Truncate(24 * time.Hour)

	rows, err := r.safeDays.Report(ctx, reports.SafeDaysRequest{To: today})
	if err != nil {
		return err
	}

	snap := &Snapshot{
		Today:         today.Format("2006-01-02"),
		Rows:          map[string]reports.SafeDaysRow{},
		ComplexBySite: map[string]string{},
		ColourBySite:  map[string]string{},
		RefreshedAt:   r.now().UTC(),
	}
	for _, row := range rows {
		if row.Date.Equal(today) && row.Site != "" {
			snap.Rows[row.Site] = row
		}
	}

	configs, err := r.sites.List(ctx)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		complexName := cfg.Complex
		if complexName == "" {
			complexName = "Other"
		}
		snap.ComplexBySite[cfg.Site] = complexName
		snap.ColourBySite[cfg.Site] = cfg.Colour
	}

	settings, err := r.sites.GetReportSettings(ctx)
	if err != nil {
		return err
	}
	snap.CompanyColour = settings.CompanyColour
	if _, ok := snap.Rows["Company"]; ok {
		snap.ComplexBySite["Company"] = "Company"
		if settings.CompanyColour != "" {
			snap.ColourBySite["Company"] = settings.CompanyColour
		}
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	return nil
}
