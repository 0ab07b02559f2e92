package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-ehs/config"
	"sentinel-ehs/core/reports"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

type stubFlagSource struct {
	rows []store.ClassFlagRow
}

func (s *stubFlagSource) ListClassFlags(_ context.Context, _ []string, _, _ time.Time) ([]store.ClassFlagRow, error) {
	return s.rows, nil
}

type stubSitesStore struct {
	configs  []store.SiteConfig
	settings store.ReportSettings
}

func (s *stubSitesStore) Get(_ context.Context, site string) (*store.SiteConfig, error) {
	for i := range s.configs {
		if s.configs[i].Site == site {
			return &s.configs[i], nil
		}
	}
	return nil, nil
}

func (s *stubSitesStore) List(_ context.Context) ([]store.SiteConfig, error) {
	return s.configs, nil
}

func (s *stubSitesStore) Upsert(_ context.Context, cfg *store.SiteConfig) error {
	s.configs = append(s.configs, *cfg)
	return nil
}

func (s *stubSitesStore) GetReportSettings(_ context.Context) (*store.ReportSettings, error) {
	out := s.settings
	return &out, nil
}

func (s *stubSitesStore) SaveReportSettings(_ context.Context, settings *store.ReportSettings) error {
	s.settings = *settings
	return nil
}

func newRefresherFixture(t *testing.T) *Refresher {
	t.Helper()
	sites := &stubSitesStore{
		configs: []store.SiteConfig{
			{Site: "North", Complex: "East Complex", Colour: "#1f6f43", StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
			{Site: "South", StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
		settings: store.ReportSettings{CompanyColour: "#333333"},
	}
	flags := &stubFlagSource{rows: []store.ClassFlagRow{
		{Number: "N1", Site: "North", OccurredAt: time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC), LTI: true},
	}}
	safeDays := reports.NewSafeDaysService(flags, sites, 365)
	cfg := config.DashboardConfig{Enabled: true, CronSpec: "0 * * * *"}
	r := NewRefresher(cfg, safeDays, sites, utils.NewLogger())
	r.now = func() time.Time { return time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC) }
	return r
}

func TestRefreshBuildsTodaySnapshot(t *testing.T) {
	r := newRefresherFixture(t)
	require.Nil(t, r.Snapshot())

	require.NoError(t, r.Refresh(context.Background()))
	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "2025-03-10", snap.Today)

	// One row per site plus the company roll-up, all pinned to today.
	require.Contains(t, snap.Rows, "North")
	require.Contains(t, snap.Rows, "South")
	require.Contains(t, snap.Rows, "Company")
	// Yesterday's LTI resets the streak on today's row.
	assert.Equal(t, 0, snap.Rows["North"].LTIFreeDays)
	assert.Equal(t, 0, snap.Rows["Company"].LTIFreeDays)
	assert.NotZero(t, snap.Rows["South"].LTIFreeDays)

	assert.Equal(t, "East Complex", snap.ComplexBySite["North"])
	assert.Equal(t, "Other", snap.ComplexBySite["South"])
	assert.Equal(t, "Company", snap.ComplexBySite["Company"])
	assert.Equal(t, "#1f6f43", snap.ColourBySite["North"])
	assert.Equal(t, "#333333", snap.ColourBySite["Company"])
	assert.Equal(t, "#333333", snap.CompanyColour)
}

func TestStartDisabledDoesNothing(t *testing.T) {
	r := newRefresherFixture(t)
	r.cfg.Enabled = false

	r.StartWithContext(context.Background())
	assert.Nil(t, r.Snapshot())
	require.NoError(t, r.StopWithContext(context.Background()))
}

func TestStartRefreshesImmediatelyAndStops(t *testing.T) {
	r := newRefresherFixture(t)

	r.StartWithContext(context.Background())
	assert.NotNil(t, r.Snapshot())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.StopWithContext(ctx))
	// Stop is idempotent.
	require.NoError(t, r.StopWithContext(ctx))
}
