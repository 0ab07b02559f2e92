package api

import (
	"context"
	"net/http"
	"time"

	"sentinel-ehs/config"
	"sentinel-ehs/core/backups"
	"sentinel-ehs/core/dashboard"
	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/reports"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

// BackgroundWorker is anything started alongside the HTTP listener and stopped
// during shutdown.
type BackgroundWorker interface {
	StartWithContext(ctx context.Context)
	StopWithContext(ctx context.Context) error
}

// ServerDeps carries every collaborator the route handlers need.
type ServerDeps struct {
	IncidentsSvc *incidents.Service
	ActionsSvc   *incidents.ActionService
	Employees    store.EmployeesStore
	Assets       store.AssetsStore
	Sites        store.SitesStore
	Audits       store.AuditStore
	SafeDays     *reports.SafeDaysService
	Injuries     *reports.InjuryNatureService
	Dashboard    *dashboard.Refresher
	Backups      *backups.Service
}

type Server struct {
	cfg    *config.AppConfig
	deps   ServerDeps
	logger *utils.Logger
	http   *http.Server
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Printf("listening on %s", s.cfg.ListenAddr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
