package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinel-ehs/api/handlers"
)

func (s *Server) routes() http.Handler {
	incidentsH := handlers.NewIncidentsHandler(s.deps.IncidentsSvc, s.deps.Audits, s.logger)
	actionsH := handlers.NewActionsHandler(s.deps.ActionsSvc, s.logger)
	lookupsH := handlers.NewLookupsHandler(s.deps.Employees, s.deps.Assets)
	reportsH := handlers.NewReportsHandler(s.deps.SafeDays, s.deps.Injuries, s.deps.Sites, s.logger)
	dashboardH := handlers.NewDashboardHandler(s.deps.Dashboard)
	backupsH := handlers.NewBackupsHandler(s.deps.Backups, s.logger)
	sitesH := handlers.NewSitesHandler(s.deps.Sites, s.deps.Audits, s.logger)

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", incidentsH.List)
			r.Post("/", incidentsH.Create)
			r.Post("/preview", incidentsH.Preview)
			r.Post("/number", incidentsH.AllocateNumber)
			r.Post("/register-number", incidentsH.AllocateRegisterNumber)
			r.Get("/picker-filter", incidentsH.PickerFilter)
			r.Get("/{id}", incidentsH.Get)
			r.Put("/{id}", incidentsH.Update)
		})

		r.Route("/actions", func(r chi.Router) {
			r.Get("/", actionsH.List)
			r.Post("/", actionsH.Create)
			r.Get("/{id}", actionsH.Get)
			r.Put("/{id}", actionsH.Update)
		})

		r.Get("/employees/{id}", lookupsH.GetEmployee)
		r.Get("/assets/{id}", lookupsH.GetAsset)

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", sitesH.List)
			r.Get("/{site}", sitesH.Get)
			r.Put("/{site}", sitesH.Upsert)
		})
		r.Get("/report-settings", sitesH.GetReportSettings)
		r.Put("/report-settings", sitesH.SaveReportSettings)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/safe-days", reportsH.SafeDays)
			r.Get("/injury-natures", reportsH.InjuryNatures)
		})

		r.Get("/dashboard/snapshot", dashboardH.Snapshot)

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", backupsH.List)
			r.Post("/", backupsH.Run)
		})
	})

	return r
}
