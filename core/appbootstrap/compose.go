package appbootstrap

import (
	"database/sql"

	"sentinel-ehs/api"
	"sentinel-ehs/config"
	"sentinel-ehs/core/alerts"
	"sentinel-ehs/core/backups"
	"sentinel-ehs/core/dashboard"
	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/reports"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []api.BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	audits := store.NewAuditStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	actionsStore := store.NewActionsStore(db)
	employees := store.NewEmployeesStore(db)
	assets := store.NewAssetsStore(db)
	sites := store.NewSitesStore(db)

	incidentsSvc := incidents.NewService(incidentsStore, employees, assets, audits, cfg.Incidents.NumberFormat, logger)
	incidentsSvc.ConfigureRegisterFormat(cfg.Incidents.RegisterFormat)
	actionsSvc := incidents.NewActionService(actionsStore, incidentsStore, audits, logger)
	safeDaysSvc := reports.NewSafeDaysService(incidentsStore, sites, cfg.Reports.SafeDaysLookbackDays)
	injuriesSvc := reports.NewInjuryNatureService(incidentsStore)
	refresher := dashboard.NewRefresher(cfg.Dashboard, safeDaysSvc, sites, logger)

	backupsSvc := backups.NewService(cfg, db, audits, logger)
	backupsScheduler := backups.NewScheduler(cfg.Backups, backupsSvc)
	sweeper := alerts.NewSweeper(cfg.Alerts, actionsSvc, alerts.NewHTTPWebhookSender(cfg.Alerts.WebhookURL), logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			IncidentsSvc: incidentsSvc,
			ActionsSvc:   actionsSvc,
			Employees:    employees,
			Assets:       assets,
			Sites:        sites,
			Audits:       audits,
			SafeDays:     safeDaysSvc,
			Injuries:     injuriesSvc,
			Dashboard:    refresher,
			Backups:      backupsSvc,
		},
		workers: []api.BackgroundWorker{refresher, backupsScheduler, sweeper},
	}, nil
}
