package incidents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentinel-ehs/core/classify"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

// StatusComplete is the only status that stops overdue enforcement once the
// target date has passed.
const StatusComplete = "Complete: Action have been closed and Non-Conformance rectified"

// StatusOverdue is stamped onto any open action whose target date lies in the
// past.
const StatusOverdue = "Overdue"

var (
	ErrActionKindRequired     = errors.New("select either reactive or proactive actions taken")
	ErrActionCategoryRequired = errors.New("action category is required for proactive actions")
)

// ActionService tracks corrective actions raised against incidents (reactive)
// or standalone observations (proactive).
type ActionService struct {
	actions   store.ActionsStore
	incidents store.IncidentsStore
	audits    store.AuditStore
	logger    *utils.Logger
	now       func() time.Time
}

func NewActionService(actions store.ActionsStore, incidents store.IncidentsStore, audits store.AuditStore, logger *utils.Logger) *ActionService {
	return &ActionService{
		actions:   actions,
		incidents: incidents,
		audits:    audits,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates the reactive/proactive selection, pulls shared fields from
// the source incident, derives the month, applies overdue enforcement, and
// persists. The per-scope action number is allocated inside the store
// transaction.
func (s *ActionService) Create(ctx context.Context, act *store.Action, actor string) error {
	switch {
	case act.Reactive:
	case act.Proactive:
		if act.ActionCategory == "" {
			return ErrActionCategoryRequired
		}
	default:
		return ErrActionKindRequired
	}

	if err := s.populateFromIncident(ctx, act); err != nil {
		return err
	}
	s.deriveMonth(act)
	s.enforceOverdue(act)

	if err := s.actions.CreateAction(ctx, act); err != nil {
		return fmt.Errorf("create action: %w", err)
	}
	s.audit(ctx, actor, "action.create", fmt.Sprintf("%s #%d", act.IncidentNumber, act.Number))
	return nil
}

// Update re-derives month and overdue status before persisting under
// optimistic versioning. The action number never changes.
func (s *ActionService) Update(ctx context.Context, act *store.Action, actor string) error {
	if err := s.populateFromIncident(ctx, act); err != nil {
		return err
	}
	s.deriveMonth(act)
	s.enforceOverdue(act)
	if err := s.actions.UpdateAction(ctx, act); err != nil {
		return err
	}
	s.audit(ctx, actor, "action.update", fmt.Sprintf("%s #%d", act.IncidentNumber, act.Number))
	return nil
}

// List applies overdue enforcement on the read path so a stale stored status
// never reaches the caller.
func (s *ActionService) List(ctx context.Context, filter store.ActionFilter) ([]store.Action, error) {
	list, err := s.actions.ListActions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range list {
		s.enforceOverdue(&list[i])
	}
	return list, nil
}

func (s *ActionService) Get(ctx context.Context, id int64) (*store.Action, error) {
	act, err := s.actions.GetAction(ctx, id)
	if err != nil || act == nil {
		return act, err
	}
	s.enforceOverdue(act)
	return act, nil
}

// SweepOverdue persists the overdue status for every open action whose target
// date has passed, returning the actions flipped by this sweep. Read-path
// enforcement keeps callers honest between sweeps; this makes the stored rows
// match.
func (s *ActionService) SweepOverdue(ctx context.Context) ([]store.Action, error) {
	list, err := s.actions.ListActions(ctx, store.ActionFilter{})
	if err != nil {
		return nil, err
	}
	var flipped []store.Action
	for i := range list {
		act := list[i]
		if act.Status == StatusOverdue || act.Status == StatusComplete {
			continue
		}
		before := act.Status
		s.enforceOverdue(&act)
		if act.Status == before {
			continue
		}
		if err := s.actions.UpdateAction(ctx, &act); err != nil {
			// A concurrent edit wins; the next sweep catches the row again.
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return flipped, err
		}
		s.audit(ctx, "system", "action.overdue", fmt.Sprintf("%s #%d", act.IncidentNumber, act.Number))
		flipped = append(flipped, act)
	}
	return flipped, nil
}

// populateFromIncident copies shared fields from the referenced incident onto
// a reactive action. Missing incidents are a no-op, matching the directory
// population contract.
func (s *ActionService) populateFromIncident(ctx context.Context, act *store.Action) error {
	if !act.Reactive || act.IncidentNumber == "" {
		return nil
	}
	inc, err := s.incidents.GetIncidentByNumber(ctx, act.IncidentNumber)
	if err != nil {
		return err
	}
	if inc == nil {
		return nil
	}
	if !inc.OccurredAt.IsZero() {
		act.ActionDate = inc.OccurredAt.UTC().Truncate(24 * time.Hour)
	}
	act.Site = inc.Site
	act.Area = inc.LocationOnSite
	if cat, ok := classify.ParseCategory(inc.Category); ok {
		act.NonConformance = cat.Label()
	}
	return nil
}

func (s *ActionService) deriveMonth(act *store.Action) {
	if act.ActionDate.IsZero() {
		return
	}
	act.Month = act.ActionDate.UTC().Format("January")
}

func (s *ActionService) enforceOverdue(act *store.Action) {
	if act.TargetDate == nil || act.Status == StatusComplete {
		return
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	target := act.TargetDate.UTC().Truncate(24 * time.Hour)
	if today.After(target) {
		act.Status = StatusOverdue
	}
}

func (s *ActionService) audit(ctx context.Context, actor, action, details string) {
	if s.audits == nil {
		return
	}
	rec := store.AuditRecord{Actor: actor, Action: action, Details: details}
	if err := s.audits.Append(ctx, &rec); err != nil {
		s.logger.Printf("audit append failed for %s: %v", action, err)
	}
}
