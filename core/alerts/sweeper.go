package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sentinel-ehs/config"
	"sentinel-ehs/core/incidents"
	"sentinel-ehs/core/store"
	"sentinel-ehs/core/utils"
)

// Sweeper periodically persists overdue statuses and sends a digest of the
// actions flipped by the sweep. Without a webhook the sweep still runs; only
// delivery is skipped.
type Sweeper struct {
	cfg     config.AlertsConfig
	actions *incidents.ActionService
	sender  Sender
	logger  *utils.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewSweeper(cfg config.AlertsConfig, actions *incidents.ActionService, sender Sender, logger *utils.Logger) *Sweeper {
	return &Sweeper{cfg: cfg, actions: actions, sender: sender, logger: logger, now: time.Now}
}

func (s *Sweeper) StartWithContext(ctx context.Context) {
	if s == nil || s.actions == nil || !s.cfg.Enabled {
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		_ = s.RunOnce(runCtx)
		for {
			select {
			case <-ticker.C:
				_ = s.RunOnce(runCtx)
			case <-runCtx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) StopWithContext(ctx context.Context) error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	wasRunning := s.running
	s.mu.Unlock()
	if !wasRunning || cancel == nil {
		return nil
	}
	cancel()
	waitDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce sweeps and, when anything flipped, delivers the digest.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	flipped, err := s.actions.SweepOverdue(ctx)
	if err != nil {
		s.logger.Printf("overdue sweep failed: %v", err)
		return err
	}
	if len(flipped) == 0 || s.sender == nil || s.cfg.WebhookURL == "" {
		return nil
	}
	msg := Message{
		Subject: fmt.Sprintf("%d action(s) became overdue", len(flipped)),
		SentAt:  s.now().UTC().Format(time.RFC3339),
	}
	for _, act := range flipped {
		msg.Lines = append(msg.Lines, describeAction(act))
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Printf("overdue digest delivery failed: %v", err)
	}
	return nil
}

func describeAction(act store.Action) string {
	target := ""
	if act.TargetDate != nil {
		target = act.TargetDate.UTC().Format("2006-01-02")
	}
	if act.IncidentNumber != "" {
		return fmt.Sprintf("%s #%d (%s) target %s", act.IncidentNumber, act.Number, act.Site, target)
	}
	return fmt.Sprintf("%s #%d (%s) target %s", act.ActionCategory, act.Number, act.Site, target)
}
