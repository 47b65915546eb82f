package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/events"
	"github.com/itops/support-portal/internal/repository"
	"github.com/itops/support-portal/internal/service"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

const sweepBatchSize = 200

// Scheduler runs the periodic lifecycle sweeps: auto-closing resolved
// tickets past the grace period and flagging SLA breaches. Sweeps go
// through the lifecycle engine as the system actor, so every automated
// close lands in the audit ledger like any other transition.
type Scheduler struct {
	cron       *cron.Cron
	lifecycle  *service.LifecycleService
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.SchedulerConfig
	lifecycleC config.LifecycleConfig
	now        func() time.Time

	// breachedSeen suppresses repeat SLA-breach events between
	// restarts of the sweep. cron fires each run on its own goroutine,
	// so a slow sweep can overlap the next one; mu guards the map.
	mu           sync.Mutex
	breachedSeen map[string]struct{}
}

func New(
	lifecycle *service.LifecycleService,
	tickets repository.TicketRepository,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
	lifecycleCfg config.LifecycleConfig,
	clock func() time.Time,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		cron:         cron.New(),
		lifecycle:    lifecycle,
		tickets:      tickets,
		dispatcher:   dispatcher,
		logger:       logger,
		cfg:          cfg,
		lifecycleC:   lifecycleCfg,
		now:          clock,
		breachedSeen: make(map[string]struct{}),
	}
}

// Start registers the sweeps and launches the cron runner.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.AutoCloseSpec, func() {
		s.RunAutoClose(ctx)
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.SLASweepSpec, func() {
		s.RunSLASweep(ctx)
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("auto_close", s.cfg.AutoCloseSpec),
		zap.String("sla_sweep", s.cfg.SLASweepSpec))
	return nil
}

// Stop halts the cron runner and waits for in-flight sweeps.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunAutoClose closes resolved tickets the requester has not touched
// within the grace period. Conflicts and races with concurrent users
// are skipped; the next run picks up whatever remains.
func (s *Scheduler) RunAutoClose(ctx context.Context) {
	cutoff := s.now().Add(-s.lifecycleC.CloseGrace())
	candidates, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:  []domain.TicketStatus{domain.TicketStatusResolved},
		UpdatedTo: &cutoff,
		Limit:     sweepBatchSize,
	})
	if err != nil {
		s.logger.Error("auto-close sweep query failed", zap.Error(err))
		return
	}

	actor := domain.SystemActor()
	closed := 0
	for _, ticket := range candidates {
		_, err := s.lifecycle.Transition(ctx, actor, service.TransitionInput{
			TicketID:       ticket.ID,
			ExpectedStatus: domain.TicketStatusResolved,
			NewStatus:      domain.TicketStatusClosed,
		})
		switch {
		case err == nil:
			closed++
		case apperrors.IsCode(err, apperrors.CodeConflict),
			apperrors.IsCode(err, apperrors.CodeInvalidTransition),
			apperrors.IsCode(err, apperrors.CodeNotFound):
			// Someone got there first; not an error.
		default:
			s.logger.Warn("auto-close failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	if len(candidates) > 0 {
		s.logger.Info("auto-close sweep finished",
			zap.Int("candidates", len(candidates)), zap.Int("closed", closed))
	}
}

// RunSLASweep emits one breach event per ticket that crosses its due
// date while still open.
func (s *Scheduler) RunSLASweep(ctx context.Context) {
	open, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusResolved,
		},
	})
	if err != nil {
		s.logger.Error("sla sweep query failed", zap.Error(err))
		return
	}

	now := s.now()
	breached := 0
	for _, ticket := range open {
		if ticket.SLAStateAt(now) != domain.SLABreached {
			s.forgetBreach(ticket.ID)
			continue
		}
		if !s.markBreach(ticket.ID) {
			continue
		}
		breached++
		if s.dispatcher != nil {
			_ = s.dispatcher.Publish(ctx, events.Event{
				Type:      events.EventTicketSLABreached,
				TicketID:  ticket.ID,
				Actor:     events.Actor{Role: domain.RoleAdmin},
				Timestamp: now,
				Payload: events.TicketSLABreachedPayload{
					ExternalKey: ticket.ExternalKey,
					State:       domain.SLABreached,
					DueDate:     ticket.DueDate,
				},
			})
		}
	}
	if breached > 0 {
		s.logger.Info("sla sweep finished", zap.Int("newly_breached", breached))
	}
}

// markBreach records a breached ticket and reports whether it is new.
func (s *Scheduler) markBreach(ticketID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.breachedSeen[ticketID]; seen {
		return false
	}
	s.breachedSeen[ticketID] = struct{}{}
	return true
}

func (s *Scheduler) forgetBreach(ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.breachedSeen, ticketID)
}
