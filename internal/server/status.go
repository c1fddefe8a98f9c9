package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
)

const statusProbeTimeout = 15 * time.Second

// AIProber checks the backend's connection to its language model
type AIProber interface {
	TestAI(ctx context.Context) (*api.AIStatus, error)
}

// AIStatusView is the last probe result as shown on the dashboard
type AIStatusView struct {
	Checked   bool
	OK        bool
	Message   string
	Models    []string
	CheckedAt time.Time
}

// statusProbe polls the backend's test-ai endpoint on a cron schedule
type statusProbe struct {
	prober AIProber
	logger zerolog.Logger
	cron   *cron.Cron

	mu   sync.RWMutex
	last AIStatusView
}

func newStatusProbe(prober AIProber, schedule string, logger zerolog.Logger) (*statusProbe, error) {
	p := &statusProbe{
		prober: prober,
		logger: logger.With().Str("component", "ai_status").Logger(),
		cron:   cron.New(),
	}

	if schedule == "" {
		return p, nil
	}
	if _, err := p.cron.AddFunc(schedule, func() { p.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid AI_STATUS_SCHEDULE %q: %w", schedule, err)
	}
	return p, nil
}

// Start runs one probe immediately and then follows the schedule
func (p *statusProbe) Start() {
	go p.Run(context.Background())
	p.cron.Start()
}

// Stop waits for a running probe to finish
func (p *statusProbe) Stop() {
	<-p.cron.Stop().Done()
}

// Run probes the backend once and records the result
func (p *statusProbe) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	view := AIStatusView{Checked: true, CheckedAt: time.Now()}
	status, err := p.prober.TestAI(ctx)
	if err != nil {
		view.Message = "Backend unreachable"
		if msg := api.ServerMessage(err); msg != "" {
			view.Message = msg
		}
		p.logger.Warn().Err(err).Msg("AI status probe failed")
	} else {
		view.OK = status.OK()
		view.Message = status.Message
		for _, m := range status.Models {
			view.Models = append(view.Models, m.Name)
		}
		p.logger.Debug().Bool("ok", view.OK).Strs("models", view.Models).Msg("AI status probed")
	}

	p.mu.Lock()
	p.last = view
	p.mu.Unlock()
}

// Last returns the most recent result; Checked is false before the first probe
func (p *statusProbe) Last() AIStatusView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}
