package generate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/api"
)

// State is where a flow is in its submit cycle
type State int

const (
	StateIdle State = iota
	StateValidating
	StateRequesting
	StateDisplaying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRequesting:
		return "requesting"
	case StateDisplaying:
		return "displaying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Generator sends a generation request to the backend
type Generator interface {
	Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error)
}

// Stats summarises what a flow has produced so far
type Stats struct {
	Total  int
	LastAt time.Time
	Last   *Content
}

// Flow drives generation for one user. At most one request is in flight.
type Flow struct {
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	content *Content
	err     error
	stats   Stats
}

// NewFlow creates an idle flow
func NewFlow(logger zerolog.Logger) *Flow {
	return &Flow{
		logger: logger,
		now:    time.Now,
	}
}

// Submit validates form and, if it is complete, sends it with gen.
// Validation failures return a *ValidationError without a request.
// A 401 from the backend is returned unchanged.
func (f *Flow) Submit(ctx context.Context, gen Generator, form Form) (*Content, error) {
	f.mu.Lock()
	if f.state == StateRequesting {
		f.mu.Unlock()
		return nil, ErrInFlight
	}

	// A new submission discards whatever was displayed
	f.state = StateValidating
	f.content = nil
	f.err = nil

	form = form.Normalize()
	if err := form.Validate(); err != nil {
		f.state = StateIdle
		f.err = err
		f.mu.Unlock()
		return nil, err
	}
	f.state = StateRequesting
	f.mu.Unlock()

	start := f.now()
	content, err := f.request(ctx, gen, form)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateFailed
		f.err = err
		f.logger.Warn().
			Err(err).
			Str("subject", form.Subject).
			Str("grade", form.Grade).
			Dur("duration", f.now().Sub(start)).
			Msg("Content generation failed")
		return nil, err
	}

	f.state = StateDisplaying
	f.content = content
	f.stats.Total++
	f.stats.LastAt = content.GeneratedAt
	f.stats.Last = content
	f.logger.Info().
		Str("subject", form.Subject).
		Str("grade", form.Grade).
		Str("content_type", form.ContentType).
		Int64("request_id", content.RequestID).
		Dur("duration", f.now().Sub(start)).
		Msg("Content generated")
	return content, nil
}

func (f *Flow) request(ctx context.Context, gen Generator, form Form) (*Content, error) {
	resp, err := gen.Generate(ctx, form.request())
	if err != nil {
		return nil, err
	}
	if resp.Message == getOnlyMessage {
		return nil, ErrMisconfigured
	}
	if resp.Content == nil || resp.Content.Empty() {
		return nil, ErrEmptyContent
	}
	return newContent(form, resp, f.now()), nil
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Content returns what is being displayed, if anything
func (f *Flow) Content() (*Content, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content, f.content != nil
}

// Err returns the error of the last submission
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Check scores a selection against the displayed content
func (f *Flow) Check(selected int) (Verdict, error) {
	content, ok := f.Content()
	if !ok {
		return Verdict{}, ErrEmptyContent
	}
	return content.Check(selected)
}

// Reset returns the flow to idle and drops the displayed content.
// It has no effect while a request is in flight.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateRequesting {
		return
	}
	f.state = StateIdle
	f.content = nil
	f.err = nil
}

// Stats returns the totals for this flow
func (f *Flow) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
