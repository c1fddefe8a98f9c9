package server

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/quizgen-dev/quizgen/internal/generate"
)

// flowRegistry keeps one generation flow per user for the life of the
// process, so a user has at most one generation in flight
type flowRegistry struct {
	logger zerolog.Logger

	mu    sync.Mutex
	flows map[string]*generate.Flow
}

func newFlowRegistry(logger zerolog.Logger) *flowRegistry {
	return &flowRegistry{
		logger: logger,
		flows:  make(map[string]*generate.Flow),
	}
}

// For returns the flow for a session key, creating it on first use
func (r *flowRegistry) For(key string) *generate.Flow {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[key]
	if !ok {
		flow = generate.NewFlow(r.logger.With().Str("user", key).Logger())
		r.flows[key] = flow
	}
	return flow
}

// Stats returns the totals for a session key without creating a flow
func (r *flowRegistry) Stats(key string) generate.Stats {
	r.mu.Lock()
	flow, ok := r.flows[key]
	r.mu.Unlock()
	if !ok {
		return generate.Stats{}
	}
	return flow.Stats()
}
