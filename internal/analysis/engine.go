package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FlashMonitor/internal/config"
	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/ports"
	"FlashMonitor/internal/store"
)

// Engine runs the external analysis capability under a bounded retry policy
// with reply validation and a consecutive-failure circuit breaker. Analysis is
// strictly best-effort: Analyze returning nil never blocks notification.
type Engine struct {
	agent  ports.AnalysisAgent
	states *store.StateStore
	log    *slog.Logger

	attempts      []time.Duration
	backoffStep   time.Duration
	failThreshold int
	cooldown      time.Duration

	// Overridable for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewEngine wires the agent and the retry/breaker policy from config.
func NewEngine(agent ports.AnalysisAgent, states *store.StateStore, cfg config.AnalysisConfig, logger *slog.Logger) *Engine {
	return &Engine{
		agent:         agent,
		states:        states,
		log:           logger,
		attempts:      cfg.AttemptTimeouts(),
		backoffStep:   cfg.BackoffStep(),
		failThreshold: cfg.FailThreshold,
		cooldown:      cfg.Cooldown(),
		now:           time.Now,
		sleep:         time.Sleep,
	}
}

// Analyze produces the AI enrichment for one item, or nil when analysis is
// unavailable. The breaker sub-state inside state is mutated and persisted on
// every terminal outcome.
func (e *Engine) Analyze(ctx context.Context, item domain.FeedItem, state *domain.OperationalState) *domain.AnalysisResult {
	if item.Content == "" {
		return nil
	}

	now := e.now()
	if !state.AIDisabledUntil.IsZero() && now.Before(state.AIDisabledUntil) {
		e.log.Debug("analysis breaker open, skipping", "until", state.AIDisabledUntil)
		return nil
	}

	prompt := BuildPrompt(item)

	for i, timeout := range e.attempts {
		reply, err := e.attempt(ctx, prompt, timeout)
		if err != nil {
			e.log.Warn("analysis attempt failed", "attempt", i+1, "error", err)
			e.sleep(e.backoffStep + time.Duration(i)*e.backoffStep)
			continue
		}

		state.AIFailConsecutive = 0
		state.AIDisabledUntil = time.Time{}
		e.states.Save(*state)
		e.log.Info("analysis ok", "model", reply.Model)

		source := reply.Model
		if source == "" {
			source = "agent"
		}
		return &domain.AnalysisResult{Text: reply.Text, Source: source}
	}

	state.AIFailConsecutive++
	state.RecordError(e.now(), "analysis: all attempts failed")

	if state.AIFailConsecutive >= e.failThreshold {
		state.AIDisabledUntil = e.now().Add(e.cooldown)
		state.AIFailConsecutive = 0
		e.log.Warn("analysis breaker opened", "cooldown", e.cooldown)
	}
	e.states.Save(*state)

	return nil
}

// attempt performs one bounded invocation; a reply that fails validation is
// equivalent to a transport failure.
func (e *Engine) attempt(ctx context.Context, prompt string, timeout time.Duration) (ports.AgentReply, error) {
	reply, err := e.agent.Invoke(ctx, prompt, timeout)
	if err != nil {
		return ports.AgentReply{}, err
	}
	if !ValidReply(reply.Text) {
		return ports.AgentReply{}, fmt.Errorf("bad reply format (missing required labels or legacy labels present)")
	}
	return reply, nil
}
