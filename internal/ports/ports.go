package ports

import (
	"context"
	"time"

	"FlashMonitor/internal/domain"
)

// FeedSource produces the currently-visible important items in feed order.
type FeedSource interface {
	// Snapshot returns the visible items; it may fail on navigation/DOM
	// errors, in which case the orchestrator calls Reacquire before the next
	// tick retries.
	Snapshot(ctx context.Context) ([]domain.FeedItem, error)
	// Reacquire drops the current page context and establishes a fresh one.
	Reacquire(ctx context.Context) error
}

// AgentReply is the raw outcome of one analysis-agent invocation.
type AgentReply struct {
	Text  string
	Model string
}

// AnalysisAgent invokes the external analysis capability once. Retry,
// validation, and circuit breaking live above this boundary so the transport
// (local CLI, RPC, HTTP) stays swappable.
type AnalysisAgent interface {
	Invoke(ctx context.Context, prompt string, timeout time.Duration) (AgentReply, error)
}

// TechnicalsSource returns raw tabular text rows for a canonical market symbol.
type TechnicalsSource interface {
	Rows(ctx context.Context, symbol string) ([]string, error)
}

// Notifier delivers one composed message; best-effort, no delivery confirmation.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
