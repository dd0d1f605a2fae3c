package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FlashMonitor/internal/compose"
	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/ports"
	"FlashMonitor/internal/store"
)

// Analyzer produces the best-effort AI enrichment for one item, mutating the
// breaker sub-state in place.
type Analyzer interface {
	Analyze(ctx context.Context, item domain.FeedItem, state *domain.OperationalState) *domain.AnalysisResult
}

// Enricher renders the technical summary for an analysis reply.
type Enricher interface {
	BuildSummary(ctx context.Context, analysisText string) string
}

// Classifier tags an item as ad, placeholder, or substantive.
type Classifier interface {
	Classify(item domain.FeedItem) domain.DedupTag
}

// MonitorDeps wires all collaborators into the poll orchestrator.
type MonitorDeps struct {
	Source     ports.FeedSource
	Notifier   ports.Notifier
	Dedup      *store.DedupStore
	States     *store.StateStore
	Classifier Classifier
	Analyzer   Analyzer
	Enricher   Enricher
	Logger     *slog.Logger
}

// Monitor drives the ingestion-dedup-enrichment-dispatch loop. All durable
// state is mutated by this single task only; items are processed sequentially
// in feed order so notification order stays stable and the analyzer's breaker
// state sees no concurrent access.
type Monitor struct {
	source     ports.FeedSource
	notifier   ports.Notifier
	dedup      *store.DedupStore
	states     *store.StateStore
	classifier Classifier
	analyzer   Analyzer
	enricher   Enricher
	log        *slog.Logger

	interval  time.Duration
	retention time.Duration
	state     domain.OperationalState

	// Overridable for tests.
	now       func() time.Time
	sleep     func(time.Duration)
	sendPause time.Duration
}

// NewMonitor constructs the orchestrator and loads the persisted state.
func NewMonitor(deps MonitorDeps, interval, retention time.Duration) *Monitor {
	return &Monitor{
		source:     deps.Source,
		notifier:   deps.Notifier,
		dedup:      deps.Dedup,
		states:     deps.States,
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
		enricher:   deps.Enricher,
		log:        deps.Logger,
		interval:   interval,
		retention:  retention,
		state:      deps.States.Load(),
		now:        time.Now,
		sleep:      time.Sleep,
		sendPause:  500 * time.Millisecond,
	}
}

// State returns a copy of the current operational state.
func (m *Monitor) State() domain.OperationalState { return m.state }

// Run executes iterations on the fixed interval until the context is
// cancelled. The interval does not change on failure; fault isolation keeps
// every error inside its iteration.
func (m *Monitor) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for loop := 1; ; loop++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.log.Info("poll", "iteration", loop)
		m.RunOnce(ctx)
		timer.Reset(m.interval)
	}
}

// RunOnce performs one full iteration with fault isolation: any error is
// recorded into the operational state and never terminates the process.
func (m *Monitor) RunOnce(ctx context.Context) {
	if err := m.iterate(ctx); err != nil {
		m.log.Error("iteration failed", "error", err)
		m.state.Fail++
		m.state.ConsecutiveFail++
		m.state.RecordError(m.now(), err.Error())
		m.states.Save(m.state)

		// The page may be closed or crashed; re-establish for the next tick.
		if rerr := m.source.Reacquire(ctx); rerr != nil {
			m.log.Error("page reacquire failed", "error", rerr)
		}
		return
	}

	m.state.OK++
	m.state.ConsecutiveFail = 0
	m.state.LastSuccessAt = m.now()
	m.states.Save(m.state)
}

func (m *Monitor) iterate(ctx context.Context) error {
	items, err := m.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	// The upstream page can render the same item twice in one snapshot;
	// dedup within the snapshot before consulting the store.
	seen := map[string]struct{}{}
	fresh := items[:0]
	for _, item := range items {
		fp := item.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		fresh = append(fresh, item)
	}
	m.log.Info("important items visible", "count", len(fresh))

	for _, item := range fresh {
		m.processItem(ctx, item)
	}

	if removed := m.dedup.GC(m.now(), m.retention); removed > 0 {
		m.log.Debug("dedup entries collected", "count", removed)
	}
	m.dedup.Save()

	return nil
}

// processItem runs one item through filter → analyze → enrich → compose →
// notify → commit. The dedup commit happens after the send attempt; send
// failure is logged but never blocks the commit (best-effort transport, and
// no second attempt is ever made).
func (m *Monitor) processItem(ctx context.Context, item domain.FeedItem) {
	fp := item.Fingerprint()

	if m.dedup.IsKnown(fp) {
		m.log.Debug("already seen", "time", item.Time, "title", clip(item.Title, 20))
		return
	}

	if tag := m.classifier.Classify(item); tag != domain.TagNotified {
		m.log.Info("filtered", "tag", string(tag), "time", item.Time, "title", clip(item.Title, 30))
		m.dedup.RecordSeen(fp, tag, m.now())
		m.dedup.Save()
		return
	}

	analysisRes := m.analyzer.Analyze(ctx, item, &m.state)
	analysisErr := ""
	analysisText := ""
	if analysisRes == nil {
		analysisErr = "暂不可用"
	} else {
		analysisText = analysisRes.Text
	}

	technical := m.enricher.BuildSummary(ctx, analysisText)

	msg := compose.Message(compose.Input{
		Item:             item,
		Analysis:         analysisRes,
		AnalysisError:    analysisErr,
		TechnicalSummary: technical,
	})
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.log.Warn("notify failed", "error", err)
	}
	m.state.LastPushAt = m.now()
	m.states.Save(m.state)
	m.sleep(m.sendPause)

	m.dedup.RecordSeen(fp, domain.TagNotified, m.now())
	m.dedup.Save()
	m.log.Info("notified", "time", item.Time, "title", clip(item.Title, 30))
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
