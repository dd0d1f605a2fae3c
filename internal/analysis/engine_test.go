package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FlashMonitor/internal/config"
	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/logging"
	"FlashMonitor/internal/ports"
	"FlashMonitor/internal/store"
)

const validReply = `标的：XAUUSD
方向：利好 置信度70
逻辑链：美联储按兵不动→实际利率预期下行→金价支撑
核心驱动：利率预期
关键风险：后续数据超预期转鹰
确认信号：DXY 走弱
技术面：XAUUSD RSI(14) 55`

type fakeAgent struct {
	replies  []ports.AgentReply
	errs     []error
	calls    int
	timeouts []time.Duration
}

func (f *fakeAgent) Invoke(_ context.Context, _ string, timeout time.Duration) (ports.AgentReply, error) {
	i := f.calls
	f.calls++
	f.timeouts = append(f.timeouts, timeout)
	var reply ports.AgentReply
	var err error
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return reply, err
}

func newTestEngine(t *testing.T, agent ports.AnalysisAgent) (*Engine, *store.StateStore) {
	t.Helper()
	logger := logging.NewWithWriter(os.Stderr, "error")
	states := store.NewStateStore(filepath.Join(t.TempDir(), "state.json"), logger)
	cfg := config.AnalysisConfig{
		AttemptSeconds: []int{90, 120},
		BackoffMillis:  900,
		FailThreshold:  5,
		CooldownMins:   5,
	}
	e := NewEngine(agent, states, cfg, logger)
	e.sleep = func(time.Duration) {}
	return e, states
}

func testItem() domain.FeedItem {
	return domain.FeedItem{
		Time:    "2024-01-01 09:00",
		Title:   "Fed holds rates",
		Content: "The Fed left rates unchanged ahead of the March meeting.",
	}
}

func TestAnalyzeSuccessResetsBreakerState(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{replies: []ports.AgentReply{{Text: validReply, Model: "main-model"}}}
	e, states := newTestEngine(t, agent)

	state := domain.OperationalState{AIFailConsecutive: 3}
	got := e.Analyze(context.Background(), testItem(), &state)

	if got == nil || got.Source != "main-model" || !strings.Contains(got.Text, "标的：") {
		t.Fatalf("unexpected result: %+v", got)
	}
	if state.AIFailConsecutive != 0 || !state.AIDisabledUntil.IsZero() {
		t.Fatalf("success must reset breaker state: %+v", state)
	}
	if persisted := states.Load(); persisted.AIFailConsecutive != 0 {
		t.Fatalf("state must be persisted on success")
	}
	if agent.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", agent.calls)
	}
}

func TestAnalyzeRetriesWithEscalatingTimeouts(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{
		replies: []ports.AgentReply{{}, {Text: validReply, Model: "m"}},
		errs:    []error{errors.New("transport down"), nil},
	}
	e, _ := newTestEngine(t, agent)

	state := domain.OperationalState{}
	got := e.Analyze(context.Background(), testItem(), &state)

	if got == nil {
		t.Fatalf("second attempt should have succeeded")
	}
	if agent.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", agent.calls)
	}
	if agent.timeouts[0] != 90*time.Second || agent.timeouts[1] != 120*time.Second {
		t.Fatalf("timeouts must escalate per attempt, got %v", agent.timeouts)
	}
}

func TestAnalyzeInvalidFormatTreatedAsFailure(t *testing.T) {
	t.Parallel()

	legacy := strings.Replace(validReply, "核心驱动：利率预期", "核心驱动：利率预期\n结论：看多", 1)
	agent := &fakeAgent{replies: []ports.AgentReply{
		{Text: "利好，黄金要涨"}, // missing labels entirely
		{Text: legacy, Model: "m"},
	}}
	e, _ := newTestEngine(t, agent)

	state := domain.OperationalState{}
	if got := e.Analyze(context.Background(), testItem(), &state); got != nil {
		t.Fatalf("replies violating the contract must not be returned: %+v", got)
	}
	if agent.calls != 2 {
		t.Fatalf("both attempts should be consumed, got %d", agent.calls)
	}
	if state.AIFailConsecutive != 1 {
		t.Fatalf("exhaustion must increment the consecutive counter, got %d", state.AIFailConsecutive)
	}
	if state.LastError == "" || state.LastErrorAt.IsZero() {
		t.Fatalf("exhaustion must record last-error: %+v", state)
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{errs: []error{errors.New("down"), errors.New("down")}}
	e, _ := newTestEngine(t, agent)

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	state := domain.OperationalState{AIFailConsecutive: 4}
	if got := e.Analyze(context.Background(), testItem(), &state); got != nil {
		t.Fatalf("expected nil on exhaustion")
	}
	if !state.AIDisabledUntil.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("breaker must open for the cooldown, got %v", state.AIDisabledUntil)
	}
	if state.AIFailConsecutive != 0 {
		t.Fatalf("opening the breaker resets the counter, got %d", state.AIFailConsecutive)
	}
}

func TestBreakerOpenSkipsInvocation(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{}
	e, _ := newTestEngine(t, agent)

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	state := domain.OperationalState{AIDisabledUntil: base.Add(time.Minute)}
	if got := e.Analyze(context.Background(), testItem(), &state); got != nil {
		t.Fatalf("open breaker must return nil")
	}
	if agent.calls != 0 {
		t.Fatalf("open breaker must not touch the agent, got %d calls", agent.calls)
	}
}

func TestBreakerClosesAfterCooldown(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{replies: []ports.AgentReply{{Text: validReply, Model: "m"}}}
	e, _ := newTestEngine(t, agent)

	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	state := domain.OperationalState{AIDisabledUntil: base.Add(-time.Second)}
	got := e.Analyze(context.Background(), testItem(), &state)

	if got == nil {
		t.Fatalf("elapsed cooldown must allow a fresh attempt")
	}
	if agent.calls != 1 {
		t.Fatalf("expected one attempt after cooldown, got %d", agent.calls)
	}
	if !state.AIDisabledUntil.IsZero() {
		t.Fatalf("success must clear the breaker, got %v", state.AIDisabledUntil)
	}
}

func TestAnalyzeEmptyContentSkipped(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{}
	e, _ := newTestEngine(t, agent)

	state := domain.OperationalState{}
	if got := e.Analyze(context.Background(), domain.FeedItem{Time: "09:00"}, &state); got != nil {
		t.Fatalf("empty content must not be analyzed")
	}
	if agent.calls != 0 {
		t.Fatalf("agent must not be invoked for empty content")
	}
}

func TestValidReply(t *testing.T) {
	t.Parallel()

	if !ValidReply(validReply) {
		t.Fatalf("canonical reply must validate")
	}
	if ValidReply("") {
		t.Fatalf("empty reply must not validate")
	}
	if ValidReply(strings.Replace(validReply, "方向：", "判断：", 1)) {
		t.Fatalf("missing required label must not validate")
	}
	if ValidReply(validReply + "\n关注：DXY") {
		t.Fatalf("legacy label must not validate")
	}
}

func TestBuildPromptEmbedsItem(t *testing.T) {
	t.Parallel()

	p := BuildPrompt(testItem())
	if !strings.Contains(p, "Fed holds rates The Fed left rates unchanged") {
		t.Fatalf("prompt must embed title and content: %q", p)
	}
	if !strings.Contains(p, "标的：") || !strings.Contains(p, "技术面：") {
		t.Fatalf("prompt must spell out the line contract")
	}
}
