package agentcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"FlashMonitor/internal/ports"
)

// Runner invokes the external analysis agent as a subprocess. The session id
// pins the prompt contract: it is bumped whenever the contract changes so the
// agent cannot replay stale in-session formatting.
type Runner struct {
	bin     string
	session string
	log     *slog.Logger
}

var _ ports.AnalysisAgent = (*Runner)(nil)

// NewRunner binds the agent binary path and session identifier.
func NewRunner(bin, session string, logger *slog.Logger) *Runner {
	return &Runner{bin: bin, session: session, log: logger}
}

// reply mirrors the agent's --json output shape.
type reply struct {
	Result struct {
		Payloads []struct {
			Text string `json:"text"`
		} `json:"payloads"`
		Meta struct {
			AgentMeta struct {
				Model string `json:"model"`
			} `json:"agentMeta"`
			SystemPromptReport struct {
				Model string `json:"model"`
			} `json:"systemPromptReport"`
		} `json:"meta"`
	} `json:"result"`
}

// Invoke runs one bounded agent call and parses the JSON reply.
func (r *Runner) Invoke(ctx context.Context, prompt string, timeout time.Duration) (ports.AgentReply, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.log.Debug("invoking agent", "session", r.session, "timeout", timeout)

	args := []string{
		"agent",
		"--session-id", r.session,
		"--channel", "last",
		"--message", prompt,
		"--json",
		"--timeout", strconv.Itoa(int(math.Ceil(timeout.Seconds()))),
	}

	cmd := exec.CommandContext(runCtx, r.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return ports.AgentReply{}, fmt.Errorf("agent: %s", msg)
		}
		return ports.AgentReply{}, fmt.Errorf("agent: %w", err)
	}

	var out reply
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return ports.AgentReply{}, fmt.Errorf("agent json parse: %w", err)
	}

	if len(out.Result.Payloads) == 0 || strings.TrimSpace(out.Result.Payloads[0].Text) == "" {
		return ports.AgentReply{}, fmt.Errorf("bad agent response: no payload text")
	}

	model := out.Result.Meta.AgentMeta.Model
	if model == "" {
		model = out.Result.Meta.SystemPromptReport.Model
	}
	return ports.AgentReply{
		Text:  strings.TrimSpace(out.Result.Payloads[0].Text),
		Model: model,
	}, nil
}
