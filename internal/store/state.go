package store

import (
	"log/slog"
	"time"

	"FlashMonitor/internal/domain"
)

// persistedState mirrors the state.json layout: unix milliseconds, null for
// instants that never happened.
type persistedState struct {
	OK                int    `json:"ok"`
	Fail              int    `json:"fail"`
	ConsecutiveFail   int    `json:"consecutiveFail"`
	LastSuccessAt     *int64 `json:"lastSuccessAt"`
	LastPushAt        *int64 `json:"lastPushAt"`
	LastErrorAt       *int64 `json:"lastErrorAt"`
	LastError         string `json:"lastError"`
	AIFailConsecutive int    `json:"aiFailConsecutive"`
	AIDisabledUntil   *int64 `json:"aiDisabledUntil"`
}

// StateStore persists the operational counters and breaker sub-state. Every
// mutation path saves immediately, so a crash loses at most the current
// item's progress.
type StateStore struct {
	path string
	log  *slog.Logger
}

// NewStateStore binds the store to its file path.
func NewStateStore(path string, logger *slog.Logger) *StateStore {
	return &StateStore{path: path, log: logger}
}

// Load returns the persisted state, or the default shape when the file is
// absent. A corrupt file also degrades to defaults, recording a diagnostic
// last-error so the condition is visible downstream.
func (s *StateStore) Load() domain.OperationalState {
	var raw persistedState
	ok, err := readJSON(s.path, &raw)
	if err != nil {
		s.log.Warn("state store unreadable, using defaults", "error", err)
		return domain.OperationalState{
			LastError:   "state file parse error",
			LastErrorAt: time.Now(),
		}
	}
	if !ok {
		return domain.OperationalState{}
	}

	return domain.OperationalState{
		OK:                raw.OK,
		Fail:              raw.Fail,
		ConsecutiveFail:   raw.ConsecutiveFail,
		LastSuccessAt:     fromMillis(raw.LastSuccessAt),
		LastPushAt:        fromMillis(raw.LastPushAt),
		LastErrorAt:       fromMillis(raw.LastErrorAt),
		LastError:         raw.LastError,
		AIFailConsecutive: raw.AIFailConsecutive,
		AIDisabledUntil:   fromMillis(raw.AIDisabledUntil),
	}
}

// Save rewrites the state record. Inability to write is logged, never fatal.
func (s *StateStore) Save(state domain.OperationalState) {
	raw := persistedState{
		OK:                state.OK,
		Fail:              state.Fail,
		ConsecutiveFail:   state.ConsecutiveFail,
		LastSuccessAt:     toMillis(state.LastSuccessAt),
		LastPushAt:        toMillis(state.LastPushAt),
		LastErrorAt:       toMillis(state.LastErrorAt),
		LastError:         state.LastError,
		AIFailConsecutive: state.AIFailConsecutive,
		AIDisabledUntil:   toMillis(state.AIDisabledUntil),
	}
	if err := writeJSONAtomic(s.path, raw); err != nil {
		s.log.Error("persist state store", "error", err)
	}
}

func toMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}
