package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/logging"
)

func TestDedupRecordAndLookup(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dedup.json")
	logger := logging.NewWithWriter(os.Stderr, "error")
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	s := LoadDedup(path, logger)
	if s.IsKnown("abc") {
		t.Fatalf("empty store must not know anything")
	}

	s.RecordSeen("abc", domain.TagNotified, now)
	s.RecordSeen("def", domain.TagAd, now)
	s.Save()

	reloaded := LoadDedup(path, logger)
	if !reloaded.IsKnown("abc") || !reloaded.IsKnown("def") {
		t.Fatalf("entries must survive reload")
	}

	entry, ok := reloaded.Entry("def")
	if !ok || entry.Tag != domain.TagAd {
		t.Fatalf("expected ad tag, got %+v %v", entry, ok)
	}
	if !entry.FirstSeenAt.Equal(now) {
		t.Fatalf("first-seen timestamp lost: %v", entry.FirstSeenAt)
	}

	entry, _ = reloaded.Entry("abc")
	if entry.Tag != domain.TagNotified {
		t.Fatalf("notified entries carry no tag, got %q", entry.Tag)
	}
}

func TestDedupNotifiedEntryOmitsTagOnDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dedup.json")
	logger := logging.NewWithWriter(os.Stderr, "error")

	s := LoadDedup(path, logger)
	s.RecordSeen("abc", domain.TagNotified, time.Now())
	s.Save()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var decoded map[string]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, hasTag := decoded["abc"]["tag"]; hasTag {
		t.Fatalf("notified entries must not serialize a tag field: %s", raw)
	}
}

func TestDedupGC(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dedup.json")
	logger := logging.NewWithWriter(os.Stderr, "error")
	now := time.Now()

	s := LoadDedup(path, logger)
	s.RecordSeen("old", domain.TagNotified, now.Add(-73*time.Hour))
	s.RecordSeen("fresh", domain.TagNotified, now.Add(-time.Hour))

	removed := s.GC(now, 72*time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 collected entry, got %d", removed)
	}
	if s.IsKnown("old") {
		t.Fatalf("expired fingerprint must be reprocessable")
	}
	if !s.IsKnown("fresh") {
		t.Fatalf("fresh fingerprint collected prematurely")
	}
}

func TestDedupCorruptFileDegradesToEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dedup.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	s := LoadDedup(path, logging.NewWithWriter(os.Stderr, "error"))
	if s.Len() != 0 {
		t.Fatalf("corrupt store must degrade to empty, got %d entries", s.Len())
	}
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	logger := logging.NewWithWriter(os.Stderr, "error")
	s := NewStateStore(path, logger)

	now := time.Now().Truncate(time.Millisecond)
	state := domain.OperationalState{
		OK:                7,
		Fail:              2,
		ConsecutiveFail:   1,
		LastSuccessAt:     now.Add(-time.Minute),
		LastErrorAt:       now,
		LastError:         "scrape: page gone",
		AIFailConsecutive: 3,
		AIDisabledUntil:   now.Add(5 * time.Minute),
	}
	s.Save(state)

	got := s.Load()
	if got.OK != 7 || got.Fail != 2 || got.ConsecutiveFail != 1 {
		t.Fatalf("counters lost: %+v", got)
	}
	if got.LastError != "scrape: page gone" || !got.LastErrorAt.Equal(state.LastErrorAt) {
		t.Fatalf("error fields lost: %+v", got)
	}
	if got.AIFailConsecutive != 3 || !got.AIDisabledUntil.Equal(state.AIDisabledUntil) {
		t.Fatalf("breaker fields lost: %+v", got)
	}
	if !got.LastPushAt.IsZero() {
		t.Fatalf("unset instants must stay zero, got %v", got.LastPushAt)
	}
}

func TestStateMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	s := NewStateStore(filepath.Join(t.TempDir(), "state.json"), logging.NewWithWriter(os.Stderr, "error"))
	got := s.Load()
	if got.OK != 0 || got.LastError != "" || !got.AIDisabledUntil.IsZero() {
		t.Fatalf("expected zero-value defaults, got %+v", got)
	}
}

func TestStateCorruptFileRecordsDiagnostic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	got := NewStateStore(path, logging.NewWithWriter(os.Stderr, "error")).Load()
	if got.LastError != "state file parse error" {
		t.Fatalf("corrupt state must surface a diagnostic, got %+v", got)
	}
	if got.LastErrorAt.IsZero() {
		t.Fatalf("diagnostic must carry an instant")
	}
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "dedup.json")
	s := LoadDedup(path, logging.NewWithWriter(os.Stderr, "error"))
	s.RecordSeen("abc", domain.TagNotified, time.Now())
	s.Save()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "dedup.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
