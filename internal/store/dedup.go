package store

import (
	"log/slog"
	"time"

	"FlashMonitor/internal/domain"
)

// dedupRecord is the on-disk shape: first-seen unix milliseconds plus an
// optional classification tag.
type dedupRecord struct {
	TS  int64           `json:"ts"`
	Tag domain.DedupTag `json:"tag,omitempty"`
}

// DedupStore is the persistent fingerprint table behind the exactly-once
// guarantee. It is loaded fully at start and rewritten fully on Save.
type DedupStore struct {
	path    string
	entries map[string]dedupRecord
	log     *slog.Logger
}

// LoadDedup reads the table from disk. A corrupt or unreadable file degrades
// to an empty table: possible re-notification after restart is the accepted
// trade-off, halting the process is not.
func LoadDedup(path string, logger *slog.Logger) *DedupStore {
	s := &DedupStore{path: path, entries: map[string]dedupRecord{}, log: logger}

	var raw map[string]dedupRecord
	if ok, err := readJSON(path, &raw); err != nil {
		logger.Warn("dedup store unreadable, starting empty", "error", err)
	} else if ok {
		s.entries = raw
	}
	return s
}

// IsKnown reports whether the fingerprint has been recorded.
func (s *DedupStore) IsKnown(fingerprint string) bool {
	_, ok := s.entries[fingerprint]
	return ok
}

// Entry returns the recorded entry for a fingerprint, if present.
func (s *DedupStore) Entry(fingerprint string) (domain.DedupEntry, bool) {
	rec, ok := s.entries[fingerprint]
	if !ok {
		return domain.DedupEntry{}, false
	}
	return domain.DedupEntry{FirstSeenAt: time.UnixMilli(rec.TS), Tag: rec.Tag}, true
}

// RecordSeen marks a fingerprint as observed. An empty tag means the item was
// notified; tagged entries were filtered but still count as seen.
func (s *DedupStore) RecordSeen(fingerprint string, tag domain.DedupTag, now time.Time) {
	s.entries[fingerprint] = dedupRecord{TS: now.UnixMilli(), Tag: tag}
}

// GC drops entries older than the retention horizon. A collected fingerprint
// may legitimately be re-notified if it reappears in the live feed.
func (s *DedupStore) GC(now time.Time, retention time.Duration) int {
	cut := now.Add(-retention).UnixMilli()
	removed := 0
	for fp, rec := range s.entries {
		if rec.TS <= cut {
			delete(s.entries, fp)
			removed++
		}
	}
	return removed
}

// Len returns the number of recorded fingerprints.
func (s *DedupStore) Len() int { return len(s.entries) }

// Save rewrites the table. Failures are logged, never fatal: losing the file
// re-opens the restart re-notification window, nothing worse.
func (s *DedupStore) Save() {
	if err := writeJSONAtomic(s.path, s.entries); err != nil {
		s.log.Error("persist dedup store", "error", err)
	}
}
