package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// FeedItem is one observed news entry as scraped from the live feed.
// Time is the source-provided display string and is not assumed parseable.
type FeedItem struct {
	Time    string
	Title   string
	Content string
}

// fingerprintPrefixLen bounds how much content participates in the dedup key.
const fingerprintPrefixLen = 100

// Fingerprint derives the stable identity of an item across polls and
// restarts: SHA-1 over the display time plus the leading content runes.
func (f FeedItem) Fingerprint() string {
	content := f.Content
	if runes := []rune(content); len(runes) > fingerprintPrefixLen {
		content = string(runes[:fingerprintPrefixLen])
	}
	sum := sha1.Sum([]byte(f.Time + "|" + content))
	return hex.EncodeToString(sum[:])
}

// DedupTag classifies why an item was recorded without being notified.
type DedupTag string

const (
	TagNotified    DedupTag = ""
	TagAd          DedupTag = "ad"
	TagPlaceholder DedupTag = "placeholder"
)

// DedupEntry records the first observation of a fingerprint.
type DedupEntry struct {
	FirstSeenAt time.Time
	Tag         DedupTag
}

// OperationalState holds process-wide counters and the AI circuit-breaker
// sub-state. It is mutated only by the orchestrator task and persisted after
// every mutation.
type OperationalState struct {
	OK              int
	Fail            int
	ConsecutiveFail int

	LastSuccessAt time.Time
	LastPushAt    time.Time
	LastErrorAt   time.Time
	LastError     string

	AIFailConsecutive int
	AIDisabledUntil   time.Time
}

// RecordError stamps the failure fields in one step.
func (s *OperationalState) RecordError(now time.Time, msg string) {
	s.LastErrorAt = now
	s.LastError = msg
}

// AnalysisResult is the AI enrichment for a single item. Ephemeral; it lives
// only long enough to be rendered into the notification.
type AnalysisResult struct {
	Text   string
	Source string
}

// Advisory is the enumerated action label attached to a technical indicator.
type Advisory string

const (
	StrongSell Advisory = "Strong sell"
	Sell       Advisory = "Sell"
	Neutral    Advisory = "Neutral"
	Buy        Advisory = "Buy"
	StrongBuy  Advisory = "Strong buy"
)

// Bearish reports whether the advisory belongs to the sell family.
func (a Advisory) Bearish() bool { return a == Sell || a == StrongSell }

// Bullish reports whether the advisory belongs to the buy family.
func (a Advisory) Bullish() bool { return a == Buy || a == StrongBuy }

// TechnicalRow is one named indicator reading from the technicals source.
type TechnicalRow struct {
	Value  string
	Action Advisory
}
