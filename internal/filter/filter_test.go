package filter

import (
	"testing"

	"FlashMonitor/internal/domain"
)

var defaultAds = []string{
	`\d+折.*VIP`,
	`VIP[·\s]*\d*折`,
	`限时`,
	`优惠`,
	`立即抢购`,
	`猜金价`,
}

var defaultPlaceholders = []string{
	`点击查看`,
	`查看更多`,
	`展开全文`,
}

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(defaultAds, defaultPlaceholders)
	if err != nil {
		t.Fatalf("compile patterns: %v", err)
	}
	return c
}

func TestClassifyAd(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	items := []domain.FeedItem{
		{Title: "金十VIP 5折优惠", Content: "活动进行中"},
		{Content: "限时特价，立即抢购"},
		{Content: "快来猜金价赢大奖"},
	}
	for _, item := range items {
		if got := c.Classify(item); got != domain.TagAd {
			t.Fatalf("%q: expected ad, got %q", item.Content, got)
		}
	}
}

func TestClassifyPlaceholder(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	item := domain.FeedItem{Time: "09:00", Content: "重要数据公布，点击查看详情"}
	if got := c.Classify(item); got != domain.TagPlaceholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestClassifySubstantive(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	item := domain.FeedItem{
		Time:    "2024-01-01 09:00",
		Title:   "Fed holds rates",
		Content: "The Fed left rates unchanged ahead of the March meeting.",
	}
	if got := c.Classify(item); got != domain.TagNotified {
		t.Fatalf("substantive item misclassified as %q", got)
	}
}

func TestAdWinsOverPlaceholder(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	item := domain.FeedItem{Content: "限时优惠，点击查看"}
	if got := c.Classify(item); got != domain.TagAd {
		t.Fatalf("ad filter must run first, got %q", got)
	}
}

func TestClassifyMatchesTitleToo(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	item := domain.FeedItem{Title: "点击查看", Content: "正文"}
	if got := c.Classify(item); got != domain.TagPlaceholder {
		t.Fatalf("title must participate in matching, got %q", got)
	}
}

func TestClassifyIsPure(t *testing.T) {
	t.Parallel()

	c := newClassifier(t)
	item := domain.FeedItem{Content: "限时优惠"}
	first := c.Classify(item)
	for i := 0; i < 5; i++ {
		if got := c.Classify(item); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, got)
		}
	}
}

func TestBrokenPatternFailsConstruction(t *testing.T) {
	t.Parallel()

	if _, err := New([]string{`(`}, nil); err == nil {
		t.Fatalf("invalid pattern must fail construction")
	}
}
