package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"FlashMonitor/internal/config"
	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/ports"
)

// extractJS collects the currently-visible important flash items. Only items
// flagged is-important by the page are reported.
const extractJS = `(() => {
	const out = [];
	document.querySelectorAll('.jin-flash-item-container').forEach(el => {
		const fi = el.querySelector('.jin-flash-item');
		if (!fi || !fi.classList.contains('is-important')) return;
		const te = el.querySelector('.item-time');
		const ti = el.querySelector('.right-common-title');
		const co = el.querySelector('.right-content');
		if (!co) return;
		out.push({
			time: te ? te.textContent.trim() : '',
			title: ti ? ti.textContent.trim() : '',
			content: co.textContent.trim(),
		});
	});
	return out;
})()`

type scrapedItem struct {
	Time    string `json:"time"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Jin10 owns one headless browser tab kept on the feed page. The tab is used
// exclusively by the orchestrator task and recreated, never shared, when it
// becomes unusable.
type Jin10 struct {
	url         string
	loadTimeout time.Duration
	settle      time.Duration
	log         *slog.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
}

var _ ports.FeedSource = (*Jin10)(nil)

// NewJin10 builds the scraper; Start must run before the first Snapshot.
func NewJin10(cfg config.FeedConfig, logger *slog.Logger) *Jin10 {
	return &Jin10{
		url:         cfg.URL,
		loadTimeout: cfg.LoadTimeout(),
		settle:      cfg.SettleDelay(),
		log:         logger,
	}
}

// Start launches the headless browser and loads the feed page.
func (s *Jin10) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	return s.Reacquire(ctx)
}

// Snapshot evaluates the extraction script against the live page.
func (s *Jin10) Snapshot(ctx context.Context) ([]domain.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.tab == nil || s.tab.Err() != nil {
		if err := s.Reacquire(ctx); err != nil {
			return nil, err
		}
	}

	runCtx, cancel := context.WithTimeout(s.tab, s.loadTimeout)
	defer cancel()

	var raw []scrapedItem
	if err := chromedp.Run(runCtx, chromedp.Evaluate(extractJS, &raw)); err != nil {
		return nil, fmt.Errorf("evaluate feed page: %w", err)
	}

	items := make([]domain.FeedItem, 0, len(raw))
	for _, r := range raw {
		if r.Content == "" {
			continue
		}
		items = append(items, domain.FeedItem{Time: r.Time, Title: r.Title, Content: r.Content})
	}
	return items, nil
}

// Reacquire drops the current tab and opens a fresh one on the feed page.
func (s *Jin10) Reacquire(ctx context.Context) error {
	if s.allocCtx == nil {
		return fmt.Errorf("scraper not started")
	}
	if s.tabCancel != nil {
		s.tabCancel()
	}
	s.log.Info("acquiring feed page", "url", s.url)
	s.tab, s.tabCancel = chromedp.NewContext(s.allocCtx)

	navCtx, cancel := context.WithTimeout(s.tab, s.loadTimeout)
	defer cancel()
	if err := chromedp.Run(navCtx,
		chromedp.Navigate(s.url),
		chromedp.Sleep(s.settle),
	); err != nil {
		return fmt.Errorf("load feed page: %w", err)
	}
	return nil
}

// Close tears down the tab and the browser process.
func (s *Jin10) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
