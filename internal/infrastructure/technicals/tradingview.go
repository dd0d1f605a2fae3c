package technicals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"FlashMonitor/internal/config"
	"FlashMonitor/internal/ports"
	"FlashMonitor/internal/technical"
)

// TradingView fetches indicator tables from symbol technicals pages. Each
// fetch launches a short-lived headless browser; the pages are JS-rendered,
// so a plain HTTP GET would see empty tables.
type TradingView struct {
	loadTimeout time.Duration
	settle      time.Duration
	log         *slog.Logger
}

var _ ports.TechnicalsSource = (*TradingView)(nil)

// NewTradingView builds the fetcher from config timings.
func NewTradingView(cfg config.TechnicalsConfig, logger *slog.Logger) *TradingView {
	return &TradingView{
		loadTimeout: cfg.LoadTimeout(),
		settle:      cfg.SettleDelay(),
		log:         logger,
	}
}

// Rows renders the technicals page for a canonical symbol and returns the
// text of every table row.
func (t *TradingView) Rows(ctx context.Context, symbol string) ([]string, error) {
	url := technical.TechnicalsURL(symbol)
	t.log.Debug("fetching technicals", "symbol", symbol, "url", url)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tab, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	runCtx, cancel := context.WithTimeout(tab, t.loadTimeout)
	defer cancel()

	var pageHTML string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(t.settle),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return tableRows(pageHTML)
}

// tableRows extracts the text of each table row from rendered HTML.
func tableRows(pageHTML string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("parse technicals page: %w", err)
	}

	var rows []string
	doc.Find("table tr").Each(func(_ int, sel *goquery.Selection) {
		rows = append(rows, sel.Text())
	})
	return rows, nil
}
