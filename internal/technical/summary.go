package technical

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"FlashMonitor/internal/domain"
	"FlashMonitor/internal/ports"
)

const noData = "缺数据"

// Enricher renders a human-readable technical summary for the symbols named
// in an analysis reply. A failure for one symbol never suppresses the others.
type Enricher struct {
	source     ports.TechnicalsSource
	maxTickers int
	maxSymbols int
	log        *slog.Logger
}

// NewEnricher bounds the enrichment fan-out: at most maxTickers subjects are
// considered and at most maxSymbols of the resolvable ones are fetched.
func NewEnricher(source ports.TechnicalsSource, maxTickers, maxSymbols int, logger *slog.Logger) *Enricher {
	return &Enricher{source: source, maxTickers: maxTickers, maxSymbols: maxSymbols, log: logger}
}

// BuildSummary returns one line per resolvable symbol, or "" when the
// analysis names nothing usable.
func (e *Enricher) BuildSummary(ctx context.Context, analysisText string) string {
	type target struct {
		raw    string
		symbol string
	}

	var targets []target
	for _, raw := range ExtractTickers(analysisText, e.maxTickers) {
		if sym, ok := MapSymbol(raw); ok {
			targets = append(targets, target{raw: raw, symbol: sym})
		}
	}
	if len(targets) == 0 {
		return ""
	}
	if len(targets) > e.maxSymbols {
		targets = targets[:e.maxSymbols]
	}

	lines := make([]string, 0, len(targets))
	for _, t := range targets {
		rows, err := e.source.Rows(ctx, t.symbol)
		if err != nil {
			e.log.Warn("technicals fetch failed", "symbol", t.symbol, "error", err)
			lines = append(lines, t.raw+"="+noData)
			continue
		}
		lines = append(lines, renderLine(t.raw, ParseRows(rows)))
	}
	return strings.Join(lines, "\n")
}

// renderLine produces "<label>：<trend>；<rsi>；<moving averages>", spelling
// out missing data explicitly instead of omitting it.
func renderLine(label string, rows map[string]domain.TechnicalRow) string {
	rsi, hasRSI := rows[RowRSI14]
	ema20, hasEMA20 := rows[RowEMA20]
	ema50, hasEMA50 := rows[RowEMA50]
	sma200, hasSMA200 := rows[RowSMA200]

	if !hasRSI && !hasEMA20 && !hasEMA50 && !hasSMA200 {
		return label + "：" + noData
	}

	trendTxt := "趋势" + noData
	var actions []domain.Advisory
	for _, pair := range []struct {
		ok  bool
		row domain.TechnicalRow
	}{{hasEMA20, ema20}, {hasEMA50, ema50}, {hasSMA200, sma200}} {
		if pair.ok {
			actions = append(actions, pair.row.Action)
		}
	}
	if len(actions) > 0 {
		trendTxt = explainTrend(actions)
	}

	rsiTxt := "RSI14 " + noData
	if hasRSI {
		if v, err := strconv.ParseFloat(rsi.Value, 64); err == nil {
			rsiTxt = fmt.Sprintf("RSI14 %.1f（%s）", v, explainRSI(v))
		}
	}

	var maParts []string
	if hasEMA20 {
		maParts = append(maParts, "EMA20="+string(ema20.Action))
	}
	if hasEMA50 {
		maParts = append(maParts, "EMA50="+string(ema50.Action))
	}
	if hasSMA200 {
		maParts = append(maParts, "SMA200="+string(sma200.Action))
	}
	maTxt := "均线：" + noData
	if len(maParts) > 0 {
		maTxt = "均线：" + strings.Join(maParts, " / ")
	}

	return label + "：" + trendTxt + "；" + rsiTxt + "；" + maTxt
}

// explainTrend derives the verdict by majority vote across the moving-average
// advisories: 2-of-3 sell-family reads bearish, 2-of-3 buy-family bullish.
func explainTrend(actions []domain.Advisory) string {
	var sell, buy int
	for _, a := range actions {
		switch {
		case a.Bearish():
			sell++
		case a.Bullish():
			buy++
		}
	}
	switch {
	case sell >= 2:
		return "趋势偏空（多数均线信号为 Sell）"
	case buy >= 2:
		return "趋势偏多（多数均线信号为 Buy）"
	default:
		return "趋势分歧（均线信号不一致）"
	}
}

// explainRSI bands the reading into plain language.
func explainRSI(v float64) string {
	switch {
	case v < 30:
		return "接近/进入超卖区（弱势，可能跌过头）"
	case v < 40:
		return "偏弱（但未到超卖）"
	case v <= 60:
		return "中性区间"
	case v <= 70:
		return "偏强"
	default:
		return "接近/进入超买区（强势，可能涨过头）"
	}
}
