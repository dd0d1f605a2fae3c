package technical

import (
	"regexp"
	"strconv"
	"strings"

	"FlashMonitor/internal/analysis"
)

// subjectLine pulls the trading-subject line out of the analysis text.
var subjectLine = regexp.MustCompile(`(?m)^` + analysis.SubjectLabel + `\s*(.+)$`)

// tickerSeparators splits the subject list on ASCII or fullwidth commas.
var tickerSeparators = regexp.MustCompile(`[,，]`)

// ExtractTickers returns up to max raw ticker strings from the analysis
// subject line, in order of appearance.
func ExtractTickers(analysisText string, max int) []string {
	m := subjectLine.FindStringSubmatch(analysisText)
	if m == nil {
		return nil
	}

	var out []string
	for _, part := range tickerSeparators.Split(m[1], -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == max {
			break
		}
	}
	return out
}

// directSymbols maps common aliases, including Chinese-language ones, to
// canonical market symbols. Stable reference data; extending coverage is a
// content concern, not a structural one.
var directSymbols = map[string]string{
	"XAUUSD":   "XAUUSD",
	"GOLD":     "XAUUSD",
	"黄金":       "XAUUSD",
	"BTC":      "BTCUSD",
	"BTCUSD":   "BTCUSD",
	"ETH":      "ETHUSD",
	"ETHUSD":   "ETHUSD",
	"DXY":      "TVC:DXY",
	"美元指数DXY":  "TVC:DXY",
	"美元指数":     "TVC:DXY",
	"SPX":      "SPX",
	"标普500":    "SPX",
	"标普500指数":  "SPX",
	"NDX":      "NASDAQ:NDX",
	"纳斯达克100":  "NASDAQ:NDX",
	"纳斯达克100指数": "NASDAQ:NDX",
}

// hkCode matches Hong-Kong-listed numeric codes like "(01347.HK)" or
// "01347.HK".
var hkCode = regexp.MustCompile(`(?i)\(?\s*(\d{4,5})\.HK\s*\)?`)

// usTicker accepts bare 1-5 letter uppercase tickers as-is.
var usTicker = regexp.MustCompile(`^[A-Z]{1,5}$`)

// MapSymbol resolves a raw ticker string to a canonical market symbol.
// Unresolvable tickers report false and are dropped from enrichment.
func MapSymbol(ticker string) (string, bool) {
	raw := strings.TrimSpace(ticker)
	if raw == "" {
		return "", false
	}

	upper := strings.ToUpper(raw)
	if sym, ok := directSymbols[upper]; ok {
		return sym, true
	}
	if sym, ok := directSymbols[raw]; ok {
		return sym, true
	}

	if m := hkCode.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return "HKEX:" + strconv.Itoa(n), true
		}
	}

	if usTicker.MatchString(upper) {
		return upper, true
	}

	return "", false
}
