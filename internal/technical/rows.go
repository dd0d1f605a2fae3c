package technical

import (
	"regexp"
	"strings"

	"FlashMonitor/internal/domain"
)

// Indicator row names as rendered by the technicals source.
const (
	RowRSI14  = "Relative Strength Index (14)"
	RowEMA20  = "Exponential Moving Average (20)"
	RowEMA50  = "Exponential Moving Average (50)"
	RowSMA200 = "Simple Moving Average (200)"
)

// rowPattern matches "<name><value><action>" after whitespace collapsing.
// The value class includes the ASCII minus; U+2212 is normalized first.
var rowPattern = regexp.MustCompile(`^(.*?)([\d,.\-]+)(Strong sell|Strong buy|Sell|Buy|Neutral)$`)

// ParseRows turns raw table-row text into indicator readings. Lines that do
// not fit the grammar are skipped, which tolerates header and summary rows.
func ParseRows(lines []string) map[string]domain.TechnicalRow {
	out := map[string]domain.TechnicalRow{}
	for _, raw := range lines {
		line := strings.Join(strings.Fields(raw), " ")
		line = strings.ReplaceAll(line, "−", "-")
		m := rowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		value := strings.ReplaceAll(m[2], ",", "")
		out[name] = domain.TechnicalRow{Value: value, Action: domain.Advisory(m[3])}
	}
	return out
}
