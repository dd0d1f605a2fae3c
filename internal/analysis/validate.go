package analysis

import (
	"regexp"
	"strings"
)

// SubjectLabel prefixes the trading-subject line; the technical enrichment
// extracts tickers from it.
const SubjectLabel = "标的："

// requiredLabels are the seven line labels a valid reply must contain.
var requiredLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^标的：`),
	regexp.MustCompile(`(?m)^方向：`),
	regexp.MustCompile(`(?m)^逻辑链：`),
	regexp.MustCompile(`(?m)^核心驱动：`),
	regexp.MustCompile(`(?m)^关键风险：`),
	regexp.MustCompile(`(?m)^确认信号：`),
	regexp.MustCompile(`(?m)^技术面：`),
}

// legacyLabels come from an earlier prompt revision; their presence means the
// agent replayed stale in-session formatting and the reply must be rejected.
var legacyLabels = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^结论：`),
	regexp.MustCompile(`(?m)^驱动：`),
	regexp.MustCompile(`(?m)^风险：`),
	regexp.MustCompile(`(?m)^关注：`),
}

// ValidReply reports whether the agent reply honors the current prompt
// contract. A failing reply is treated as a call failure by the engine.
func ValidReply(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	for _, re := range requiredLabels {
		if !re.MatchString(s) {
			return false
		}
	}
	for _, re := range legacyLabels {
		if re.MatchString(s) {
			return false
		}
	}
	return true
}
