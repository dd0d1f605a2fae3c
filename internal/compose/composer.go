package compose

import (
	"regexp"
	"strings"

	"FlashMonitor/internal/domain"
)

// Input carries everything the composer needs for one item. Exactly one
// message is produced per item: never split, never followed by a catch-up
// send.
type Input struct {
	Item             domain.FeedItem
	Analysis         *domain.AnalysisResult
	AnalysisError    string
	TechnicalSummary string
}

var boldMarkup = regexp.MustCompile(`\*\*(.+?)\*\*`)

// Message renders the final notification text in the Telegram HTML subset.
func Message(in Input) string {
	var b strings.Builder

	b.WriteString("📡 <b>金十重要新闻推送</b>\n")
	b.WriteString("⏰ " + escape(in.Item.Time))
	if in.Item.Title != "" {
		b.WriteString("\n📌 <b>" + escape(in.Item.Title) + "</b>")
	}
	b.WriteString("\n" + escape(in.Item.Content))

	if in.Analysis != nil && in.Analysis.Text != "" {
		src := ""
		if in.Analysis.Source != "" {
			src = "（" + escape(in.Analysis.Source) + "）"
		}
		b.WriteString("\n\n📊 <b>AI 分析" + src + "</b>\n" + richText(in.Analysis.Text))
	} else {
		reason := ""
		if in.AnalysisError != "" {
			reason = "：" + escape(in.AnalysisError)
		}
		b.WriteString("\n\n🤖 <b>AI 分析</b>" + reason + "\n<i>本条未生成分析（已合并在同一条消息里，避免补发/拆分）</i>")
	}

	if in.TechnicalSummary != "" {
		b.WriteString("\n\n📈 <b>技术面（人话）</b>\n" + richText(in.TechnicalSummary))
	}

	return b.String()
}

// richText escapes free text while preserving **bold** markup as <b> tags and
// collapsing blank lines.
func richText(text string) string {
	s := escape(boldMarkup.ReplaceAllString(text, "<b>$1</b>"))
	s = strings.ReplaceAll(s, "&lt;b&gt;", "<b>")
	s = strings.ReplaceAll(s, "&lt;/b&gt;", "</b>")
	return strings.ReplaceAll(s, "\n\n", "\n")
}

// escape covers the characters Telegram's HTML parse mode requires.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
