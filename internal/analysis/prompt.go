package analysis

import (
	"fmt"

	"FlashMonitor/internal/domain"
)

// promptTemplate is the fixed seven-line output contract. The agent session id
// is versioned alongside it (see config) so format changes take effect
// immediately instead of following stale in-session formatting.
const promptTemplate = `你是一个“可交易”的金融快讯分析器。请严格按下面格式输出，仅允许这 7 行（每行一句），不允许出现其他行/空行/项目符号。注意：第二行的字段名必须是“方向：”，不要输出“判断：/说明：/结论：”。

标的：给出最相关的交易标的（1-3 个），优先：美股/指数/中概/加密/港股/A股；用逗号分隔；不确定就写“未知”
方向：只允许输出“利好/利空/中性 + 置信度(0-100)”，不要写“判断/说明/结论”
逻辑链：用“→”写 3-5 步因果链，从新闻到标的价格
核心驱动：一句话点名定价因子（利率预期/风险偏好/盈利预期/监管/资金面/供需/汇率等）
关键风险：只写 1-2 条，必须具体
确认信号：只写 1-2 个，必须可验证（例如 2Y/10Y、DXY、期指、成交量、后续数据/发言）
技术面：对“标的”里最相关的 1-2 个给出 RSI(14)/EMA20/EMA50/SMA200（仅用 TradingView 技术面数据；拿不到就写“缺数据”）

新闻："%s %s"`

// BuildPrompt renders the analysis request for one item.
func BuildPrompt(item domain.FeedItem) string {
	return fmt.Sprintf(promptTemplate, item.Title, item.Content)
}
