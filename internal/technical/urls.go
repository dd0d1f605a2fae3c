package technical

import (
	"net/url"
	"regexp"
)

// specialURLs covers symbols whose TradingView page does not follow either
// generic shape.
var specialURLs = map[string]string{
	"TVC:DXY":    "https://www.tradingview.com/symbols/TVC-DXY/technicals/",
	"NASDAQ:NDX": "https://www.tradingview.com/symbols/NASDAQ-NDX/technicals/",
	"SPX":        "https://www.tradingview.com/symbols/SPX/technicals/",
	"SPY":        "https://www.tradingview.com/symbols/SPY/technicals/",
	"QQQ":        "https://www.tradingview.com/symbols/QQQ/technicals/",
}

// exchangePrefixed matches symbols like HKEX:1347.
var exchangePrefixed = regexp.MustCompile(`^([A-Z]+):(\d+)$`)

// TechnicalsURL returns the technicals page for a canonical symbol.
func TechnicalsURL(symbol string) string {
	if u, ok := specialURLs[symbol]; ok {
		return u
	}
	if m := exchangePrefixed.FindStringSubmatch(symbol); m != nil {
		return "https://www.tradingview.com/symbols/" + m[1] + "-" + m[2] + "/technicals/"
	}
	return "https://www.tradingview.com/symbols/" + url.PathEscape(symbol) + "/technicals/"
}
