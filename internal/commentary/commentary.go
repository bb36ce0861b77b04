// Package commentary derives the market commentary line for each tracked
// category. The wording is load-bearing: downstream sheet consumers match
// on these exact strings.
package commentary

import (
	"fmt"

	"github.com/cchai186/commodity-price-tracker/internal/quotes"
)

// InsufficientData is used whenever the quotes needed by a category's
// rules are missing.
const InsufficientData = "Insufficient data for detailed analysis"

// For returns the commentary for a category. prev carries the previous
// published record keyed by label and may be nil; it only affects trend
// wording.
func For(cq quotes.CategoryQuotes, prev map[string]float64) string {
	switch cq.Category {
	case "FX":
		return fxCommentary(cq, prev)
	case "Energy":
		return energyCommentary(cq)
	case "Feed":
		return feedCommentary(cq)
	case "Metals":
		return metalsCommentary(cq)
	case "Crypto":
		return cryptoCommentary(cq)
	}
	return InsufficientData
}

func fxCommentary(cq quotes.CategoryQuotes, prev map[string]float64) string {
	dxy, ok := cq.Price("DXY")
	if !ok {
		return InsufficientData
	}

	trend := ""
	if prevDXY, ok := prev["DXY"]; ok {
		if dxy > prevDXY {
			trend = " Strengthening trend."
		} else if dxy < prevDXY {
			trend = " Weakening trend."
		}
	}

	switch {
	case dxy > 103:
		return "USD showing strength across major currencies. Asian currencies under pressure." + trend
	case dxy < 100:
		return "USD weakness prevalent. Favorable for emerging Asian currencies." + trend
	default:
		return "USD trading in neutral range. Mixed performance across currency pairs." + trend
	}
}

func energyCommentary(cq quotes.CategoryQuotes) string {
	brent, okBrent := cq.Price("Brent")
	wti, okWTI := cq.Price("WTI")
	if !okBrent || !okWTI {
		return InsufficientData
	}

	spread := brent - wti
	if spread > 5 {
		return fmt.Sprintf("Wide Brent-WTI spread ($%.2f). Global supply concerns dominate.", spread)
	}
	return fmt.Sprintf("Normal Brent-WTI spread ($%.2f). Market in equilibrium.", spread)
}

func feedCommentary(cq quotes.CategoryQuotes) string {
	if _, ok := cq.Price("Corn"); !ok {
		return InsufficientData
	}
	if _, ok := cq.Price("Soybean"); !ok {
		return InsufficientData
	}
	return "Feed costs trending within seasonal ranges. Monitor weather impacts."
}

func metalsCommentary(cq quotes.CategoryQuotes) string {
	gold, ok := cq.Price("Gold")
	if !ok {
		return InsufficientData
	}
	if gold > 2000 {
		return "Gold at premium levels. Safe-haven demand strong."
	}
	return "Gold trading below key $2000 level. Monitor Fed policy."
}

func cryptoCommentary(cq quotes.CategoryQuotes) string {
	btc, ok := cq.Price("Bitcoin")
	if !ok {
		return InsufficientData
	}
	if btc > 40000 {
		return "BTC maintaining strength above 40K. Institutional interest remains."
	}
	return "BTC below 40K threshold. Market sentiment cautious."
}
