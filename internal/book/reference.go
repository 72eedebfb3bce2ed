package book

import "github.com/shopspring/decimal"

// ReferencePrice computes the submission-time trigger reference for a stop
// order of the given side, per §4.4.1: with no prior trade, a sell-stop
// references min(best_bid, best_ask) when both exist (else whichever
// exists); a buy-stop references max(best_bid, best_ask) under the same
// rule. ok is false when the book is empty, in which case the stop must be
// enqueued rather than evaluated. PeekLive (not Peek) is consulted so a
// cancelled or amend-superseded order still sitting at the top of a heap
// under lazy deletion can never masquerade as live top-of-book and drive an
// erroneous immediate trigger.
func ReferencePrice(isBuyStop bool, bids, asks *Side) (decimal.Decimal, bool) {
	var bestBid, bestAsk decimal.Decimal
	haveBid, haveAsk := false, false
	if top := bids.PeekLive(); top != nil {
		bestBid, haveBid = top.Price, true
	}
	if top := asks.PeekLive(); top != nil {
		bestAsk, haveAsk = top.Price, true
	}

	switch {
	case haveBid && haveAsk:
		if isBuyStop {
			if bestBid.GreaterThan(bestAsk) {
				return bestBid, true
			}
			return bestAsk, true
		}
		if bestBid.LessThan(bestAsk) {
			return bestBid, true
		}
		return bestAsk, true
	case haveBid:
		return bestBid, true
	case haveAsk:
		return bestAsk, true
	default:
		return decimal.Zero, false
	}
}
