// Package playerview builds the read-only view of a round a given seat is
// allowed to see: their own hand, the bids and trump declared so far, the
// cards on the table in the current trick, and whose turn it is. No seat
// ever receives another seat's hidden hand through this package.
package playerview

import (
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/roundcache"
)

// BidView is a bid as shown to players: the bid value if placed, or
// unset if that seat hasn't bid yet this round.
type BidView struct {
	Seat int
	Bid  *int
}

// TrickCardView is one card already played into the current trick.
type TrickCardView struct {
	Seat int
	Card domain.Card
}

// View is everything seat needs to render the round and decide its next
// move, built from a RoundCache plus a freshly-loaded CurrentRoundInfo.
type View struct {
	GameID    int64
	RoundNo   int
	HandSize  int
	DealerPos int
	Trump     *domain.Trump

	YourSeat int
	YourHand []domain.Card

	Bids []BidView

	CurrentTrickNo   int
	CurrentTrickLead int
	CurrentTrick     []TrickCardView

	NextToActSeat int
}

// Build assembles the View for seat from a loaded cache and its current
// mutable info. It does not itself fetch anything — callers build info
// via RoundCache.BuildCurrentRoundInfo beforehand so a single DB round
// trip per orchestrator step covers every seat's view.
func Build(rc *roundcache.RoundCache, info *roundcache.CurrentRoundInfo, seat int) View {
	bids := make([]BidView, 0, domain.NumSeats)
	for s := 0; s < domain.NumSeats; s++ {
		bids = append(bids, BidView{Seat: s, Bid: info.Bids[s]})
	}

	trick := make([]TrickCardView, 0, len(info.CurrentTrick))
	for _, p := range info.CurrentTrick {
		trick = append(trick, TrickCardView{Seat: p.Seat, Card: p.Card})
	}

	return View{
		GameID:           rc.GameID,
		RoundNo:          rc.RoundNo,
		HandSize:         rc.HandSize,
		DealerPos:        rc.DealerPos,
		Trump:            rc.Trump,
		YourSeat:         seat,
		YourHand:         info.RemainingHands[seat],
		Bids:             bids,
		CurrentTrickNo:   info.CurrentTrickNo,
		CurrentTrickLead: info.CurrentTrickLead,
		CurrentTrick:     trick,
		NextToActSeat:    NextToAct(rc, info),
	}
}

// NextToAct determines which seat must act next given the cache's phase
// and the current mutable info: the next un-bid seat during bidding, the
// trump chooser during trump selection, or the seat after the last play
// in the current trick during trick play.
func NextToAct(rc *roundcache.RoundCache, info *roundcache.CurrentRoundInfo) int {
	if rc.Trump == nil {
		allBid := true
		for s := 0; s < domain.NumSeats; s++ {
			if info.Bids[s] == nil {
				allBid = false
				break
			}
		}
		if !allBid {
			for i := 1; i <= domain.NumSeats; i++ {
				seat := (rc.DealerPos + i) % domain.NumSeats
				if info.Bids[seat] == nil {
					return seat
				}
			}
		}
		// All bids are in but trump hasn't been recorded in the cache yet:
		// the highest bidder (earliest to reach it) chooses trump.
		return highestBidder(rc.DealerPos, info.Bids)
	}
	return (info.CurrentTrickLead + len(info.CurrentTrick)) % domain.NumSeats
}

func highestBidder(dealerPos int, bids [domain.NumSeats]*int) int {
	order := make([]int, 0, domain.NumSeats)
	for i := 1; i <= domain.NumSeats; i++ {
		order = append(order, (dealerPos+i)%domain.NumSeats)
	}
	best := order[0]
	bestBid := -1
	if bids[best] != nil {
		bestBid = *bids[best]
	}
	for _, seat := range order[1:] {
		if bids[seat] == nil {
			continue
		}
		if *bids[seat] > bestBid {
			best = seat
			bestBid = *bids[seat]
		}
	}
	return best
}
