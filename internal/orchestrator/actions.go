package orchestrator

import (
	"context"
	"strconv"

	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
	"github.com/robpatriot/nommie/internal/round"
	"github.com/robpatriot/nommie/internal/roundcache"
)

// actForSeat asks the AI player for a decision appropriate to the round's
// current phase and persists it. It returns acted=false only when the
// phase is unrecognized, which should not happen for a cache synced from
// a live round.
func (o *Orchestrator) actForSeat(ctx context.Context, cached *roundcache.RoundCache, info *roundcache.CurrentRoundInfo, seat int, game repo.Game) (bool, error) {
	switch cached.Phase {
	case "BIDDING":
		return true, o.actBid(ctx, cached, info, seat, game)
	case "TRUMP_SELECT":
		return true, o.actTrump(ctx, cached, info, seat, game)
	case "TRICK_PLAY":
		return true, o.actPlay(ctx, cached, info, seat, game)
	default:
		return false, nil
	}
}

func sumBids(bids [domain.NumSeats]*int) int {
	sum := 0
	for _, b := range bids {
		if b != nil {
			sum += *b
		}
	}
	return sum
}

// actBid asks the AI for a bid and validates it through round.Round.PlaceBid
// before persisting, the same LoadGameState-then-validate sequence
// gameflow.Service.SubmitBid runs for a human bid. A validation failure
// here means the AI (or the loader reconstructing its view of the round)
// computed something illegal; per spec that is fatal for this AI turn and
// propagates rather than being swallowed.
func (o *Orchestrator) actBid(ctx context.Context, cached *roundcache.RoundCache, info *roundcache.CurrentRoundInfo, seat int, game repo.Game) error {
	membership := cached.Players[seat]
	isDealer := domain.IsDealer(seat, cached.DealerPos)
	bid := o.AI.ChooseBid(info.RemainingHands[seat], cached.HandSize, isDealer, sumBids(info.Bids), membership.ConsecutiveZeroBids)

	loaded, roundRow, err := round.LoadGameState(ctx, o.Store, cached.GameID, cached.RoundNo)
	if err != nil {
		return err
	}
	if err := loaded.PlaceBid(seat, bid, nil); err != nil {
		return err
	}

	if _, err := o.Store.SaveBid(ctx, cached.GameID, roundRow.ID, seat, bid, game.Version); err != nil {
		return err
	}
	if o.Log != nil {
		o.Log.Debugf("game %d round %d seat %d bids %d", cached.GameID, cached.RoundNo, seat, bid)
	}
	return o.Store.AppendHistory(ctx, cached.GameID, cached.RoundNo, seat, "BID", strconv.Itoa(bid))
}

// actTrump asks the AI for a trump choice and validates it through
// round.Round.SetTrump before persisting.
func (o *Orchestrator) actTrump(ctx context.Context, cached *roundcache.RoundCache, info *roundcache.CurrentRoundInfo, seat int, game repo.Game) error {
	trump := o.AI.ChooseTrump(info.RemainingHands[seat])

	loaded, roundRow, err := round.LoadGameState(ctx, o.Store, cached.GameID, cached.RoundNo)
	if err != nil {
		return err
	}
	if err := loaded.SetTrump(seat, trump, nil); err != nil {
		return err
	}

	if _, err := o.Store.SaveTrump(ctx, cached.GameID, roundRow.ID, trump, game.Version); err != nil {
		return err
	}
	if o.Log != nil {
		o.Log.Debugf("game %d round %d seat %d picks trump %s", cached.GameID, cached.RoundNo, seat, trump)
	}
	return o.Store.AppendHistory(ctx, cached.GameID, cached.RoundNo, seat, "TRUMP", trump.String())
}

// actPlay asks the AI for a card and validates it through
// round.Round.PlayCard before persisting, using the RoundState's own
// before/after TricksWonBySeat diff to detect trick completion the same
// way gameflow.Service.PlayCard does, rather than resolving the winner
// independently a second time.
func (o *Orchestrator) actPlay(ctx context.Context, cached *roundcache.RoundCache, info *roundcache.CurrentRoundInfo, seat int, game repo.Game) error {
	leadKnown := len(info.CurrentTrick) > 0
	var leadSuit domain.Suit
	currentTrickCards := make([]domain.Card, 0, len(info.CurrentTrick))
	for _, p := range info.CurrentTrick {
		currentTrickCards = append(currentTrickCards, p.Card)
	}
	if leadKnown {
		leadSuit = info.CurrentTrick[0].Card.Suit
	}

	bid := 0
	if info.Bids[seat] != nil {
		bid = *info.Bids[seat]
	}
	trump := domain.NoTrump
	if cached.Trump != nil {
		trump = *cached.Trump
	}

	card := o.AI.ChoosePlay(info.RemainingHands[seat], leadSuit, leadKnown, trump, currentTrickCards, info.TricksWonBySeat[seat], bid, len(info.CurrentTrick))

	loaded, roundRow, err := round.LoadGameState(ctx, o.Store, cached.GameID, cached.RoundNo)
	if err != nil {
		return err
	}
	rs := loaded.State
	trickNo := rs.CurrentTrickNo
	playOrder := len(rs.CurrentTrick)
	trickLeader := rs.TrickLeader
	wonBefore := rs.TricksWonBySeat

	if err := loaded.PlayCard(seat, card, nil); err != nil {
		return err
	}

	if _, err := o.Store.SavePlay(ctx, cached.GameID, roundRow.ID, trickNo, seat, card, playOrder, game.Version); err != nil {
		return err
	}
	if o.Log != nil {
		o.Log.Debugf("game %d round %d trick %d seat %d plays %s", cached.GameID, cached.RoundNo, trickNo, seat, card)
	}
	if err := o.Store.AppendHistory(ctx, cached.GameID, cached.RoundNo, seat, "PLAY", card.String()); err != nil {
		return err
	}

	winner := -1
	for checkedSeat, after := range rs.TricksWonBySeat {
		if after != wonBefore[checkedSeat] {
			winner = checkedSeat
			break
		}
	}
	if winner >= 0 {
		return o.Store.SaveTrickResult(ctx, roundRow.ID, trickNo, trickLeader, winner)
	}
	return nil
}

// applyScoringAndAdvance computes round scores once all tricks are in,
// persists them, and advances the game to the next round or to Completed
// if round 26 just finished. It returns acted=true if it made progress,
// so the caller knows to reload the cache and keep looping.
func (o *Orchestrator) applyScoringAndAdvance(ctx context.Context, cached *roundcache.RoundCache, game repo.Game) (bool, error) {
	loaded, roundRow, err := round.LoadGameState(ctx, o.Store, cached.GameID, cached.RoundNo)
	if err != nil {
		return false, err
	}
	rawScores, err := loaded.ApplyRoundScoring(nil)
	if err != nil {
		return false, err
	}
	var scores [domain.NumSeats]int32
	for seat, s := range rawScores {
		scores[seat] = int32(s)
	}

	game, err = o.Store.SaveRoundScores(ctx, cached.GameID, roundRow.ID, scores, game.Version)
	if err != nil {
		return false, err
	}

	if cached.RoundNo == domain.TotalRounds {
		if _, err := o.Store.CompleteGame(ctx, cached.GameID, game.Version); err != nil {
			return false, err
		}
		return true, nil
	}

	nextRoundNo := cached.RoundNo + 1
	handSize, ok := domain.HandSizeForRound(nextRoundNo)
	if !ok {
		return false, nil
	}
	dealerPos := domain.DealerForRound(game.StartingDealerPos, nextRoundNo)
	hands, err := domain.DealRound(game.Seed, uint8(nextRoundNo), domain.NumSeats, handSize)
	if err != nil {
		return false, err
	}
	var handsArr [domain.NumSeats][]domain.Card
	copy(handsArr[:], hands)

	game, err = o.Store.AdvanceRound(ctx, cached.GameID, nextRoundNo, game.Version)
	if err != nil {
		return false, err
	}
	if _, _, err := o.Store.DealRound(ctx, cached.GameID, nextRoundNo, handSize, dealerPos, handsArr, game.Version); err != nil {
		return false, err
	}
	return true, nil
}
