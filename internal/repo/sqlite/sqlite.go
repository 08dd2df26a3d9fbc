// Package sqlite is the test/dev backend for internal/repo.Store, built on
// database/sql and mattn/go-sqlite3 in the teacher's
// pkg/server/internal/db/db.go idiom: CREATE TABLE IF NOT EXISTS per
// statement, tx.Begin/defer tx.Rollback for multi-statement mutations, and
// plain ? placeholders.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/robpatriot/nommie/internal/apperrors"
	"github.com/robpatriot/nommie/internal/domain"
	"github.com/robpatriot/nommie/internal/repo"
)

// DB wraps a *sql.DB and implements repo.Store.
type DB struct {
	*sql.DB
}

// Open connects to the SQLite database at path (or ":memory:"/
// "file::memory:?cache=shared" for tests) and ensures the schema exists.
// Concurrent writers are serialized to a single connection: SQLite only
// allows one writer at a time, and a pool of independent :memory: database
// connections would each see an empty, unrelated database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func encodeCards(cards []domain.Card) (string, error) {
	tokens := make([]string, len(cards))
	for i, c := range cards {
		tokens[i] = c.String()
	}
	b, err := json.Marshal(tokens)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCards(blob string) ([]domain.Card, error) {
	var tokens []string
	if err := json.Unmarshal([]byte(blob), &tokens); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternalError, "corrupt hand blob", err)
	}
	return domain.ParseCards(tokens)
}

func scanGame(row interface{ Scan(...any) error }) (repo.Game, error) {
	var g repo.Game
	var status string
	if err := row.Scan(&g.ID, &status, &g.Version, &g.Seed, &g.StartingDealerPos, &g.CurrentRoundNo, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.Game{}, apperrors.New(apperrors.CodeGameNotFound, "game not found")
		}
		return repo.Game{}, err
	}
	g.Status = repo.GameStatus(status)
	return g, nil
}

func (d *DB) GetGame(ctx context.Context, gameID int64) (repo.Game, error) {
	row := d.QueryRowContext(ctx, `SELECT id, status, version, seed, starting_dealer_pos, current_round_no, created_at, updated_at FROM games WHERE id = ?`, gameID)
	return scanGame(row)
}

func (d *DB) GetMemberships(ctx context.Context, gameID int64) ([domain.NumSeats]repo.Membership, error) {
	var out [domain.NumSeats]repo.Membership
	rows, err := d.QueryContext(ctx, `SELECT id, game_id, seat, human_user_or_seat_id, is_ready, ai_profile_id, consecutive_zero_bids FROM game_players WHERE game_id = ?`, gameID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var m repo.Membership
		var aiProfileID sql.NullInt64
		if err := rows.Scan(&m.ID, &m.GameID, &m.Seat, &m.HumanUserOrSeatID, &m.IsReady, &aiProfileID, &m.ConsecutiveZeroBids); err != nil {
			return out, err
		}
		if aiProfileID.Valid {
			id := aiProfileID.Int64
			m.AIProfileID = &id
		}
		if m.Seat < 0 || m.Seat >= domain.NumSeats {
			return out, apperrors.Newf(apperrors.CodeInvalidSeat, "membership row has out-of-range seat %d", m.Seat)
		}
		out[m.Seat] = m
	}
	return out, rows.Err()
}

func (d *DB) GetAIProfile(ctx context.Context, profileID int64) (repo.AIProfile, error) {
	var p repo.AIProfile
	row := d.QueryRowContext(ctx, `SELECT id, name, difficulty FROM ai_profiles WHERE id = ?`, profileID)
	if err := row.Scan(&p.ID, &p.Name, &p.Difficulty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.AIProfile{}, apperrors.New(apperrors.CodeNotFound, "ai profile not found")
		}
		return repo.AIProfile{}, err
	}
	return p, nil
}

func scanRound(row interface{ Scan(...any) error }) (repo.Round, error) {
	var r repo.Round
	var trump sql.NullString
	if err := row.Scan(&r.ID, &r.GameID, &r.RoundNo, &r.HandSize, &r.DealerPos, &trump, &r.Phase); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.Round{}, apperrors.New(apperrors.CodeRoundNotFound, "round not found")
		}
		return repo.Round{}, err
	}
	if trump.Valid {
		t, err := domain.ParseTrump(trump.String)
		if err != nil {
			return repo.Round{}, err
		}
		r.Trump = &t
	}
	return r, nil
}

func (d *DB) GetRound(ctx context.Context, gameID int64, roundNo int) (repo.Round, error) {
	row := d.QueryRowContext(ctx, `SELECT id, game_id, round_no, hand_size, dealer_pos, trump, phase FROM game_rounds WHERE game_id = ? AND round_no = ?`, gameID, roundNo)
	return scanRound(row)
}

func (d *DB) GetHands(ctx context.Context, roundID int64) ([]repo.Hand, error) {
	rows, err := d.QueryContext(ctx, `SELECT round_id, seat, cards FROM round_hands WHERE round_id = ?`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hands []repo.Hand
	for rows.Next() {
		var h repo.Hand
		var blob string
		if err := rows.Scan(&h.RoundID, &h.Seat, &blob); err != nil {
			return nil, err
		}
		cards, err := decodeCards(blob)
		if err != nil {
			return nil, err
		}
		h.Cards = cards
		hands = append(hands, h)
	}
	return hands, rows.Err()
}

func (d *DB) GetBids(ctx context.Context, roundID int64) ([]repo.Bid, error) {
	rows, err := d.QueryContext(ctx, `SELECT round_id, seat, bid FROM round_bids WHERE round_id = ?`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bids []repo.Bid
	for rows.Next() {
		var b repo.Bid
		if err := rows.Scan(&b.RoundID, &b.Seat, &b.Bid); err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

func (d *DB) GetCumulativeScores(ctx context.Context, gameID int64) ([domain.NumSeats]int32, error) {
	var out [domain.NumSeats]int32
	rows, err := d.QueryContext(ctx, `SELECT seat, COALESCE(SUM(round_score), 0) FROM round_scores WHERE game_id = ? GROUP BY seat`, gameID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var seat int
		var total int32
		if err := rows.Scan(&seat, &total); err != nil {
			return out, err
		}
		if seat < 0 || seat >= domain.NumSeats {
			continue
		}
		out[seat] = total
	}
	return out, rows.Err()
}

func scanPlays(rows *sql.Rows) ([]repo.Play, error) {
	defer rows.Close()
	var plays []repo.Play
	for rows.Next() {
		var p repo.Play
		var token string
		if err := rows.Scan(&p.RoundID, &p.TrickNo, &p.Seat, &token, &p.PlayOrder); err != nil {
			return nil, err
		}
		card, err := domain.ParseCard(token)
		if err != nil {
			return nil, err
		}
		p.Card = card
		plays = append(plays, p)
	}
	return plays, rows.Err()
}

func (d *DB) GetPlays(ctx context.Context, roundID int64, trickNo int) ([]repo.Play, error) {
	rows, err := d.QueryContext(ctx, `SELECT round_id, trick_no, seat, card, play_order FROM trick_plays WHERE round_id = ? AND trick_no = ? ORDER BY play_order`, roundID, trickNo)
	if err != nil {
		return nil, err
	}
	return scanPlays(rows)
}

func (d *DB) GetAllPlaysForRound(ctx context.Context, roundID int64) ([]repo.Play, error) {
	rows, err := d.QueryContext(ctx, `SELECT round_id, trick_no, seat, card, play_order FROM trick_plays WHERE round_id = ? ORDER BY trick_no, play_order`, roundID)
	if err != nil {
		return nil, err
	}
	return scanPlays(rows)
}

func (d *DB) GetTricks(ctx context.Context, roundID int64) ([]repo.Trick, error) {
	rows, err := d.QueryContext(ctx, `SELECT round_id, trick_no, leader_seat, winner_seat FROM round_tricks WHERE round_id = ?`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tricks []repo.Trick
	for rows.Next() {
		var t repo.Trick
		if err := rows.Scan(&t.RoundID, &t.TrickNo, &t.LeaderSeat, &t.WinnerSeat); err != nil {
			return nil, err
		}
		tricks = append(tricks, t)
	}
	return tricks, rows.Err()
}

func (d *DB) CreateGame(ctx context.Context, seed int64, startingDealerPos int) (repo.Game, error) {
	now := time.Now()
	res, err := d.ExecContext(ctx, `INSERT INTO games (status, version, seed, starting_dealer_pos, current_round_no, created_at, updated_at) VALUES (?, 1, ?, ?, 0, ?, ?)`,
		string(repo.GameStatusLobby), seed, startingDealerPos, now, now)
	if err != nil {
		return repo.Game{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return repo.Game{}, err
	}
	return d.GetGame(ctx, id)
}

func (d *DB) AddMembership(ctx context.Context, gameID int64, seat int, humanUserOrSeatID int64, aiProfileID *int64) (repo.Membership, error) {
	res, err := d.ExecContext(ctx, `INSERT INTO game_players (game_id, seat, human_user_or_seat_id, is_ready, ai_profile_id, consecutive_zero_bids) VALUES (?, ?, ?, FALSE, ?, 0)`,
		gameID, seat, humanUserOrSeatID, aiProfileID)
	if err != nil {
		return repo.Membership{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return repo.Membership{}, err
	}
	return repo.Membership{ID: id, GameID: gameID, Seat: seat, HumanUserOrSeatID: humanUserOrSeatID, AIProfileID: aiProfileID}, nil
}

func (d *DB) SetMembershipReady(ctx context.Context, gameID int64, seat int, ready bool) error {
	_, err := d.ExecContext(ctx, `UPDATE game_players SET is_ready = ? WHERE game_id = ? AND seat = ?`, ready, gameID, seat)
	return err
}

// casUpdateGame runs an UPDATE ... WHERE id = ? AND version = ? and returns
// apperrors.OptimisticLock if no row matched, distinguishing a stale
// version from a missing game by re-reading the current row.
func (d *DB) casUpdateGame(ctx context.Context, gameID int64, expectedVersion int32, setClause string, args ...any) (repo.Game, error) {
	execArgs := append(append([]any{}, args...), gameID, expectedVersion)
	res, err := d.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP, `+setClause+` WHERE id = ? AND version = ?`, execArgs...)
	if err != nil {
		return repo.Game{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return repo.Game{}, err
	}
	if affected == 0 {
		current, getErr := d.GetGame(ctx, gameID)
		if getErr != nil {
			return repo.Game{}, getErr
		}
		return repo.Game{}, apperrors.OptimisticLock(expectedVersion, current.Version)
	}
	return d.GetGame(ctx, gameID)
}

func (d *DB) StartGame(ctx context.Context, gameID int64, expectedVersion int32) (repo.Game, error) {
	return d.casUpdateGame(ctx, gameID, expectedVersion, "status = ?", string(repo.GameStatusInProgress))
}

func (d *DB) DealRound(ctx context.Context, gameID int64, roundNo, handSize, dealerPos int, hands [domain.NumSeats][]domain.Card, expectedVersion int32) (repo.Round, repo.Game, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO game_rounds (game_id, round_no, hand_size, dealer_pos, trump, phase) VALUES (?, ?, ?, ?, NULL, 'BIDDING')`,
		gameID, roundNo, handSize, dealerPos)
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	roundID, err := res.LastInsertId()
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	for seat, cards := range hands {
		blob, err := encodeCards(cards)
		if err != nil {
			return repo.Round{}, repo.Game{}, err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO round_hands (round_id, seat, cards) VALUES (?, ?, ?)`, roundID, seat, blob); err != nil {
			return repo.Round{}, repo.Game{}, err
		}
	}

	gameRes, err := tx.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP, current_round_no = ? WHERE id = ? AND version = ?`,
		roundNo, gameID, expectedVersion)
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	affected, err := gameRes.RowsAffected()
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	if affected == 0 {
		row := tx.QueryRowContext(ctx, `SELECT id, status, version, seed, starting_dealer_pos, current_round_no, created_at, updated_at FROM games WHERE id = ?`, gameID)
		current, getErr := scanGame(row)
		if getErr != nil {
			return repo.Round{}, repo.Game{}, getErr
		}
		return repo.Round{}, repo.Game{}, apperrors.OptimisticLock(expectedVersion, current.Version)
	}

	if err := tx.Commit(); err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	round, err := d.GetRound(ctx, gameID, roundNo)
	if err != nil {
		return repo.Round{}, repo.Game{}, err
	}
	game, err := d.GetGame(ctx, gameID)
	return round, game, err
}

func (d *DB) SaveBid(ctx context.Context, gameID, roundID int64, seat, bid int, expectedVersion int32) (repo.Game, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return repo.Game{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO round_bids (round_id, seat, bid) VALUES (?, ?, ?)`, roundID, seat, bid); err != nil {
		return repo.Game{}, err
	}
	if bid == 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE game_players SET consecutive_zero_bids = consecutive_zero_bids + 1 WHERE game_id = ? AND seat = ?`, gameID, seat); err != nil {
			return repo.Game{}, err
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE game_players SET consecutive_zero_bids = 0 WHERE game_id = ? AND seat = ?`, gameID, seat); err != nil {
			return repo.Game{}, err
		}
	}

	var bidsPlaced int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM round_bids WHERE round_id = ?`, roundID).Scan(&bidsPlaced); err != nil {
		return repo.Game{}, err
	}
	if bidsPlaced == domain.NumSeats {
		if _, err := tx.ExecContext(ctx, `UPDATE game_rounds SET phase = 'TRUMP_SELECT' WHERE id = ?`, roundID); err != nil {
			return repo.Game{}, err
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`, gameID, expectedVersion)
	if err != nil {
		return repo.Game{}, err
	}
	if err := checkCAS(res, expectedVersion, ctx, tx, gameID); err != nil {
		return repo.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.Game{}, err
	}
	return d.GetGame(ctx, gameID)
}

func (d *DB) SaveTrump(ctx context.Context, gameID, roundID int64, trump domain.Trump, expectedVersion int32) (repo.Game, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return repo.Game{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE game_rounds SET trump = ?, phase = 'TRICK_PLAY' WHERE id = ?`, trump.String(), roundID); err != nil {
		return repo.Game{}, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`, gameID, expectedVersion)
	if err != nil {
		return repo.Game{}, err
	}
	if err := checkCAS(res, expectedVersion, ctx, tx, gameID); err != nil {
		return repo.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.Game{}, err
	}
	return d.GetGame(ctx, gameID)
}

func (d *DB) SavePlay(ctx context.Context, gameID, roundID int64, trickNo, seat int, card domain.Card, playOrder int, expectedVersion int32) (repo.Game, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return repo.Game{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO trick_plays (round_id, trick_no, seat, card, play_order) VALUES (?, ?, ?, ?, ?)`,
		roundID, trickNo, seat, card.String(), playOrder); err != nil {
		return repo.Game{}, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`, gameID, expectedVersion)
	if err != nil {
		return repo.Game{}, err
	}
	if err := checkCAS(res, expectedVersion, ctx, tx, gameID); err != nil {
		return repo.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.Game{}, err
	}
	return d.GetGame(ctx, gameID)
}

// SaveTrickResult records a resolved trick and, if it was the round's last
// (trick count == hand_size), flips the round to the Scoring phase — there
// is no separate "finish round" call, so this is the only place that
// transition can happen for the DB-backed game flow.
func (d *DB) SaveTrickResult(ctx context.Context, roundID int64, trickNo, leaderSeat, winnerSeat int) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO round_tricks (round_id, trick_no, leader_seat, winner_seat) VALUES (?, ?, ?, ?)`,
		roundID, trickNo, leaderSeat, winnerSeat); err != nil {
		return err
	}

	var handSize, trickCount int
	if err := tx.QueryRowContext(ctx, `SELECT hand_size FROM game_rounds WHERE id = ?`, roundID).Scan(&handSize); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM round_tricks WHERE round_id = ?`, roundID).Scan(&trickCount); err != nil {
		return err
	}
	if trickCount == handSize {
		if _, err := tx.ExecContext(ctx, `UPDATE game_rounds SET phase = 'SCORING' WHERE id = ?`, roundID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) SaveRoundScores(ctx context.Context, gameID, roundID int64, roundScores [domain.NumSeats]int32, expectedVersion int32) (repo.Game, error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return repo.Game{}, err
	}
	defer tx.Rollback()

	for seat, score := range roundScores {
		if _, err := tx.ExecContext(ctx, `INSERT INTO round_scores (game_id, round_id, seat, round_score) VALUES (?, ?, ?, ?)`,
			gameID, roundID, seat, score); err != nil {
			return repo.Game{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE game_rounds SET phase = 'DONE' WHERE id = ?`, roundID); err != nil {
		return repo.Game{}, err
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`, gameID, expectedVersion)
	if err != nil {
		return repo.Game{}, err
	}
	if err := checkCAS(res, expectedVersion, ctx, tx, gameID); err != nil {
		return repo.Game{}, err
	}
	if err := tx.Commit(); err != nil {
		return repo.Game{}, err
	}
	return d.GetGame(ctx, gameID)
}

func (d *DB) AdvanceRound(ctx context.Context, gameID int64, nextRoundNo int, expectedVersion int32) (repo.Game, error) {
	return d.casUpdateGame(ctx, gameID, expectedVersion, "current_round_no = ?", nextRoundNo)
}

func (d *DB) CompleteGame(ctx context.Context, gameID int64, expectedVersion int32) (repo.Game, error) {
	return d.casUpdateGame(ctx, gameID, expectedVersion, "status = ?", string(repo.GameStatusCompleted))
}

func (d *DB) AbandonGame(ctx context.Context, gameID int64, expectedVersion int32) (repo.Game, error) {
	return d.casUpdateGame(ctx, gameID, expectedVersion, "status = ?", string(repo.GameStatusAbandoned))
}

func (d *DB) AppendHistory(ctx context.Context, gameID int64, roundNo, seat int, action, detail string) error {
	_, err := d.ExecContext(ctx, `INSERT INTO game_history (game_id, round_no, seat, action, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		gameID, roundNo, seat, action, detail, time.Now())
	return err
}

// checkCAS inspects the RowsAffected of a games version-bump UPDATE run
// inside tx and returns apperrors.OptimisticLock (reading the game's
// current version within the same transaction) if expectedVersion was
// already stale.
func checkCAS(res sql.Result, expectedVersion int32, ctx context.Context, tx *sql.Tx, gameID int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	row := tx.QueryRowContext(ctx, `SELECT id, status, version, seed, starting_dealer_pos, current_round_no, created_at, updated_at FROM games WHERE id = ?`, gameID)
	current, err := scanGame(row)
	if err != nil {
		return err
	}
	return apperrors.OptimisticLock(expectedVersion, current.Version)
}

var _ repo.Store = (*DB)(nil)
