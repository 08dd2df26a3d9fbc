package sqlite

import "database/sql"

// createTables builds the schema if it doesn't already exist, following
// the teacher's CREATE TABLE IF NOT EXISTS-per-statement idiom
// (pkg/server/internal/db/db.go's createTables). A hand's dealt set is
// stored as a JSON array of two-character tokens rather than normalized
// rows: a hand is never queried card-by-card, only loaded or subtracted
// from in bulk. A played card is a single token in trick_plays.card.
func createTables(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			seed INTEGER NOT NULL,
			starting_dealer_pos INTEGER NOT NULL,
			current_round_no INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ai_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			difficulty TEXT NOT NULL
		)`,
		`INSERT OR IGNORE INTO ai_profiles (id, name, difficulty) VALUES (1, 'heuristic', 'standard')`,
		`CREATE TABLE IF NOT EXISTS game_players (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			human_user_or_seat_id INTEGER NOT NULL,
			is_ready BOOLEAN NOT NULL DEFAULT FALSE,
			ai_profile_id INTEGER REFERENCES ai_profiles(id),
			consecutive_zero_bids INTEGER NOT NULL DEFAULT 0,
			UNIQUE(game_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS game_rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_no INTEGER NOT NULL,
			hand_size INTEGER NOT NULL,
			dealer_pos INTEGER NOT NULL,
			trump TEXT,
			phase TEXT NOT NULL DEFAULT 'BIDDING',
			UNIQUE(game_id, round_no)
		)`,
		`CREATE TABLE IF NOT EXISTS round_hands (
			round_id INTEGER NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			cards TEXT NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_bids (
			round_id INTEGER NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			bid INTEGER NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_tricks (
			round_id INTEGER NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			trick_no INTEGER NOT NULL,
			leader_seat INTEGER NOT NULL,
			winner_seat INTEGER NOT NULL,
			PRIMARY KEY (round_id, trick_no)
		)`,
		`CREATE TABLE IF NOT EXISTS trick_plays (
			round_id INTEGER NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			trick_no INTEGER NOT NULL,
			seat INTEGER NOT NULL,
			card TEXT NOT NULL,
			play_order INTEGER NOT NULL,
			PRIMARY KEY (round_id, trick_no, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_scores (
			game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_id INTEGER NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			round_score INTEGER NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS game_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_no INTEGER NOT NULL,
			seat INTEGER NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
