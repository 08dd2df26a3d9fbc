package pg

import "database/sql"

// migrate creates the schema if it doesn't already exist, following the
// teacher's Postgres migrate() idiom (Pelentan-swarm-blackjack/bank-service
// db.go): one CREATE TABLE IF NOT EXISTS per statement, BIGSERIAL primary
// keys, TIMESTAMPTZ defaults. Same logical schema as internal/repo/sqlite,
// Postgres-flavored types only.
func migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			seed BIGINT NOT NULL,
			starting_dealer_pos INTEGER NOT NULL,
			current_round_no INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ai_profiles (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			difficulty TEXT NOT NULL
		)`,
		`INSERT INTO ai_profiles (id, name, difficulty) VALUES (1, 'heuristic', 'standard') ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS game_players (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			human_user_or_seat_id BIGINT NOT NULL,
			is_ready BOOLEAN NOT NULL DEFAULT FALSE,
			ai_profile_id BIGINT REFERENCES ai_profiles(id),
			consecutive_zero_bids INTEGER NOT NULL DEFAULT 0,
			UNIQUE(game_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS game_rounds (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_no INTEGER NOT NULL,
			hand_size INTEGER NOT NULL,
			dealer_pos INTEGER NOT NULL,
			trump TEXT,
			phase TEXT NOT NULL DEFAULT 'BIDDING',
			UNIQUE(game_id, round_no)
		)`,
		`CREATE TABLE IF NOT EXISTS round_hands (
			round_id BIGINT NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			cards JSONB NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_bids (
			round_id BIGINT NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			bid INTEGER NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_tricks (
			round_id BIGINT NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			trick_no INTEGER NOT NULL,
			leader_seat INTEGER NOT NULL,
			winner_seat INTEGER NOT NULL,
			PRIMARY KEY (round_id, trick_no)
		)`,
		`CREATE TABLE IF NOT EXISTS trick_plays (
			round_id BIGINT NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			trick_no INTEGER NOT NULL,
			seat INTEGER NOT NULL,
			card TEXT NOT NULL,
			play_order INTEGER NOT NULL,
			PRIMARY KEY (round_id, trick_no, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS round_scores (
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_id BIGINT NOT NULL REFERENCES game_rounds(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			round_score INTEGER NOT NULL,
			PRIMARY KEY (round_id, seat)
		)`,
		`CREATE TABLE IF NOT EXISTS game_history (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			round_no INTEGER NOT NULL,
			seat INTEGER NOT NULL,
			action TEXT NOT NULL,
			detail TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_history_game ON game_history(game_id, created_at)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
