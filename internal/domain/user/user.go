package user

import "time"

const InitialRating = 1500

// RatingRecord is a player's ladder entry, lazily created at 1500.
type RatingRecord struct {
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
}

// MatchRecord is an immutable ledger entry. Win/loss/draw on the read
// side is derived from WinnerID, never re-derived from the scores.
type MatchRecord struct {
	GameID     string    `json:"game_id"`
	Player1ID  string    `json:"player1_id"`
	Player2ID  string    `json:"player2_id"`
	WinnerID   string    `json:"winner_id,omitempty"` // empty on a draw
	Score1     int       `json:"score1"`
	Score2     int       `json:"score2"`
	IsRanked   bool      `json:"is_ranked"`
	Reason     string    `json:"reason,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}
