package game

import (
	"time"

	"dotcapture/internal/domain/board"
	domainErrors "dotcapture/internal/errors"
	"dotcapture/internal/statuses"
)

// Session wraps one board with players, turn order, scores and status.
// Status only advances waiting -> playing -> finished | abandoned, and
// Winner is set in terminal states only.
type Session struct {
	ID        string         `json:"id"`
	Board     *board.Board   `json:"board"`
	Players   [2]string      `json:"players"`
	Scores    [2]int         `json:"scores"`
	Current   int            `json:"current"` // slot index, 0 or 1
	Status    string         `json:"status"`
	Moves     []MoveRecord   `json:"moves"`
	Winner    string         `json:"winner,omitempty"` // empty on tie or while running
	IsRanked  bool           `json:"is_ranked"`
	CreatedAt time.Time      `json:"created_at"`
	StartedAt time.Time      `json:"started_at,omitempty"`
	EndedAt   time.Time      `json:"ended_at,omitempty"`
	Strategy  board.Strategy `json:"-"`
}

type MoveRecord struct {
	PlayerID string     `json:"player_id"`
	Move     board.Move `json:"move"`
	Captured int        `json:"captured"`
	PlayedAt time.Time  `json:"played_at"`
}

// MoveOutcome is what a successfully applied move reports back.
type MoveOutcome struct {
	Captures      []board.Point `json:"captures"`
	ContinuesTurn bool          `json:"continues_turn"` // always false: no bonus turn on capture
	CurrentPlayer string        `json:"current_player"`
	GameOver      bool          `json:"game_over"`
	Winner        string        `json:"winner,omitempty"`
}

func NewSession(id string, size int, ranked bool, strategy board.Strategy) *Session {
	return &Session{
		ID:        id,
		Board:     board.New(size),
		Status:    statuses.StatusWaiting,
		IsRanked:  ranked,
		CreatedAt: time.Now(),
		Strategy:  strategy,
	}
}

// AddPlayer assigns the first open slot. The session starts as soon as
// both slots are filled.
func (s *Session) AddPlayer(playerID string) (slot int, err error) {
	if s.HasPlayer(playerID) {
		return 0, domainErrors.ErrSlotTaken
	}
	for i := range s.Players {
		if s.Players[i] == "" {
			s.Players[i] = playerID
			if s.Players[0] != "" && s.Players[1] != "" && s.Status == statuses.StatusWaiting {
				s.Status = statuses.StatusPlaying
				s.StartedAt = time.Now()
			}
			return i, nil
		}
	}
	return 0, domainErrors.ErrGameFull
}

// RemovePlayer frees the player's slot. Leaving a running game is an
// abandonment: the remaining player wins immediately, no score comparison.
func (s *Session) RemovePlayer(playerID string) (abandoned bool, winner string, err error) {
	slot := s.slotOf(playerID)
	if slot < 0 {
		return false, "", domainErrors.ErrGameNotFound
	}
	if s.Status == statuses.StatusPlaying {
		s.Status = statuses.StatusAbandoned
		s.Winner = s.Players[1-slot]
		s.EndedAt = time.Now()
		return true, s.Winner, nil
	}
	s.Players[slot] = ""
	return false, "", nil
}

// MakeMove validates turn and status, delegates to the capture strategy,
// scores the move and always advances the turn.
func (s *Session) MakeMove(playerID string, mv board.Move) (*MoveOutcome, error) {
	if s.Status != statuses.StatusPlaying {
		return nil, domainErrors.ErrGameNotInProgress
	}
	slot := s.slotOf(playerID)
	if slot < 0 || slot != s.Current {
		return nil, domainErrors.ErrNotYourTurn
	}

	mv.Player = board.Player(slot + 1)
	res, err := s.Strategy.Apply(s.Board, mv)
	if err != nil {
		return nil, err
	}

	// mover earns the dot itself plus everything newly enclosed;
	// flipped territory comes off the former owner's score
	s.Scores[slot] += 1 + len(res.Captured)
	for p, n := range res.Flipped {
		if p == board.Player1 || p == board.Player2 {
			s.Scores[p-1] -= n
		}
	}

	s.Moves = append(s.Moves, MoveRecord{
		PlayerID: playerID,
		Move:     mv,
		Captured: len(res.Captured),
		PlayedAt: time.Now(),
	})
	s.Current = 1 - s.Current

	out := &MoveOutcome{
		Captures:      res.Captured,
		CurrentPlayer: s.Players[s.Current],
	}
	if s.Board.IsGameOver() {
		s.finish()
		out.GameOver = true
		out.Winner = s.Winner
	}
	return out, nil
}

func (s *Session) finish() {
	s.Status = statuses.StatusFinished
	s.EndedAt = time.Now()
	switch {
	case s.Scores[0] > s.Scores[1]:
		s.Winner = s.Players[0]
	case s.Scores[1] > s.Scores[0]:
		s.Winner = s.Players[1]
	}
}

func (s *Session) HasPlayer(playerID string) bool {
	return s.slotOf(playerID) >= 0
}

func (s *Session) slotOf(playerID string) int {
	if playerID == "" {
		return -1
	}
	for i := range s.Players {
		if s.Players[i] == playerID {
			return i
		}
	}
	return -1
}

// Finished reports whether the session reached a terminal status.
func (s *Session) Finished() bool {
	return s.Status == statuses.StatusFinished || s.Status == statuses.StatusAbandoned
}
