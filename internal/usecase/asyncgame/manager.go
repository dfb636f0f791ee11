package asyncgame

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dotcapture/internal/domain/board"
	"dotcapture/internal/domain/user"
	domainErrors "dotcapture/internal/errors"
	"dotcapture/internal/statuses"
	"dotcapture/internal/usecase/rating"
)

// ForfeitScore is the sentinel forced onto the winner when the player on
// turn misses their deadline. It sits above any reachable board score.
const ForfeitScore = 999

const (
	DefaultMaxActive    = 5
	DefaultRankedTurn   = 24 * time.Hour
	DefaultUnrankedTurn = 7 * 24 * time.Hour
)

// Game is the persistent, reconnect-tolerant representation. It is shaped
// independently of the realtime session: turns are bounded by a deadline
// instead of a live connection.
type Game struct {
	ID           string       `json:"id"`
	Player1ID    string       `json:"player1_id"`
	Player2ID    string       `json:"player2_id"`
	Board        *board.Board `json:"board"`
	Score1       int          `json:"score1"`
	Score2       int          `json:"score2"`
	Current      string       `json:"current"` // user id on turn
	TurnDeadline time.Time    `json:"turn_deadline"`
	LastMoveAt   time.Time    `json:"last_move_at"`
	Status       string       `json:"status"`
	Winner       string       `json:"winner,omitempty"`
	EndReason    string       `json:"end_reason,omitempty"`
	IsRanked     bool         `json:"is_ranked"`
	CreatedAt    time.Time    `json:"created_at"`
	Moves        []MoveRecord `json:"moves"`
}

type MoveRecord struct {
	UserID   string    `json:"user_id"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Captured int       `json:"captured"`
	PlayedAt time.Time `json:"played_at"`
}

// PlayerView is the player-relative projection handed to clients; the raw
// shared game is never exposed.
type PlayerView struct {
	GameID        string        `json:"game_id"`
	OpponentID    string        `json:"opponent_id"`
	MyScore       int           `json:"my_score"`
	TheirScore    int           `json:"their_score"`
	MyTurn        bool          `json:"my_turn"`
	TimeRemaining time.Duration `json:"time_remaining"`
	Status        string        `json:"status"`
	Winner        string        `json:"winner,omitempty"`
	IsRanked      bool          `json:"is_ranked"`
}

// MoveResult pairs the applied-move effect with a fresh snapshot.
type MoveResult struct {
	Captures []board.Point `json:"captures"`
	GameOver bool          `json:"game_over"`
	Game     *Game         `json:"game"`
}

// Manager owns every persistent game. The timeout sweep and foreground
// moves share the one mutex, so a game cannot be forfeited and played at
// the same instant.
type Manager struct {
	mu      sync.Mutex
	log     *zap.SugaredLogger
	ratings *rating.Service

	games    map[string]*Game
	byPlayer map[string][]string

	gridSize     int
	maxActive    int
	rankedTurn   time.Duration
	unrankedTurn time.Duration
	strategy     board.Strategy

	now func() time.Time
}

func NewManager(log *zap.SugaredLogger, ratings *rating.Service, gridSize int) *Manager {
	return &Manager{
		log:          log,
		ratings:      ratings,
		games:        make(map[string]*Game),
		byPlayer:     make(map[string][]string),
		gridSize:     gridSize,
		maxActive:    DefaultMaxActive,
		rankedTurn:   DefaultRankedTurn,
		unrankedTurn: DefaultUnrankedTurn,
		strategy:     board.NewFloodStrategy(),
		now:          time.Now,
	}
}

// SetLimits overrides the per-player cap and turn durations from config.
func (m *Manager) SetLimits(maxActive int, rankedTurn, unrankedTurn time.Duration) {
	if maxActive > 0 {
		m.maxActive = maxActive
	}
	if rankedTurn > 0 {
		m.rankedTurn = rankedTurn
	}
	if unrankedTurn > 0 {
		m.unrankedTurn = unrankedTurn
	}
}

func (m *Manager) turnLimit(ranked bool) time.Duration {
	if ranked {
		return m.rankedTurn
	}
	return m.unrankedTurn
}

// CreateGame starts a persistent game between two players. Each player may
// hold at most maxActive concurrently active games.
func (m *Manager) CreateGame(player1, player2 string, ranked bool) (*Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range []string{player1, player2} {
		if m.activeCountLocked(p) >= m.maxActive {
			return nil, domainErrors.ErrGameLimitReached
		}
	}

	now := m.now()
	g := &Game{
		ID:           uuid.New().String(),
		Player1ID:    player1,
		Player2ID:    player2,
		Board:        board.New(m.gridSize),
		Current:      player1,
		TurnDeadline: now.Add(m.turnLimit(ranked)),
		LastMoveAt:   now,
		Status:       statuses.StatusActive,
		IsRanked:     ranked,
		CreatedAt:    now,
	}
	m.games[g.ID] = g
	m.byPlayer[player1] = append(m.byPlayer[player1], g.ID)
	m.byPlayer[player2] = append(m.byPlayer[player2], g.ID)

	m.log.Infow("async game created", "game_id", g.ID, "player1", player1, "player2", player2, "ranked", ranked)
	return g, nil
}

func (m *Manager) activeCountLocked(playerID string) int {
	n := 0
	for _, id := range m.byPlayer[playerID] {
		if g, ok := m.games[id]; ok && g.Status == statuses.StatusActive {
			n++
		}
	}
	return n
}

// MakeMove applies one move, scores it through the shared capture engine,
// switches the turn and resets the deadline.
func (m *Manager) MakeMove(gameID, userID string, x, y int) (*MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, domainErrors.ErrGameNotFound
	}
	if g.Status != statuses.StatusActive {
		return nil, domainErrors.ErrGameNotInProgress
	}
	if g.playerOf(userID) == board.NoPlayer {
		return nil, domainErrors.ErrGameNotFound
	}
	if g.Current != userID {
		return nil, domainErrors.ErrNotYourTurn
	}

	mv := board.Move{Kind: board.MoveOccupy, Player: g.playerOf(userID), X: x, Y: y}
	res, err := m.strategy.Apply(g.Board, mv)
	if err != nil {
		return nil, err
	}

	points := 1 + len(res.Captured)
	if userID == g.Player1ID {
		g.Score1 += points
	} else {
		g.Score2 += points
	}
	for p, n := range res.Flipped {
		switch p {
		case board.Player1:
			g.Score1 -= n
		case board.Player2:
			g.Score2 -= n
		}
	}

	now := m.now()
	g.Moves = append(g.Moves, MoveRecord{UserID: userID, X: x, Y: y, Captured: len(res.Captured), PlayedAt: now})
	g.Current = g.opponentOf(userID)
	g.LastMoveAt = now
	g.TurnDeadline = now.Add(m.turnLimit(g.IsRanked))

	out := &MoveResult{Captures: res.Captured, Game: g}
	if g.Board.IsGameOver() {
		m.endLocked(g, statuses.StatusCompleted, "played out")
		out.GameOver = true
	}
	return out, nil
}

// SweepTimeouts forfeits every active game past its deadline: the player
// on turn loses, the opponent's score is forced to the sentinel. Returns
// the ids of the games it closed.
func (m *Manager) SweepTimeouts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var closed []string
	for _, g := range m.games {
		if g.Status != statuses.StatusActive || !g.TurnDeadline.Before(now) {
			continue
		}
		winner := g.opponentOf(g.Current)
		g.Winner = winner
		if winner == g.Player1ID {
			g.Score1 = ForfeitScore
		} else {
			g.Score2 = ForfeitScore
		}
		m.log.Infow("deadline missed", "game_id", g.ID, "timed_out", g.Current, "winner", winner)
		m.endLocked(g, statuses.StatusTimeout, "timeout")
		closed = append(closed, g.ID)
	}
	return closed
}

// EndGame finalizes a game, e.g. on resignation. A winner pinned before
// the call (forfeit paths) takes precedence over score comparison.
func (m *Manager) EndGame(gameID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return domainErrors.ErrGameNotFound
	}
	if g.Status != statuses.StatusActive {
		return domainErrors.ErrGameNotInProgress
	}
	m.endLocked(g, statuses.StatusCompleted, reason)
	return nil
}

// Resign pins the opponent as winner and finalizes.
func (m *Manager) Resign(gameID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return domainErrors.ErrGameNotFound
	}
	if g.Status != statuses.StatusActive {
		return domainErrors.ErrGameNotInProgress
	}
	if g.playerOf(userID) == board.NoPlayer {
		return domainErrors.ErrGameNotFound
	}
	g.Winner = g.opponentOf(userID)
	m.endLocked(g, statuses.StatusCompleted, "resigned")
	return nil
}

func (m *Manager) endLocked(g *Game, status, reason string) {
	g.Status = status
	g.EndReason = reason

	if g.Winner == "" {
		switch {
		case g.Score1 > g.Score2:
			g.Winner = g.Player1ID
		case g.Score2 > g.Score1:
			g.Winner = g.Player2ID
		}
	}

	if g.IsRanked && g.Winner != "" {
		result := 0.0
		if g.Winner == g.Player1ID {
			result = 1
		}
		if _, _, err := m.ratings.UpdateRatings(g.Player1ID, g.Player2ID, result); err != nil {
			m.log.Errorw("rating update failed", "game_id", g.ID, "error", err)
		}
	}
	m.ratings.RecordMatch(user.MatchRecord{
		GameID:     g.ID,
		Player1ID:  g.Player1ID,
		Player2ID:  g.Player2ID,
		WinnerID:   g.Winner,
		Score1:     g.Score1,
		Score2:     g.Score2,
		IsRanked:   g.IsRanked,
		Reason:     reason,
		FinishedAt: m.now(),
	})
}

// GameInfoFor projects the game for one participant: opponent identity,
// mine/theirs scores, time remaining and turn ownership.
func (m *Manager) GameInfoFor(gameID, userID string) (*PlayerView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, domainErrors.ErrGameNotFound
	}
	if g.playerOf(userID) == board.NoPlayer {
		return nil, domainErrors.ErrGameNotFound
	}
	return m.viewLocked(g, userID), nil
}

func (m *Manager) viewLocked(g *Game, userID string) *PlayerView {
	v := &PlayerView{
		GameID:     g.ID,
		OpponentID: g.opponentOf(userID),
		Status:     g.Status,
		Winner:     g.Winner,
		IsRanked:   g.IsRanked,
	}
	if userID == g.Player1ID {
		v.MyScore, v.TheirScore = g.Score1, g.Score2
	} else {
		v.MyScore, v.TheirScore = g.Score2, g.Score1
	}
	if g.Status == statuses.StatusActive {
		v.MyTurn = g.Current == userID
		if remaining := g.TurnDeadline.Sub(m.now()); remaining > 0 {
			v.TimeRemaining = remaining
		}
	}
	return v
}

// PlayerGames lists the player's games, games awaiting their move first,
// then by nearest deadline.
func (m *Manager) PlayerGames(userID string) []*PlayerView {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*PlayerView
	for _, id := range m.byPlayer[userID] {
		if g, ok := m.games[id]; ok {
			out = append(out, m.viewLocked(g, userID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MyTurn != out[j].MyTurn {
			return out[i].MyTurn
		}
		return out[i].TimeRemaining < out[j].TimeRemaining
	})
	return out
}

// Game returns the raw game for orchestration-level fallback lookups.
func (m *Manager) Game(gameID string) (*Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	return g, ok
}

func (g *Game) playerOf(userID string) board.Player {
	switch userID {
	case g.Player1ID:
		return board.Player1
	case g.Player2ID:
		return board.Player2
	}
	return board.NoPlayer
}

func (g *Game) opponentOf(userID string) string {
	if userID == g.Player1ID {
		return g.Player2ID
	}
	return g.Player1ID
}
