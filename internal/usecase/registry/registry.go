package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dotcapture/internal/domain/board"
	"dotcapture/internal/domain/game"
	"dotcapture/internal/domain/user"
	domainErrors "dotcapture/internal/errors"
	"dotcapture/internal/usecase/rating"
)

// QueueEntry is one player waiting for an opponent. Entries live in one of
// two FIFO queues and leave on match, cancel or disconnect.
type QueueEntry struct {
	PlayerID string            `json:"player_id"`
	Data     map[string]string `json:"data,omitempty"`
	JoinedAt time.Time         `json:"joined_at"`
	IsRanked bool              `json:"is_ranked"`
}

// MatchResult is what AddToMatchmaking reports back.
type MatchResult struct {
	Status     string        `json:"status"` // "waiting" or "matched"
	GameID     string        `json:"game_id,omitempty"`
	OpponentID string        `json:"opponent_id,omitempty"`
	Session    *game.Session `json:"session,omitempty"`
}

// DisconnectResult names the forfeited game for notification.
type DisconnectResult struct {
	GameID        string `json:"game_id"`
	ForfeitWinner string `json:"forfeit_winner"`
}

type QueueStats struct {
	RankedWaiting   int `json:"ranked_waiting"`
	UnrankedWaiting int `json:"unranked_waiting"`
	ActiveGames     int `json:"active_games"`
}

// Registry owns every realtime session, the player index and both
// matchmaking queues. Goroutines from delivery and the cleanup sweep all
// land here, so the whole structure sits behind one mutex: matchmaking's
// dequeue-two-then-create-game step must not interleave.
type Registry struct {
	mu       sync.Mutex
	log      *zap.SugaredLogger
	ratings  *rating.Service
	gridSize int

	games    map[string]*game.Session
	byPlayer map[string]string // at most one active game per player
	settled  map[string]bool   // sessions already recorded and rated
	ranked   []QueueEntry
	unranked []QueueEntry

	now func() time.Time
}

func NewRegistry(log *zap.SugaredLogger, ratings *rating.Service, gridSize int) *Registry {
	return &Registry{
		log:      log,
		ratings:  ratings,
		gridSize: gridSize,
		games:    make(map[string]*game.Session),
		byPlayer: make(map[string]string),
		settled:  make(map[string]bool),
		now:      time.Now,
	}
}

// CreateGame opens a private session with the creator in slot 1.
func (r *Registry) CreateGame(creatorID string, ranked bool) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.byPlayer[creatorID]; busy {
		return nil, domainErrors.ErrAlreadyInGame
	}
	s := r.newSessionLocked(ranked)
	if _, err := s.AddPlayer(creatorID); err != nil {
		return nil, err
	}
	r.games[s.ID] = s
	r.byPlayer[creatorID] = s.ID
	r.log.Infow("game created", "game_id", s.ID, "creator", creatorID, "ranked", ranked)
	return s, nil
}

// JoinGame fills the open slot of an existing session.
func (r *Registry) JoinGame(gameID, playerID string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.games[gameID]
	if !ok {
		return nil, domainErrors.ErrGameNotFound
	}
	if _, busy := r.byPlayer[playerID]; busy {
		return nil, domainErrors.ErrAlreadyInGame
	}
	if _, err := s.AddPlayer(playerID); err != nil {
		return nil, err
	}
	r.byPlayer[playerID] = s.ID
	return s, nil
}

// AddToMatchmaking enqueues the player and tries to pair the two oldest
// entries of the target queue. No skill-based sorting: strictly FIFO.
func (r *Registry) AddToMatchmaking(playerID string, data map[string]string, isRanked bool) (*MatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.byPlayer[playerID]; busy {
		return nil, domainErrors.ErrAlreadyInGame
	}

	// idempotent: a repeated call moves the player to the back of the
	// requested queue instead of duplicating the entry
	r.dequeueLocked(playerID)

	entry := QueueEntry{PlayerID: playerID, Data: data, JoinedAt: r.now(), IsRanked: isRanked}
	q := &r.unranked
	if isRanked {
		q = &r.ranked
	}
	*q = append(*q, entry)

	if len(*q) < 2 {
		return &MatchResult{Status: "waiting"}, nil
	}

	first, second := (*q)[0], (*q)[1]
	*q = (*q)[2:]

	s := r.newSessionLocked(isRanked)
	if _, err := s.AddPlayer(first.PlayerID); err != nil {
		return nil, err
	}
	if _, err := s.AddPlayer(second.PlayerID); err != nil {
		return nil, err
	}
	r.games[s.ID] = s
	r.byPlayer[first.PlayerID] = s.ID
	r.byPlayer[second.PlayerID] = s.ID

	r.log.Infow("players matched",
		"game_id", s.ID, "player1", first.PlayerID, "player2", second.PlayerID, "ranked", isRanked)

	opponent := first.PlayerID
	if playerID == first.PlayerID {
		opponent = second.PlayerID
	}
	return &MatchResult{Status: "matched", GameID: s.ID, OpponentID: opponent, Session: s}, nil
}

// RemoveFromMatchmaking cancels a queued player. Lookups are
// side-effect-free: an absent player just returns false.
func (r *Registry) RemoveFromMatchmaking(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeueLocked(playerID)
}

func (r *Registry) dequeueLocked(playerID string) bool {
	removed := false
	for _, q := range []*[]QueueEntry{&r.ranked, &r.unranked} {
		for i := range *q {
			if (*q)[i].PlayerID == playerID {
				*q = append((*q)[:i], (*q)[i+1:]...)
				removed = true
				break
			}
		}
	}
	return removed
}

// MakeMove applies a move to the player's game and settles the session on
// game over.
func (r *Registry) MakeMove(gameID, playerID string, mv board.Move) (*game.MoveOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.games[gameID]
	if !ok {
		return nil, domainErrors.ErrGameNotFound
	}
	out, err := s.MakeMove(playerID, mv)
	if err != nil {
		return nil, err
	}
	if out.GameOver {
		r.settleLocked(s, "played out")
	}
	return out, nil
}

// HandleGameOver settles an already-terminal session: ratings when
// ranked, a ledger entry always.
func (r *Registry) HandleGameOver(gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.games[gameID]
	if !ok {
		return domainErrors.ErrGameNotFound
	}
	if !s.Finished() {
		return domainErrors.ErrGameNotInProgress
	}
	r.settleLocked(s, s.Status)
	return nil
}

// settleLocked runs once per session: updates ratings for ranked games,
// records the match, and frees the player index.
func (r *Registry) settleLocked(s *game.Session, reason string) {
	if r.settled[s.ID] {
		return
	}
	r.settled[s.ID] = true

	result := 0.5
	switch s.Winner {
	case s.Players[0]:
		result = 1
	case s.Players[1]:
		result = 0
	}

	if s.IsRanked {
		if _, _, err := r.ratings.UpdateRatings(s.Players[0], s.Players[1], result); err != nil {
			r.log.Errorw("rating update failed", "game_id", s.ID, "error", err)
		}
	}
	r.ratings.RecordMatch(user.MatchRecord{
		GameID:     s.ID,
		Player1ID:  s.Players[0],
		Player2ID:  s.Players[1],
		WinnerID:   s.Winner,
		Score1:     s.Scores[0],
		Score2:     s.Scores[1],
		IsRanked:   s.IsRanked,
		Reason:     reason,
		FinishedAt: r.now(),
	})

	for _, p := range s.Players {
		if r.byPlayer[p] == s.ID {
			delete(r.byPlayer, p)
		}
	}
}

// HandleDisconnect clears the player from queues and, if they were mid
// game, forfeits it to the opponent. Returns nil when nothing was
// affected.
func (r *Registry) HandleDisconnect(playerID string) *DisconnectResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dequeueLocked(playerID)

	gameID, ok := r.byPlayer[playerID]
	if !ok {
		return nil
	}
	s, ok := r.games[gameID]
	if !ok {
		delete(r.byPlayer, playerID)
		return nil
	}

	abandoned, winner, err := s.RemovePlayer(playerID)
	if err != nil {
		delete(r.byPlayer, playerID)
		return nil
	}
	if !abandoned {
		// game never started; drop it entirely
		delete(r.byPlayer, playerID)
		if s.Players[0] == "" && s.Players[1] == "" {
			delete(r.games, gameID)
		}
		return nil
	}

	r.log.Infow("player disconnected mid game", "game_id", gameID, "player", playerID, "winner", winner)
	r.settleLocked(s, "forfeit")
	return &DisconnectResult{GameID: gameID, ForfeitWinner: winner}
}

// GameInfo is a side-effect-free lookup.
func (r *Registry) GameInfo(gameID string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.games[gameID]
	return s, ok
}

// GameByPlayer resolves the player's active game, if any.
func (r *Registry) GameByPlayer(playerID string) (*game.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	s, ok := r.games[id]
	return s, ok
}

func (r *Registry) Stats() QueueStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := 0
	for _, s := range r.games {
		if !s.Finished() {
			active++
		}
	}
	return QueueStats{
		RankedWaiting:   len(r.ranked),
		UnrankedWaiting: len(r.unranked),
		ActiveGames:     active,
	}
}

// CleanupStale purges sessions that reached a terminal status longer than
// maxAge ago, along with any leftover index entries.
func (r *Registry) CleanupStale(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, s := range r.games {
		if !s.Finished() || s.EndedAt.After(cutoff) {
			continue
		}
		for _, p := range s.Players {
			if r.byPlayer[p] == id {
				delete(r.byPlayer, p)
			}
		}
		delete(r.games, id)
		delete(r.settled, id)
		removed++
	}
	if removed > 0 {
		r.log.Infow("stale sessions purged", "count", removed)
	}
	return removed
}

func (r *Registry) newSessionLocked(ranked bool) *game.Session {
	return game.NewSession(uuid.New().String(), r.gridSize, ranked, board.NewFloodStrategy())
}
