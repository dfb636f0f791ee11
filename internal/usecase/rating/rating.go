package rating

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"dotcapture/internal/domain/user"
	domainErrors "dotcapture/internal/errors"
)

const (
	// K-factor: fast convergence while the rating is provisional.
	kProvisional     = 64
	kStandard        = 32
	provisionalGames = 10
)

// Service owns the rating ledger. It is constructed once and threaded
// through the registries; there is no package-level state.
type Service struct {
	mu      sync.Mutex
	log     *zap.SugaredLogger
	players map[string]*user.RatingRecord
	matches []user.MatchRecord
}

func NewService(log *zap.SugaredLogger) *Service {
	return &Service{
		log:     log,
		players: make(map[string]*user.RatingRecord),
	}
}

// Rating returns a copy of the player's record, creating it at 1500 on
// first sight.
func (s *Service) Rating(playerID string) user.RatingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.record(playerID)
}

func (s *Service) record(playerID string) *user.RatingRecord {
	r, ok := s.players[playerID]
	if !ok {
		r = &user.RatingRecord{PlayerID: playerID, Rating: user.InitialRating}
		s.players[playerID] = r
	}
	return r
}

// ExpectedScore is the classic Elo expectation for a versus b.
func ExpectedScore(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

func kFactor(gamesPlayed int) int {
	if gamesPlayed < provisionalGames {
		return kProvisional
	}
	return kStandard
}

// UpdateRatings settles a match between p1 and p2. Result is p1's actual
// score: 1 win, 0 loss, 0.5 draw. Both records change under one lock; a
// partial update would corrupt the ladder.
func (s *Service) UpdateRatings(p1, p2 string, result float64) (user.RatingRecord, user.RatingRecord, error) {
	if result != 0 && result != 0.5 && result != 1 {
		return user.RatingRecord{}, user.RatingRecord{}, domainErrors.ErrInvalidResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r1 := s.record(p1)
	r2 := s.record(p2)

	e1 := ExpectedScore(r1.Rating, r2.Rating)
	e2 := ExpectedScore(r2.Rating, r1.Rating)

	k1 := kFactor(r1.GamesPlayed)
	k2 := kFactor(r2.GamesPlayed)

	r1.Rating = int(math.Round(float64(r1.Rating) + float64(k1)*(result-e1)))
	r2.Rating = int(math.Round(float64(r2.Rating) + float64(k2)*((1-result)-e2)))

	r1.GamesPlayed++
	r2.GamesPlayed++
	switch result {
	case 1:
		r1.Wins++
		r2.Losses++
	case 0:
		r1.Losses++
		r2.Wins++
	default:
		r1.Draws++
		r2.Draws++
	}

	s.log.Infow("ratings updated",
		"p1", p1, "r1", r1.Rating,
		"p2", p2, "r2", r2.Rating,
		"result", result)
	return *r1, *r2, nil
}

// RecordMatch appends to the ledger. Ranked and unranked matches are both
// recorded; only rating updates are gated on ranked.
func (s *Service) RecordMatch(m user.MatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, m)
}

// MatchHistory returns the most recent matches involving the player,
// newest first.
func (s *Service) MatchHistory(playerID string, limit int) []user.MatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []user.MatchRecord
	for i := len(s.matches) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := s.matches[i]
		if m.Player1ID == playerID || m.Player2ID == playerID {
			out = append(out, m)
		}
	}
	return out
}

// Leaderboard returns rating records sorted by rating descending.
func (s *Service) Leaderboard(limit int) []user.RatingRecord {
	s.mu.Lock()
	out := make([]user.RatingRecord, 0, len(s.players))
	for _, r := range s.players {
		out = append(out, *r)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
