package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dotcapture/internal/domain/user"
	domainErrors "dotcapture/internal/errors"
)

func newTestService() *Service {
	return NewService(zap.NewNop().Sugar())
}

func TestLazyRatingCreation(t *testing.T) {
	s := newTestService()

	r := s.Rating("alice")
	assert.Equal(t, 1500, r.Rating)
	assert.Equal(t, 0, r.GamesPlayed)
	assert.Equal(t, "alice", r.PlayerID)
}

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-9)
	assert.InDelta(t, 0.64, ExpectedScore(1600, 1500), 0.005)
	assert.InDelta(t, 1.0, ExpectedScore(1500, 1500)+ExpectedScore(1500, 1500), 1e-9)
}

func TestProvisionalWinAppliesK64(t *testing.T) {
	s := newTestService()

	r1, r2, err := s.UpdateRatings("alice", "bob", 1)
	require.NoError(t, err)

	// equal ratings, provisional K: round(64 * 0.5) = 32 either way
	assert.Equal(t, 1532, r1.Rating)
	assert.Equal(t, 1468, r2.Rating)
	assert.Equal(t, 1, r1.GamesPlayed)
	assert.Equal(t, 1, r1.Wins)
	assert.Equal(t, 1, r2.Losses)
}

func TestEqualRatingsDeltasAreSymmetric(t *testing.T) {
	s := newTestService()

	r1, r2, err := s.UpdateRatings("alice", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, r1.Rating-1500, 1500-r2.Rating)
}

func TestDrawAtEqualRatingsChangesNothing(t *testing.T) {
	s := newTestService()

	r1, r2, err := s.UpdateRatings("alice", "bob", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1500, r1.Rating)
	assert.Equal(t, 1500, r2.Rating)
	assert.Equal(t, 1, r1.Draws)
	assert.Equal(t, 1, r2.Draws)
}

func TestStandardKAfterTenGames(t *testing.T) {
	s := newTestService()
	for i := 0; i < 10; i++ {
		_, _, err := s.UpdateRatings("alice", "bob", 0.5)
		require.NoError(t, err)
	}

	before := s.Rating("alice").Rating
	r1, _, err := s.UpdateRatings("alice", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, before+16, r1.Rating, "K=32 once past provisional games")
}

func TestInvalidResultRejected(t *testing.T) {
	s := newTestService()
	_, _, err := s.UpdateRatings("alice", "bob", 0.3)
	assert.ErrorIs(t, err, domainErrors.ErrInvalidResult)
}

func TestLeaderboardSortedByRatingDesc(t *testing.T) {
	s := newTestService()
	_, _, _ = s.UpdateRatings("alice", "bob", 1)
	_, _, _ = s.UpdateRatings("carol", "bob", 1)

	lb := s.Leaderboard(0)
	require.Len(t, lb, 3)
	for i := 1; i < len(lb); i++ {
		assert.GreaterOrEqual(t, lb[i-1].Rating, lb[i].Rating)
	}
	assert.Equal(t, "bob", lb[2].PlayerID)

	assert.Len(t, s.Leaderboard(2), 2)
}

func TestMatchHistoryDerivedFromWinnerID(t *testing.T) {
	s := newTestService()
	s.RecordMatch(user.MatchRecord{GameID: "g1", Player1ID: "alice", Player2ID: "bob", WinnerID: "alice", FinishedAt: time.Now()})
	s.RecordMatch(user.MatchRecord{GameID: "g2", Player1ID: "bob", Player2ID: "carol", WinnerID: "", FinishedAt: time.Now()})
	s.RecordMatch(user.MatchRecord{GameID: "g3", Player1ID: "carol", Player2ID: "alice", WinnerID: "carol", FinishedAt: time.Now()})

	hist := s.MatchHistory("alice", 0)
	require.Len(t, hist, 2)
	assert.Equal(t, "g3", hist[0].GameID, "newest first")
	assert.Equal(t, "carol", hist[0].WinnerID)
	assert.Equal(t, "g1", hist[1].GameID)

	assert.Len(t, s.MatchHistory("bob", 1), 1)
	assert.Empty(t, s.MatchHistory("nobody", 0))
}
