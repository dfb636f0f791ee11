package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "dotcapture/internal/errors"
)

func occupy(t *testing.T, s Strategy, b *Board, x, y int, p Player) *Result {
	t.Helper()
	res, err := s.Apply(b, Move{Kind: MoveOccupy, Player: p, X: x, Y: y})
	require.NoError(t, err)
	return res
}

func TestOccupyValidation(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	_, err := s.Apply(b, Move{Kind: MoveOccupy, Player: Player1, X: 5, Y: 0})
	assert.ErrorIs(t, err, domainErrors.ErrOutOfBounds)

	occupy(t, s, b, 1, 1, Player1)
	_, err = s.Apply(b, Move{Kind: MoveOccupy, Player: Player2, X: 1, Y: 1})
	assert.ErrorIs(t, err, domainErrors.ErrDotOccupied)

	_, err = s.Apply(b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 0, X2: 0, Y2: 1})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidMove)
}

// Ring of eight dots around (2,2) on a 5x5 board. The flood fill is
// orthogonal, so the enclosure completes with the fourth orthogonal
// neighbor (2,3); the diagonal (3,3) adds nothing.
func TestEnclosureCapturesCenter(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	for _, p := range []Point{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {3, 2}, {1, 3}} {
		res := occupy(t, s, b, p.X, p.Y, Player1)
		assert.Empty(t, res.Captured, "region still leaks before the surround completes")
	}

	res := occupy(t, s, b, 2, 3, Player1)
	require.Len(t, res.Captured, 1)
	assert.Equal(t, Point{X: 2, Y: 2}, res.Captured[0])
	require.Len(t, res.Areas, 1)
	assert.Equal(t, Player1, res.Areas[0].Player)

	res = occupy(t, s, b, 3, 3, Player1)
	assert.Empty(t, res.Captured, "center must not be reported twice")
	assert.Empty(t, res.Areas)

	center := b.At(2, 2)
	assert.True(t, center.Captured)
	assert.Equal(t, Player1, center.CapturedBy)
	assert.Equal(t, NoPlayer, center.Owner)
	assert.False(t, b.Clickable(2, 2))
}

func TestBorderDotIsNeverCaptured(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	// surround the corner dot (0,0) as tightly as the grid allows
	occupy(t, s, b, 1, 0, Player1)
	res := occupy(t, s, b, 0, 1, Player1)

	assert.Empty(t, res.Captured)
	corner := b.At(0, 0)
	assert.False(t, corner.Captured)
	assert.True(t, b.Clickable(0, 0))
}

func TestEnclosedOpponentDotFlips(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	occupy(t, s, b, 2, 2, Player2)

	for _, p := range []Point{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {3, 2}, {1, 3}} {
		occupy(t, s, b, p.X, p.Y, Player1)
	}
	res := occupy(t, s, b, 2, 3, Player1)

	require.Len(t, res.Captured, 1)
	assert.Equal(t, 1, res.Flipped[Player2])

	flipped := b.At(2, 2)
	assert.Equal(t, NoPlayer, flipped.Owner, "flipped dot loses ownership entirely")
	assert.True(t, flipped.Captured)
	assert.Equal(t, Player1, flipped.CapturedBy)
}

func TestReEnclosureIsIdempotentPerPlayer(t *testing.T) {
	s := NewFloodStrategy()
	b := New(7)

	ring := []Point{{2, 2}, {3, 2}, {4, 2}, {2, 3}, {4, 3}, {2, 4}, {3, 4}, {4, 4}}
	for _, p := range ring {
		occupy(t, s, b, p.X, p.Y, Player1)
	}
	require.True(t, b.At(3, 3).Captured)

	// extending the territory must not report the center again
	res := occupy(t, s, b, 5, 3, Player1)
	assert.Empty(t, res.Captured)
	assert.True(t, b.At(3, 3).Captured)
}

// One move may close several disjoint regions at once.
func TestSingleMoveClosesTwoRegions(t *testing.T) {
	s := NewFloodStrategy()
	b := New(7)

	// pockets (2,2) and (4,2) both drain to the border through (3,2),
	// then up the open column at x=3
	for _, p := range []Point{
		{2, 1}, {1, 2}, {2, 3},
		{4, 1}, {5, 2}, {4, 3},
		{3, 3},
	} {
		res := occupy(t, s, b, p.X, p.Y, Player1)
		assert.Empty(t, res.Captured)
	}
	res := occupy(t, s, b, 3, 2, Player1)

	require.Len(t, res.Captured, 2)
	assert.Len(t, res.Areas, 2)
	assert.True(t, b.At(2, 2).Captured)
	assert.True(t, b.At(4, 2).Captured)
}

func TestPreviewLeavesBoardUntouched(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	for _, p := range []Point{{1, 1}, {2, 1}, {3, 1}, {1, 2}, {3, 2}, {1, 3}} {
		occupy(t, s, b, p.X, p.Y, Player1)
	}

	before := b.Clone()
	res, err := Preview(s, b, Move{Kind: MoveOccupy, Player: Player1, X: 2, Y: 3})
	require.NoError(t, err)
	require.Len(t, res.Captured, 1)

	assert.Equal(t, before.Dots, b.Dots)
	assert.Equal(t, before.Areas, b.Areas)
	assert.True(t, b.Clickable(2, 3), "previewed move must not stick")
	assert.True(t, b.Clickable(2, 2), "previewed capture must not stick")
}

func TestIsGameOver(t *testing.T) {
	s := NewFloodStrategy()
	b := New(2)
	assert.False(t, b.IsGameOver())

	occupy(t, s, b, 0, 0, Player1)
	occupy(t, s, b, 0, 1, Player2)
	occupy(t, s, b, 1, 0, Player1)
	assert.False(t, b.IsGameOver())

	occupy(t, s, b, 1, 1, Player2)
	assert.True(t, b.IsGameOver())
}

// Every dot is exactly one of unowned-uncaptured, owned, or captured.
func TestDotStatesNeverContradict(t *testing.T) {
	s := NewFloodStrategy()
	b := New(5)

	moves := []struct {
		p    Point
		side Player
	}{
		{Point{2, 2}, Player2}, {Point{1, 1}, Player1}, {Point{2, 1}, Player1},
		{Point{3, 1}, Player1}, {Point{1, 2}, Player1}, {Point{3, 2}, Player1},
		{Point{1, 3}, Player1}, {Point{2, 3}, Player1}, {Point{3, 3}, Player1},
		{Point{0, 0}, Player2}, {Point{4, 4}, Player2},
	}
	for _, m := range moves {
		occupy(t, s, b, m.p.X, m.p.Y, m.side)
		for i := range b.Dots {
			d := b.Dots[i]
			if d.Captured {
				require.NotEqual(t, d.CapturedBy, d.Owner,
					"dot (%d,%d) owned and captured by the same player", d.X, d.Y)
			}
		}
	}
}
