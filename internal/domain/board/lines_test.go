package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "dotcapture/internal/errors"
)

func drawLine(t *testing.T, s Strategy, b *Board, x, y, x2, y2 int, p Player) *Result {
	t.Helper()
	res, err := s.Apply(b, Move{Kind: MoveDrawLine, Player: p, X: x, Y: y, X2: x2, Y2: y2})
	require.NoError(t, err)
	return res
}

func TestDrawLineValidation(t *testing.T) {
	s := NewLineStrategy()
	b := New(5)

	_, err := s.Apply(b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 0, X2: 2, Y2: 0})
	assert.ErrorIs(t, err, domainErrors.ErrDotsNotAdjacent)

	_, err = s.Apply(b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 0, X2: 0, Y2: 0})
	assert.ErrorIs(t, err, domainErrors.ErrDotsNotAdjacent)

	_, err = s.Apply(b, Move{Kind: MoveDrawLine, Player: Player1, X: 4, Y: 4, X2: 5, Y2: 4})
	assert.ErrorIs(t, err, domainErrors.ErrOutOfBounds)

	_, err = s.Apply(b, Move{Kind: MoveOccupy, Player: Player1, X: 0, Y: 0})
	assert.ErrorIs(t, err, domainErrors.ErrInvalidMove)

	drawLine(t, s, b, 0, 0, 1, 0, Player1)
	_, err = s.Apply(b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 0, X2: 1, Y2: 0})
	assert.ErrorIs(t, err, domainErrors.ErrDotOccupied)
}

// Closing a loop around (1,1) captures it; the Shoelace area of the ring
// is positive so the cycle counts.
func TestClosedLoopCapturesInterior(t *testing.T) {
	s := NewLineStrategy()
	b := New(5)

	ring := []Point{
		{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1},
	}
	for i := 0; i < len(ring)-1; i++ {
		res := drawLine(t, s, b, ring[i].X, ring[i].Y, ring[i+1].X, ring[i+1].Y, Player1)
		assert.Empty(t, res.Captured, "open chain must not capture")
	}

	res := drawLine(t, s, b, ring[len(ring)-1].X, ring[len(ring)-1].Y, ring[0].X, ring[0].Y, Player1)
	require.Len(t, res.Captured, 1)
	assert.Equal(t, Point{X: 1, Y: 1}, res.Captured[0])

	center := b.At(1, 1)
	assert.True(t, center.Captured)
	assert.Equal(t, Player1, center.CapturedBy)
}

func TestLoopFlipsEnclosedOpponentDot(t *testing.T) {
	s := NewLineStrategy()
	b := New(5)
	b.At(1, 1).Owner = Player2

	ring := []Point{
		{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1},
	}
	for i := 0; i < len(ring)-1; i++ {
		drawLine(t, s, b, ring[i].X, ring[i].Y, ring[i+1].X, ring[i+1].Y, Player1)
	}
	res := drawLine(t, s, b, ring[len(ring)-1].X, ring[len(ring)-1].Y, ring[0].X, ring[0].Y, Player1)

	assert.Equal(t, 1, res.Flipped[Player2])
	assert.Equal(t, NoPlayer, b.At(1, 1).Owner)
	assert.Equal(t, Player1, b.At(1, 1).CapturedBy)
}

// A previewed edge must not linger anywhere: the same edge played for
// real right afterwards has to succeed.
func TestPreviewDrawLineLeavesEdgePlayable(t *testing.T) {
	s := NewLineStrategy()
	b := New(5)

	_, err := Preview(s, b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 0, X2: 1, Y2: 0})
	require.NoError(t, err)
	assert.Equal(t, NoPlayer, b.At(0, 0).Owner)

	res := drawLine(t, s, b, 0, 0, 1, 0, Player1)
	assert.Empty(t, res.Captured)
	assert.Equal(t, Player1, b.At(0, 0).Owner)
}

func TestPreviewClosingEdgeDoesNotLeakCycle(t *testing.T) {
	s := NewLineStrategy()
	b := New(5)

	ring := []Point{
		{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1},
	}
	for i := 0; i < len(ring)-1; i++ {
		drawLine(t, s, b, ring[i].X, ring[i].Y, ring[i+1].X, ring[i+1].Y, Player1)
	}

	before := b.Clone()
	res, err := Preview(s, b, Move{Kind: MoveDrawLine, Player: Player1, X: 0, Y: 1, X2: 0, Y2: 0})
	require.NoError(t, err)
	require.Len(t, res.Captured, 1)

	assert.Equal(t, before.Dots, b.Dots)
	assert.False(t, b.At(1, 1).Captured, "previewed loop must not stick")

	// the real closing edge still works and captures exactly once
	res = drawLine(t, s, b, 0, 1, 0, 0, Player1)
	require.Len(t, res.Captured, 1)
	assert.Equal(t, Point{X: 1, Y: 1}, res.Captured[0])
}

func TestDegeneratePathHasNoArea(t *testing.T) {
	b := New(5)
	// out-and-back along a row encloses nothing
	cycle := []int{b.index(0, 0), b.index(1, 0), b.index(2, 0), b.index(1, 0)}
	assert.Equal(t, 0, shoelaceArea(b, cycle))
}
