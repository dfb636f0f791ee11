package board

import (
	domainErrors "dotcapture/internal/errors"
)

// Player identifies a side on the board. Zero means no owner.
type Player int8

const (
	NoPlayer Player = 0
	Player1  Player = 1
	Player2  Player = 2
)

func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	}
	return NoPlayer
}

// Dot is a single grid cell. A dot stays clickable until somebody owns it
// or swallows it into territory. Owner and CapturedBy never contradict:
// when an owned dot is enclosed by the opponent its ownership is cleared.
type Dot struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Owner      Player `json:"owner"`
	Captured   bool   `json:"captured"`
	CapturedBy Player `json:"captured_by,omitempty"`
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CapturedArea is an append-only audit entry for one enclosed region.
type CapturedArea struct {
	Player Player  `json:"player"`
	Dots   []Point `json:"dots"`
}

// Board is a Size x Size grid stored as a flat slice addressed by
// y*Size+x, so results never depend on map iteration order.
type Board struct {
	Size int   `json:"size"`
	Dots []Dot `json:"dots"`

	// Areas is the historical capture log; it is never replayed.
	Areas []CapturedArea `json:"areas,omitempty"`

	// lines is the per-player edge adjacency of the legacy draw-line
	// variant. It lives on the board, not the strategy, so previews on
	// a clone cannot leak edges back into live state.
	lines map[Player]map[int][]int
}

func New(size int) *Board {
	b := &Board{
		Size: size,
		Dots: make([]Dot, size*size),
	}
	for i := range b.Dots {
		b.Dots[i].X = i % size
		b.Dots[i].Y = i / size
	}
	return b
}

func (b *Board) index(x, y int) int { return y*b.Size + x }

func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Size && y >= 0 && y < b.Size
}

// At returns the dot at (x, y). Callers must bounds-check first.
func (b *Board) At(x, y int) *Dot {
	return &b.Dots[b.index(x, y)]
}

// Clickable reports whether (x, y) may still be played on.
func (b *Board) Clickable(x, y int) bool {
	if !b.InBounds(x, y) {
		return false
	}
	d := b.At(x, y)
	return d.Owner == NoPlayer && !d.Captured
}

// IsGameOver reports whether no dot is both unowned and uncaptured.
func (b *Board) IsGameOver() bool {
	for i := range b.Dots {
		if b.Dots[i].Owner == NoPlayer && !b.Dots[i].Captured {
			return false
		}
	}
	return true
}

// Clone copies the full board state, including the capture log.
func (b *Board) Clone() *Board {
	c := &Board{
		Size: b.Size,
		Dots: make([]Dot, len(b.Dots)),
	}
	copy(c.Dots, b.Dots)
	if len(b.Areas) > 0 {
		c.Areas = make([]CapturedArea, len(b.Areas))
		copy(c.Areas, b.Areas)
	}
	if len(b.lines) > 0 {
		c.lines = make(map[Player]map[int][]int, len(b.lines))
		for p, edges := range b.lines {
			ce := make(map[int][]int, len(edges))
			for i, ns := range edges {
				ce[i] = append([]int(nil), ns...)
			}
			c.lines[p] = ce
		}
	}
	return c
}

// MoveKind discriminates the two historical board variants.
type MoveKind int8

const (
	// MoveOccupy claims a single dot (current variant).
	MoveOccupy MoveKind = iota + 1
	// MoveDrawLine draws an edge between two adjacent dots (legacy variant).
	MoveDrawLine
)

// Move is the tagged union of the two move kinds. X2/Y2 are only
// meaningful for MoveDrawLine.
type Move struct {
	Kind   MoveKind `json:"kind"`
	Player Player   `json:"player"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	X2     int      `json:"x2,omitempty"`
	Y2     int      `json:"y2,omitempty"`
}

// Result describes the board effect of one applied move.
type Result struct {
	// Captured lists dots newly taken for the mover; already-held
	// territory re-enclosed by the same player is not repeated here.
	Captured []Point
	// Flipped counts dots stripped from each former owner.
	Flipped map[Player]int
	// Areas holds the audit entries appended by this move.
	Areas []CapturedArea
}

// Strategy is a swappable capture rule set over the shared board.
type Strategy interface {
	Apply(b *Board, mv Move) (*Result, error)
}

// Preview applies mv to a throwaway copy of the board and reports what
// would happen. The original board is left untouched, which makes the
// call safe for UI hover previews.
func Preview(s Strategy, b *Board, mv Move) (*Result, error) {
	return s.Apply(b.Clone(), mv)
}

func validateOccupy(b *Board, mv Move) error {
	if mv.Player != Player1 && mv.Player != Player2 {
		return domainErrors.ErrInvalidMove
	}
	if !b.InBounds(mv.X, mv.Y) {
		return domainErrors.ErrOutOfBounds
	}
	if !b.Clickable(mv.X, mv.Y) {
		return domainErrors.ErrDotOccupied
	}
	return nil
}
