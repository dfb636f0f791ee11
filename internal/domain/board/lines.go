package board

import (
	domainErrors "dotcapture/internal/errors"
)

// LineStrategy implements the legacy capture rule: players connect adjacent
// dots with edges, and a closed loop of one player's edges captures every
// dot strictly inside the polygon. Loop area comes from the Shoelace
// formula over cycles found by a bounded-depth traversal. The strategy
// itself is stateless; the edge adjacency lives on the board.
type LineStrategy struct {
	// MaxCycleLen bounds the traversal; longer loops are not searched.
	MaxCycleLen int
}

const defaultMaxCycleLen = 16

func NewLineStrategy() *LineStrategy {
	return &LineStrategy{MaxCycleLen: defaultMaxCycleLen}
}

func (s *LineStrategy) Apply(b *Board, mv Move) (*Result, error) {
	if mv.Kind != MoveDrawLine {
		return nil, domainErrors.ErrInvalidMove
	}
	if mv.Player != Player1 && mv.Player != Player2 {
		return nil, domainErrors.ErrInvalidMove
	}
	if !b.InBounds(mv.X, mv.Y) || !b.InBounds(mv.X2, mv.Y2) {
		return nil, domainErrors.ErrOutOfBounds
	}
	dx, dy := mv.X2-mv.X, mv.Y2-mv.Y
	if dx < -1 || dx > 1 || dy < -1 || dy > 1 || (dx == 0 && dy == 0) {
		return nil, domainErrors.ErrDotsNotAdjacent
	}

	a, c := b.index(mv.X, mv.Y), b.index(mv.X2, mv.Y2)
	for _, i := range [2]int{a, c} {
		d := &b.Dots[i]
		if d.Captured || (d.Owner != NoPlayer && d.Owner != mv.Player) {
			return nil, domainErrors.ErrDotOccupied
		}
	}

	if b.lines == nil {
		b.lines = make(map[Player]map[int][]int)
	}
	if b.lines[mv.Player] == nil {
		b.lines[mv.Player] = make(map[int][]int)
	}
	edges := b.lines[mv.Player]
	if containsInt(edges[a], c) {
		return nil, domainErrors.ErrDotOccupied
	}

	b.Dots[a].Owner = mv.Player
	b.Dots[c].Owner = mv.Player
	edges[a] = append(edges[a], c)
	edges[c] = append(edges[c], a)

	res := &Result{Flipped: make(map[Player]int)}
	for _, cycle := range s.findCycles(b, mv.Player, a, c) {
		if area := shoelaceArea(b, cycle); area > 0 {
			s.captureInterior(b, mv.Player, cycle, res)
		}
	}
	b.Areas = append(b.Areas, res.Areas...)
	return res, nil
}

// findCycles enumerates simple paths from one endpoint of the fresh edge
// back to the other, which together with the edge form closed loops.
func (s *LineStrategy) findCycles(b *Board, player Player, from, to int) [][]int {
	edges := b.lines[player]
	var cycles [][]int
	onPath := map[int]bool{to: true}
	path := []int{to}

	var walk func(cur int)
	walk = func(cur int) {
		if len(path) > s.MaxCycleLen {
			return
		}
		for _, next := range edges[cur] {
			if next == from && len(path) >= 3 {
				cycle := make([]int, len(path), len(path)+1)
				copy(cycle, path)
				cycles = append(cycles, append(cycle, from))
				continue
			}
			if onPath[next] || (cur == to && next == from) {
				continue
			}
			onPath[next] = true
			path = append(path, next)
			walk(next)
			path = path[:len(path)-1]
			delete(onPath, next)
		}
	}
	walk(to)
	return cycles
}

// shoelaceArea returns the absolute doubled polygon area of a cycle of
// dot indices, so any degenerate back-and-forth path evaluates to zero.
func shoelaceArea(b *Board, cycle []int) int {
	sum := 0
	for i := range cycle {
		p := b.Dots[cycle[i]]
		q := b.Dots[cycle[(i+1)%len(cycle)]]
		sum += p.X*q.Y - q.X*p.Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum
}

func (s *LineStrategy) captureInterior(b *Board, player Player, cycle []int, res *Result) {
	poly := make([]Point, len(cycle))
	onBoundary := make(map[int]bool, len(cycle))
	for i, idx := range cycle {
		poly[i] = Point{X: b.Dots[idx].X, Y: b.Dots[idx].Y}
		onBoundary[idx] = true
	}

	area := CapturedArea{Player: player}
	for i := range b.Dots {
		d := &b.Dots[i]
		if onBoundary[i] || d.Owner == player {
			continue
		}
		if !pointInPolygon(d.X, d.Y, poly) {
			continue
		}
		if d.Owner != NoPlayer {
			res.Flipped[d.Owner]++
			d.Owner = NoPlayer
		}
		if !d.Captured || d.CapturedBy != player {
			res.Captured = append(res.Captured, Point{X: d.X, Y: d.Y})
		}
		d.Captured = true
		d.CapturedBy = player
		area.Dots = append(area.Dots, Point{X: d.X, Y: d.Y})
	}
	if len(area.Dots) > 0 {
		res.Areas = append(res.Areas, area)
	}
}

// pointInPolygon is a standard ray cast; boundary vertices are excluded
// by the caller.
func pointInPolygon(x, y int, poly []Point) bool {
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > y) != (pj.Y > y) {
			cross := float64(pj.X-pi.X)*float64(y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(x) < cross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
