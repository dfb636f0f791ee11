package board

import (
	domainErrors "dotcapture/internal/errors"
)

// FloodStrategy implements the current capture rule: after every occupy,
// enclosure is recomputed for the mover over the whole board, since one
// move may close several disjoint regions or extend existing territory.
type FloodStrategy struct{}

func NewFloodStrategy() *FloodStrategy { return &FloodStrategy{} }

func (s *FloodStrategy) Apply(b *Board, mv Move) (*Result, error) {
	if mv.Kind != MoveOccupy {
		return nil, domainErrors.ErrInvalidMove
	}
	if err := validateOccupy(b, mv); err != nil {
		return nil, err
	}

	b.At(mv.X, mv.Y).Owner = mv.Player
	res := recomputeCaptures(b, mv.Player)
	b.Areas = append(b.Areas, res.Areas...)
	return res, nil
}

var orthogonal = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// recomputeCaptures runs an orthogonal flood fill from every not-yet-visited
// dot the mover does not own. The mover's dots act as walls; neutral and
// opposing dots are swallowed into the region. A region is captured iff the
// fill never reached the grid border and the region is non-empty.
func recomputeCaptures(b *Board, player Player) *Result {
	res := &Result{Flipped: make(map[Player]int)}
	visited := make([]bool, len(b.Dots))
	queue := make([]int, 0, len(b.Dots))

	for start := range b.Dots {
		if visited[start] || b.Dots[start].Owner == player {
			continue
		}

		region, enclosed := fillRegion(b, player, start, visited, queue[:0])
		if !enclosed || len(region) == 0 {
			continue
		}

		area := CapturedArea{Player: player, Dots: make([]Point, 0, len(region))}
		prevCaptured := len(res.Captured)
		for _, i := range region {
			d := &b.Dots[i]
			if d.Owner != NoPlayer {
				// opposing dot loses ownership entirely: territory flip
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
		// regions enclosed by an earlier move produce no new audit entry
		if len(res.Captured) > prevCaptured {
			res.Areas = append(res.Areas, area)
		}
	}
	return res
}

// fillRegion walks one connected component of non-player dots with an
// explicit breadth-first queue and a per-call visited slice. It reports
// the component and whether it stayed clear of the border.
func fillRegion(b *Board, player Player, start int, visited []bool, queue []int) ([]int, bool) {
	enclosed := true
	visited[start] = true
	queue = append(queue, start)
	region := []int{}

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		region = append(region, i)

		d := &b.Dots[i]
		if d.X == 0 || d.Y == 0 || d.X == b.Size-1 || d.Y == b.Size-1 {
			// touching the border means the region leaks out; keep
			// walking so the whole component is marked visited
			enclosed = false
		}

		for _, dir := range orthogonal {
			nx, ny := d.X+dir[0], d.Y+dir[1]
			if !b.InBounds(nx, ny) {
				continue
			}
			ni := b.index(nx, ny)
			if visited[ni] || b.Dots[ni].Owner == player {
				continue
			}
			visited[ni] = true
			queue = append(queue, ni)
		}
	}
	return region, enclosed
}
