// 关于蛇的移动、转向与生长
package snake

import (
	"github.com/hoshinonyaruko/snake-in-browser/grid"
	"github.com/hoshinonyaruko/snake-in-browser/helpers"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// Snake 蛇头在 segments[0]，其余为尾部。turns 记录蛇头的转向，
// 尾部走到转向位置时沿用转向前的方向，从而绕过拐角。
type Snake struct {
	segments  []structs.Segment
	direction structs.Direction
	turns     []structs.Turn
	cellSize  int
}

// New returns a head-only snake at head moving in dir.
func New(head structs.Position, dir structs.Direction, cellSize int) *Snake {
	return &Snake{
		segments:  []structs.Segment{{Position: head, Direction: dir}},
		direction: dir,
		cellSize:  cellSize,
	}
}

func (s *Snake) Head() structs.Position       { return s.segments[0].Position }
func (s *Snake) Direction() structs.Direction { return s.direction }
func (s *Snake) Len() int                     { return len(s.segments) }

// Segments returns a copy of all segments, head first.
func (s *Snake) Segments() []structs.Segment {
	out := make([]structs.Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Positions returns the positions of all segments, head first.
func (s *Snake) Positions() []structs.Position {
	out := make([]structs.Position, len(s.segments))
	for i, seg := range s.segments {
		out[i] = seg.Position
	}
	return out
}

// Turns returns a copy of the pending turn log.
func (s *Snake) Turns() []structs.Turn {
	out := make([]structs.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Occupies 判断是否有某一节位于 p
func (s *Snake) Occupies(p structs.Position) bool {
	for _, seg := range s.segments {
		if seg.Position == p {
			return true
		}
	}
	return false
}

// SetDirection changes the heading and logs a turn at the head. A reversal
// is rejected and reported as false.
func (s *Snake) SetDirection(d structs.Direction) bool {
	if d == s.direction.Opposite() {
		return false
	}
	if d == s.direction {
		return true
	}
	s.turns = append(s.turns, structs.Turn{
		Position: s.Head(),
		From:     s.direction,
		To:       d,
	})
	s.direction = d
	return true
}

// NextHead 蛇头沿当前方向下一步的位置
func (s *Snake) NextHead() structs.Position {
	return s.Head().Add(s.direction.Delta(s.cellSize))
}

// Step moves the snake one cell.
func (s *Snake) Step() {
	s.segments[0] = structs.Segment{Position: s.NextHead(), Direction: s.direction}

	for i := 1; i < len(s.segments); i++ {
		ahead := s.segments[i-1]
		dir := ahead.Direction
		if turn, ok := s.turnAt(ahead.Position); ok {
			dir = turn.From
		}
		// 紧跟在前一节后方一格
		s.segments[i] = structs.Segment{
			Position:  ahead.Position.Add(dir.Opposite().Delta(s.cellSize)),
			Direction: dir,
		}
	}

	s.pruneTurns()
}

// turnAt 返回该位置最早记录的转向
func (s *Snake) turnAt(p structs.Position) (structs.Turn, bool) {
	for _, t := range s.turns {
		if t.Position == p {
			return t, true
		}
	}
	return structs.Turn{}, false
}

func (s *Snake) pruneTurns() {
	kept := s.turns[:0]
	for _, t := range s.turns {
		if s.Occupies(t.Position) {
			kept = append(kept, t)
		}
	}
	s.turns = kept
}

// Grow appends a segment one cell behind the current last segment, along
// the last segment's direction. Unlike a plain copy of the last segment's
// direction, a last segment sitting on a pending turn uses the turn's From
// direction, the same rule Step applies to followers, so the new segment
// lands on the path the body already took.
func (s *Snake) Grow() {
	last := s.segments[len(s.segments)-1]
	dir := last.Direction
	if len(s.segments) == 1 {
		dir = s.direction
	} else if turn, ok := s.turnAt(last.Position); ok {
		dir = turn.From
	}
	s.segments = append(s.segments, structs.Segment{
		Position:  last.Position.Add(dir.Opposite().Delta(s.cellSize)),
		Direction: dir,
	})
}

// CollidesWithSelf reports whether the head's next cell hits the tail. The
// segment right behind the head is never counted.
func (s *Snake) CollidesWithSelf() bool {
	if len(s.segments) < 3 {
		return false
	}
	next := s.cellRect(s.NextHead())
	for _, seg := range s.segments[2:] {
		if helpers.RectanglesIntersect(next, s.cellRect(seg.Position)) {
			return true
		}
	}
	return false
}

// IsOutOfBounds reports whether the head's next position leaves g.
func (s *Snake) IsOutOfBounds(g grid.Grid) bool {
	return !g.InBounds(s.NextHead())
}

func (s *Snake) cellRect(p structs.Position) helpers.Rect {
	return grid.Grid{CellSize: s.cellSize}.CellRect(p)
}
