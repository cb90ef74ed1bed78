package grid

import (
	"math/rand"

	"github.com/hoshinonyaruko/snake-in-browser/helpers"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// Grid 描述有边界的游戏区域，坐标以像素为单位，按 CellSize 对齐。
type Grid struct {
	CellSize int `json:"cell_size"`
	Columns  int `json:"columns"`
	Rows     int `json:"rows"`
}

// New returns a grid of columns x rows cells.
func New(cellSize, columns, rows int) Grid {
	return Grid{CellSize: cellSize, Columns: columns, Rows: rows}
}

func (g Grid) Width() int  { return g.CellSize * g.Columns }
func (g Grid) Height() int { return g.CellSize * g.Rows }

// ToCell converts a pixel position to its (row, col) cell.
func (g Grid) ToCell(p structs.Position) (row, col int) {
	return floorDiv(p.Top, g.CellSize), floorDiv(p.Left, g.CellSize)
}

// Position is the inverse of ToCell.
func (g Grid) Position(row, col int) structs.Position {
	return structs.Position{Top: row * g.CellSize, Left: col * g.CellSize}
}

func (g Grid) InBounds(p structs.Position) bool {
	return p.Top >= 0 && p.Top < g.Height() && p.Left >= 0 && p.Left < g.Width()
}

// Aligned 判断坐标是否为 CellSize 的整数倍
func (g Grid) Aligned(p structs.Position) bool {
	return p.Top%g.CellSize == 0 && p.Left%g.CellSize == 0
}

func (g Grid) Valid(p structs.Position) bool {
	return g.InBounds(p) && g.Aligned(p)
}

// CellRect 返回格子内缩一像素的矩形，相邻格子不会被判为相交。
// 格子太小无法内缩时返回整格，矩形不会翻转
func (g Grid) CellRect(p structs.Position) helpers.Rect {
	inset := 1
	if g.CellSize < 3 {
		inset = 0
	}
	return helpers.Rect{
		Top:    p.Top + inset,
		Left:   p.Left + inset,
		Bottom: p.Top + g.CellSize - 1 - inset,
		Right:  p.Left + g.CellSize - 1 - inset,
	}
}

// Cells 按行优先返回所有格子
func (g Grid) Cells() []structs.Position {
	cells := make([]structs.Position, 0, g.Columns*g.Rows)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Columns; col++ {
			cells = append(cells, g.Position(row, col))
		}
	}
	return cells
}

// RandomPosition picks a random aligned cell keeping margin cells free on
// every edge. A margin that leaves no room falls back to the whole grid.
func (g Grid) RandomPosition(rng *rand.Rand, margin int) structs.Position {
	if margin < 0 || 2*margin >= g.Rows || 2*margin >= g.Columns {
		margin = 0
	}
	top := helpers.RandomSteppedValue(rng, margin*g.CellSize, (g.Rows-1-margin)*g.CellSize, g.CellSize)
	left := helpers.RandomSteppedValue(rng, margin*g.CellSize, (g.Columns-1-margin)*g.CellSize, g.CellSize)
	return structs.Position{Top: top, Left: left}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
