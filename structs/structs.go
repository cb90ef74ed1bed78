package structs

import "time"

// Position 描述游戏区域内的一个像素坐标，总是 cellSize 的整数倍。
type Position struct {
	Top  int `json:"top"`  // 纵坐标
	Left int `json:"left"` // 横坐标
}

// Add 返回按 delta 平移后的位置
func (p Position) Add(delta Position) Position {
	return Position{Top: p.Top + delta.Top, Left: p.Left + delta.Left}
}

// Direction 移动方向
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions 按顺时针顺序列出所有方向
var Directions = []Direction{Up, Right, Down, Left}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "unknown"
}

// Opposite 返回反方向
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// Delta 返回沿该方向移动一格的位移
func (d Direction) Delta(cellSize int) Position {
	switch d {
	case Up:
		return Position{Top: -cellSize}
	case Right:
		return Position{Left: cellSize}
	case Down:
		return Position{Top: cellSize}
	case Left:
		return Position{Left: -cellSize}
	}
	return Position{}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Turn 记录蛇头在某个位置转向，尾部经过该位置时沿用转向前的方向。
type Turn struct {
	Position Position  `json:"position"`
	From     Direction `json:"from"`
	To       Direction `json:"to"`
}

// Segment 蛇身上的一节，Direction 为该节最近一次移动的方向
type Segment struct {
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
}

// Food 食物
type Food struct {
	Position Position `json:"position"`
	Active   bool     `json:"active"`
}

// Phase 游戏阶段
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePlaying
	PhasePaused
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Event 输入事件
type Event string

const (
	MoveUp      Event = "MoveUp"
	MoveRight   Event = "MoveRight"
	MoveDown    Event = "MoveDown"
	MoveLeft    Event = "MoveLeft"
	Confirm     Event = "Confirm"
	TogglePause Event = "TogglePause"
	Restart     Event = "Restart"
)

// ParseEvent 校验事件名是否合法
func ParseEvent(name string) (Event, bool) {
	switch e := Event(name); e {
	case MoveUp, MoveRight, MoveDown, MoveLeft, Confirm, TogglePause, Restart:
		return e, true
	}
	return "", false
}

// Direction 返回移动事件对应的方向
func (e Event) Direction() (Direction, bool) {
	switch e {
	case MoveUp:
		return Up, true
	case MoveRight:
		return Right, true
	case MoveDown:
		return Down, true
	case MoveLeft:
		return Left, true
	}
	return 0, false
}

// End reasons
const (
	EndBounds = "bounds"
	EndSelf   = "self"
)

// Snapshot 每次刷新后提供给渲染方的只读状态
type Snapshot struct {
	ID        string     `json:"id"`
	Phase     Phase      `json:"phase"`
	Score     int        `json:"score"`
	Speed     int64      `json:"speed"` // 刷新间隔，单位毫秒
	Tick      uint64     `json:"tick"`
	Direction Direction  `json:"direction"`
	Snake     []Position `json:"snake"` // 蛇头在前
	Food      []Position `json:"food"`
	Frenzy    bool       `json:"frenzy"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	CellSize  int        `json:"cell_size"`
	EndReason string     `json:"end_reason,omitempty"`
}

// Result 一局结束后的成绩
type Result struct {
	SessionID string        `json:"session_id"`
	Score     int           `json:"score"`
	Length    int           `json:"length"`
	Ticks     uint64        `json:"ticks"`
	Duration  time.Duration `json:"duration"`
	Reason    string        `json:"reason"`
	EndedAt   time.Time     `json:"ended_at"`
}
