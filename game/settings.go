package game

import (
	"time"

	"github.com/hoshinonyaruko/snake-in-browser/config"
	"github.com/hoshinonyaruko/snake-in-browser/food"
	"github.com/hoshinonyaruko/snake-in-browser/grid"
)

// Settings 单局游戏的参数
type Settings struct {
	CellSize    int
	Columns     int
	Rows        int
	Speed       time.Duration // 初始刷新间隔
	SpeedStep   time.Duration // 每吃一个食物减少的间隔
	MinSpeed    time.Duration
	SpawnMargin int // 蛇出生时距离边缘的最少格数
	Food        food.Options
}

// DefaultSettings is a 40x20 board of 30px cells with
// 50ms ticks shrinking by 1ms per food.
func DefaultSettings() Settings {
	return Settings{
		CellSize:    30,
		Columns:     40,
		Rows:        20,
		Speed:       50 * time.Millisecond,
		SpeedStep:   time.Millisecond,
		MinSpeed:    10 * time.Millisecond,
		SpawnMargin: 4,
		Food:        food.DefaultOptions(),
	}
}

// 小于 3 像素的格子无法内缩，也画不出来
const minCellSize = 3

// SettingsFromConfig builds settings from the loaded configuration.
func SettingsFromConfig(cfg config.AppConfig) Settings {
	s := DefaultSettings()
	if cfg.CellSize >= minCellSize {
		s.CellSize = cfg.CellSize
	}
	if cfg.Columns > 0 {
		s.Columns = cfg.Columns
	}
	if cfg.Rows > 0 {
		s.Rows = cfg.Rows
	}
	if cfg.Speed > 0 {
		s.Speed = time.Duration(cfg.Speed) * time.Millisecond
	}
	if cfg.SpeedStep > 0 {
		s.SpeedStep = time.Duration(cfg.SpeedStep) * time.Millisecond
	}
	if cfg.MinSpeed > 0 {
		s.MinSpeed = time.Duration(cfg.MinSpeed) * time.Millisecond
	}
	if cfg.SpawnMargin > 0 {
		s.SpawnMargin = cfg.SpawnMargin
	}
	if cfg.SpawnAttempts > 0 {
		s.Food.SpawnAttempts = cfg.SpawnAttempts
	}
	if cfg.FrenzyCount > 0 {
		s.Food.FrenzyCount = cfg.FrenzyCount
	}
	if cfg.FrenzyInterval > 0 {
		s.Food.FrenzyInterval = time.Duration(cfg.FrenzyInterval) * time.Millisecond
	}
	if s.MinSpeed > s.Speed {
		s.MinSpeed = s.Speed
	}
	return s
}

func (s Settings) Grid() grid.Grid {
	return grid.New(s.CellSize, s.Columns, s.Rows)
}
