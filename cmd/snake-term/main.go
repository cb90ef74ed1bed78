// snake-term 在终端里玩同一套贪食蛇逻辑
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-in-browser/config"
	"github.com/hoshinonyaruko/snake-in-browser/game"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

var configFlag = flag.String("config", "./config.json", "config file, defaults are used when it does not exist")

// client 把键盘输入转给游戏，把快照画到终端
type client struct {
	screen  tcell.Screen
	game    *game.Game
	updates chan structs.Snapshot
}

func newClient(screen tcell.Screen, g *game.Game) *client {
	c := &client{
		screen:  screen,
		game:    g,
		updates: make(chan structs.Snapshot, 1),
	}
	g.Subscribe(func(snap structs.Snapshot) {
		// 只保留最新一帧
		select {
		case c.updates <- snap:
		default:
			select {
			case <-c.updates:
			default:
			}
			select {
			case c.updates <- snap:
			default:
			}
		}
	})
	return c
}

// keyEvent maps a key press to a game event. quit is set for Esc, Ctrl-C
// and q.
func keyEvent(ev *tcell.EventKey) (event structs.Event, quit bool, ok bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", true, false
	case tcell.KeyUp:
		return structs.MoveUp, false, true
	case tcell.KeyRight:
		return structs.MoveRight, false, true
	case tcell.KeyDown:
		return structs.MoveDown, false, true
	case tcell.KeyLeft:
		return structs.MoveLeft, false, true
	case tcell.KeyEnter:
		return structs.Confirm, false, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return "", true, false
		case 'p', 'P', ' ':
			return structs.TogglePause, false, true
		case 'r', 'R':
			return structs.Restart, false, true
		case 'w', 'k':
			return structs.MoveUp, false, true
		case 'd', 'l':
			return structs.MoveRight, false, true
		case 's', 'j':
			return structs.MoveDown, false, true
		case 'a', 'h':
			return structs.MoveLeft, false, true
		}
	}
	return "", false, false
}

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorGray)
	headStyle   = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	bodyStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	foodStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
)

// 每个格子占两列，终端字符大约是一比二
const cellWidth = 2

func cellOf(p structs.Position, cellSize int) (x, y int) {
	return 1 + (p.Left/cellSize)*cellWidth, 1 + p.Top/cellSize
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

func fillCell(screen tcell.Screen, p structs.Position, cellSize int, style tcell.Style) {
	x, y := cellOf(p, cellSize)
	for i := 0; i < cellWidth; i++ {
		screen.SetContent(x+i, y, '█', nil, style)
	}
}

// draw renders one snapshot: a frame, the food, the snake and a status line.
func draw(screen tcell.Screen, snap structs.Snapshot) {
	screen.Clear()
	if snap.CellSize <= 0 {
		screen.Show()
		return
	}
	cols := snap.Width / snap.CellSize
	rows := snap.Height / snap.CellSize
	right := 1 + cols*cellWidth
	bottom := 1 + rows

	for x := 1; x < right; x++ {
		screen.SetContent(x, 0, '─', nil, borderStyle)
		screen.SetContent(x, bottom, '─', nil, borderStyle)
	}
	for y := 1; y < bottom; y++ {
		screen.SetContent(0, y, '│', nil, borderStyle)
		screen.SetContent(right, y, '│', nil, borderStyle)
	}
	screen.SetContent(0, 0, '┌', nil, borderStyle)
	screen.SetContent(right, 0, '┐', nil, borderStyle)
	screen.SetContent(0, bottom, '└', nil, borderStyle)
	screen.SetContent(right, bottom, '┘', nil, borderStyle)

	for _, p := range snap.Food {
		fillCell(screen, p, snap.CellSize, foodStyle)
	}
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		style := bodyStyle
		if i == 0 {
			style = headStyle
		}
		fillCell(screen, snap.Snake[i], snap.CellSize, style)
	}

	drawText(screen, 0, bottom+1, textStyle, statusLine(snap))
	screen.Show()
}

func statusLine(snap structs.Snapshot) string {
	switch snap.Phase {
	case structs.PhaseIdle:
		return "Enter to start, arrows to steer, q to quit"
	case structs.PhasePaused:
		return fmt.Sprintf("score %d  paused, p to resume", snap.Score)
	case structs.PhaseEnded:
		return fmt.Sprintf("game over (%s)  score %d  Enter to play again", snap.EndReason, snap.Score)
	}
	return fmt.Sprintf("score %d  speed %dms", snap.Score, snap.Speed)
}

func (c *client) run() {
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	draw(c.screen, c.game.Snapshot())
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				event, quit, ok := keyEvent(ev)
				if quit {
					return
				}
				if ok {
					c.game.Handle(event)
				}
			case *tcell.EventResize:
				c.screen.Sync()
				draw(c.screen, c.game.Snapshot())
			}
		case snap := <-c.updates:
			draw(c.screen, snap)
		}
	}
}

func loadSettings(path string) game.Settings {
	if _, err := os.Stat(path); err != nil {
		return game.SettingsFromConfig(config.Default())
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("config %s unreadable, using defaults: %v", path, err)
		return game.SettingsFromConfig(config.Default())
	}
	return game.SettingsFromConfig(*cfg)
}

func main() {
	flag.Parse()
	settings := loadSettings(*configFlag)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	g := game.New(settings, scheduler.NewTicker(), game.WithID("terminal"))
	c := newClient(screen, g)
	c.run()

	g.Stop()
	screen.Fini()
	if snap := g.Snapshot(); snap.Phase == structs.PhaseEnded {
		fmt.Printf("final score %d\n", snap.Score)
	}
}
