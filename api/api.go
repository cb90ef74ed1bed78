package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-in-browser/config"
	"github.com/hoshinonyaruko/snake-in-browser/game"
	"github.com/hoshinonyaruko/snake-in-browser/memimg"
	"github.com/hoshinonyaruko/snake-in-browser/render"
	"github.com/hoshinonyaruko/snake-in-browser/session"
	"github.com/hoshinonyaruko/snake-in-browser/sqlite"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// StaticDir 保存导出画面的目录，与 /static 路由对应
var StaticDir = "./static"

const maxFrameScale = 8

func InitDB(dsn string) *sql.DB {
	db, err := sqlite.Open(dsn)
	if err != nil {
		log.Fatalf("Failed to open results database %s: %s", dsn, err)
	}
	return db
}

// RecordResults 返回结束回调，把成绩写入成绩表
func RecordResults(db *sql.DB) func(structs.Result) {
	return func(result structs.Result) {
		if err := sqlite.RecordResult(db, result); err != nil {
			log.Printf("record result for %s: %v", result.SessionID, err)
			return
		}
		log.Printf("Game %s ended (%s) with score %d", result.SessionID, result.Reason, result.Score)
	}
}

// lookupSession 读取 id 参数并找到对局，失败时已经写好响应
func lookupSession(c *gin.Context, reg *session.Registry) (*session.Session, bool) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: id"})
		return nil, false
	}
	s, err := reg.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return s, true
}

// NewGameHandler creates a session with the current configuration. The game
// waits for Confirm unless start=1 is given.
func NewGameHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := reg.Create(game.SettingsFromConfig(config.Get()))
		if c.Query("start") == "1" {
			s.Game.Start()
		}
		c.JSON(http.StatusOK, s.Game.Snapshot())
	}
}

func SendEventHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("event")
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: event"})
			return
		}
		event, ok := structs.ParseEvent(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid event '%s' provided", name)})
			return
		}
		s, ok := lookupSession(c, reg)
		if !ok {
			return
		}
		s.Game.Handle(event)
		c.JSON(http.StatusOK, s.Game.Snapshot())
	}
}

func StateHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, reg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, s.Game.Snapshot())
	}
}

// RenderFrameHandler 返回当前画面的 PNG。
// save=1 时把画面写到静态目录并返回地址，width 限制输出宽度
func RenderFrameHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, reg)
		if !ok {
			return
		}
		scale, err := strconv.Atoi(c.DefaultQuery("scale", strconv.Itoa(config.Get().FrameScale)))
		if err != nil || scale < 1 || scale > maxFrameScale {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("scale must be between 1 and %d", maxFrameScale)})
			return
		}
		maxWidth, _ := strconv.Atoi(c.DefaultQuery("width", "0"))

		img := frameFor(s, scale)
		if maxWidth > 0 {
			img = render.Thumbnail(img, maxWidth)
		}

		if c.Query("save") == "1" {
			if err := saveFrame(s.ID, img); err != nil {
				log.Printf("err saveFrame :%v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save frame"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"image_url": frameURL(s.ID)})
			return
		}

		var buf bytes.Buffer
		if err := render.EncodePNG(&buf, img); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to encode frame"})
			return
		}
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	}
}

// frameFor 相同画面直接使用缓存
func frameFor(s *session.Session, scale int) image.Image {
	snap := s.Game.Snapshot()
	version := render.Version(snap, scale)
	if img, ok := memimg.GetFrameFromMemory(s.ID, version); ok {
		return img
	}
	img := render.Scale(render.Frame(snap), scale)
	memimg.StoreFrame(s.ID, version, img)
	return img
}

func framePath(id string) string {
	return filepath.Join(StaticDir, id+".png")
}

func saveFrame(id string, img image.Image) error {
	if err := os.MkdirAll(StaticDir, 0755); err != nil {
		return err
	}
	return imaging.Save(img, framePath(id))
}

func frameURL(id string) string {
	base := strings.TrimRight(config.Get().SelfPath, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return fmt.Sprintf("%s/static/%s.png", base, id)
}

func DeleteGameHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: id"})
			return
		}
		if err := reg.Delete(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		// 导出过的画面一并删除
		if err := os.Remove(framePath(id)); err != nil && !os.IsNotExist(err) {
			log.Printf("remove frame for %s: %v", id, err)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Game deleted successfully"})
	}
}

// ScoresHandler lists the best results of this process, or every result of
// one session when id is given.
func ScoresHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			results []structs.Result
			err     error
		)
		if id := c.Query("id"); id != "" {
			results, err = sqlite.SessionResults(db, id)
		} else {
			limit, convErr := strconv.Atoi(c.DefaultQuery("limit", "10"))
			if convErr != nil || limit < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			results, err = sqlite.TopResults(db, limit)
		}
		if err != nil {
			log.Printf("query scores: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load scores"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}
