package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-in-browser/session"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 页面与接口可能不同源
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

const writeWait = 2 * time.Second

// ClientMessage 浏览器发来的按键，例如 {"event":"MoveUp"}
type ClientMessage struct {
	Event string `json:"event"`
}

// streamConn 一个浏览器连接，写入需要加锁
type streamConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *streamConn) send(msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *streamConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.ws.Close()
}

// StreamHandler upgrades to a websocket that pushes a snapshot after every
// change and accepts events from the browser.
func StreamHandler(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := lookupSession(c, reg)
		if !ok {
			return
		}
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("ws upgrade error: %v", err)
			return
		}
		conn := &streamConn{ws: ws}

		// 只保留最新的快照，慢的客户端会跳帧而不会拖住游戏
		updates := make(chan structs.Snapshot, 1)
		cancel := s.Game.Subscribe(func(snap structs.Snapshot) {
			select {
			case updates <- snap:
			default:
				select {
				case <-updates:
				default:
				}
				select {
				case updates <- snap:
				default:
				}
			}
		})
		done := make(chan struct{})
		go writeLoop(conn, updates, done)

		if err := conn.send(s.Game.Snapshot()); err != nil {
			log.Printf("ws write error for %s: %v", s.ID, err)
		}
		readLoop(conn, s)

		cancel()
		close(done)
		conn.close()
	}
}

func writeLoop(conn *streamConn, updates <-chan structs.Snapshot, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case snap := <-updates:
			if err := conn.send(snap); err != nil {
				log.Printf("ws write error for %s: %v", snap.ID, err)
				conn.close()
				return
			}
		}
	}
}

// readLoop 处理浏览器按键直到断开
func readLoop(conn *streamConn, s *session.Session) {
	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error for %s: %v", s.ID, err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("bad message from %s: %v", s.ID, err)
			continue
		}
		event, ok := structs.ParseEvent(msg.Event)
		if !ok {
			if err := conn.send(gin.H{"error": "invalid event '" + msg.Event + "' provided"}); err != nil {
				log.Printf("ws write error for %s: %v", s.ID, err)
			}
			continue
		}
		// 按键也算访问，避免正在玩的对局被清理
		s.Touch()
		s.Game.Handle(event)
	}
}
