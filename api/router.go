package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-in-browser/session"
)

// RegisterRoutes 挂载全部游戏接口
func RegisterRoutes(router gin.IRouter, reg *session.Registry, db *sql.DB) {
	// 新建对局
	router.GET("/new-game", NewGameHandler(reg))
	// 按键：方向、确认、暂停、重开
	router.GET("/send-event", SendEventHandler(reg))
	router.GET("/state", StateHandler(reg))
	// 渲染函数 返回 PNG 或静态地址
	router.GET("/render-frame", RenderFrameHandler(reg))
	router.GET("/ws", StreamHandler(reg))
	// 删除对局
	router.GET("/delete-game", DeleteGameHandler(reg))
	router.GET("/scores", ScoresHandler(db))
}
