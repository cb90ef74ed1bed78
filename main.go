package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hoshinonyaruko/snake-in-browser/api"
	"github.com/hoshinonyaruko/snake-in-browser/config"
	"github.com/hoshinonyaruko/snake-in-browser/scheduler"
	"github.com/hoshinonyaruko/snake-in-browser/session"
)

const configPath = "./config.json"

func main() {
	EnsureFoldersExist()
	// Initialize the configuration
	cfg := config.LoadConfig(configPath)
	// 检测并热更新配置，只影响之后新开的对局
	go func() {
		if err := config.WatchConfig(configPath, nil); err != nil {
			log.Printf("config watcher stopped: %v", err)
		}
	}()

	// 成绩表，默认只在内存中
	db := api.InitDB(cfg.DBPath)
	defer db.Close()

	reg := session.NewRegistry(scheduler.NewTicker())
	reg.OnResult(api.RecordResults(db))
	// 定期清理结束或无人访问的对局
	janitor := reg.StartJanitor(30*time.Second, func() time.Duration {
		return time.Duration(config.Get().SessionTTL) * time.Second
	})
	defer janitor.Stop()

	router := gin.Default()
	api.RegisterRoutes(router, reg, db)
	router.Static("/static", api.StaticDir) // 静态文件服务
	// 从配置单例读取端口 监听
	if err := router.Run(":" + config.GetConfigValue("port").(string)); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// EnsureFoldersExist 检查并创建必需的文件夹
func EnsureFoldersExist() {
	folders := []string{"static"}

	for _, folder := range folders {
		if _, err := os.Stat(folder); os.IsNotExist(err) {
			// 文件夹不存在，尝试创建它
			err := os.Mkdir(folder, 0755) // 使用0755权限以确保读写权限
			if err != nil {
				// 如果创建失败，则记录错误并可能退出程序
				log.Fatalf("Failed to create %s directory: %s", folder, err)
			}
			log.Printf("Created %s directory", folder)
		} else {
			// 文件夹已存在
			log.Printf("%s directory already exists", folder)
		}
	}
}
