package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath       string `json:"selfpath"`
	Port           string `json:"port"`
	CellSize       int    `json:"cellsize"`       // 格子边长，像素
	Columns        int    `json:"columns"`        // 横向格数
	Rows           int    `json:"rows"`           // 纵向格数
	Speed          int    `json:"speed"`          // 初始刷新间隔，毫秒
	SpeedStep      int    `json:"speedstep"`      // 每吃一个食物减少的毫秒数
	MinSpeed       int    `json:"minspeed"`       // 最快刷新间隔，毫秒
	SpawnMargin    int    `json:"spawnmargin"`    // 出生点距边缘格数
	SpawnAttempts  int    `json:"spawnattempts"`  // 食物随机落点尝试次数
	FrenzyCount    int    `json:"frenzycount"`    // 狂潮食物数量
	FrenzyInterval int    `json:"frenzyinterval"` // 狂潮生成间隔，毫秒
	DBPath         string `json:"dbpath"`         // 成绩表，默认只存在于内存
	SessionTTL     int    `json:"sessionttl"`     // 结束的对局保留秒数
	FrameScale     int    `json:"framescale"`     // 渲染图片默认放大倍数
}

var (
	instance *AppConfig
	once     sync.Once
	mu       sync.RWMutex
)

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		SelfPath:       "http://www.example.com", // Default value
		Port:           "38870",                  // Default value
		CellSize:       30,
		Columns:        40,
		Rows:           20,
		Speed:          50,
		SpeedStep:      1,
		MinSpeed:       10,
		SpawnMargin:    4,
		SpawnAttempts:  1000,
		FrenzyCount:    15,
		FrenzyInterval: 10,
		DBPath:         "file:results?mode=memory&cache=shared",
		SessionTTL:     600,
		FrameScale:     1,
	}
}

// LoadConfig initializes and returns the instance of AppConfig
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		cfg := Default()
		instance = &cfg
		// Load the config file if it exists, otherwise create one
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if err := saveConfig(filePath, instance); err != nil {
				panic(err)
			}
		} else {
			loaded, err := Load(filePath)
			if err != nil {
				panic(err)
			}
			instance = loaded
		}
	})
	return instance
}

// Load reads filePath on top of the defaults without touching the singleton.
func Load(filePath string) (*AppConfig, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

// Get returns a copy of the current configuration.
func Get() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return Default()
	}
	return *instance
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "cellsize":
		return cfg.CellSize
	case "columns":
		return cfg.Columns
	case "rows":
		return cfg.Rows
	case "speed":
		return cfg.Speed
	case "speedstep":
		return cfg.SpeedStep
	case "minspeed":
		return cfg.MinSpeed
	case "spawnmargin":
		return cfg.SpawnMargin
	case "spawnattempts":
		return cfg.SpawnAttempts
	case "frenzycount":
		return cfg.FrenzyCount
	case "frenzyinterval":
		return cfg.FrenzyInterval
	case "dbpath":
		return cfg.DBPath
	case "sessionttl":
		return cfg.SessionTTL
	case "framescale":
		return cfg.FrameScale
	default:
		return ""
	}
}

// reload 重新读取配置文件，失败时保留旧值
func reload(filePath string) {
	cfg, err := Load(filePath)
	if err != nil {
		log.Printf("config reload failed, keeping previous values: %v", err)
		return
	}
	mu.Lock()
	instance = cfg
	mu.Unlock()
	log.Printf("config reloaded from %s", filePath)
}

// WatchConfig 监听配置文件变化并热更新，新开的对局使用新配置。阻塞直到 done 关闭。
func WatchConfig(filePath string, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听目录，编辑器保存时常常是先删除再创建
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		return err
	}
	target := filepath.Clean(filePath)

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				reload(filePath)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("config watcher error:", err)
		}
	}
}
