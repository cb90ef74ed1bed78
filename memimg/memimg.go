// 已渲染画面的内存缓存，同一局同一画面只绘制一次
package memimg

import (
	"image"
	"sync"
)

type frame struct {
	version string
	img     image.Image
}

var (
	frames      = make(map[string]frame)
	framesMutex sync.RWMutex
)

// StoreFrame 记录某局某个版本的画面，每局只保留最新的一张
func StoreFrame(id, version string, img image.Image) {
	framesMutex.Lock()
	frames[id] = frame{version: version, img: img}
	framesMutex.Unlock()
}

// GetFrameFromMemory returns the cached frame only when it was rendered for
// the same version.
func GetFrameFromMemory(id, version string) (image.Image, bool) {
	framesMutex.RLock()
	f, exists := frames[id]
	framesMutex.RUnlock()
	if !exists || f.version != version {
		return nil, false
	}
	return f.img, true
}

// DeleteFrame 对局删除时清理缓存
func DeleteFrame(id string) {
	framesMutex.Lock()
	delete(frames, id)
	framesMutex.Unlock()
}

// Count returns the number of cached frames.
func Count() int {
	framesMutex.RLock()
	defer framesMutex.RUnlock()
	return len(frames)
}
