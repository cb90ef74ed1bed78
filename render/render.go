// 把对局快照绘制成图片：网格背景、蛇与食物都是纯色方块
package render

import (
	"fmt"
	"hash/fnv"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-in-browser/structs"
)

// 背景缓存，按画布尺寸区分
var drawingCache sync.Map

// Frame renders snap at one pixel per game pixel.
func Frame(snap structs.Snapshot) image.Image {
	width, height, cell := snap.Width, snap.Height, snap.CellSize
	if width <= 0 || height <= 0 || cell <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	dc := gg.NewContext(width, height)
	dc.DrawImage(background(width, height, cell), 0, 0)

	// 食物
	dc.SetRGB(0.86, 0.2, 0.2)
	for _, p := range snap.Food {
		drawCell(dc, p, cell)
	}

	// 蛇身，蛇头颜色更深
	for i := len(snap.Snake) - 1; i >= 0; i-- {
		if i == 0 {
			dc.SetRGB(0.1, 0.45, 0.15)
		} else {
			dc.SetRGB(0.3, 0.7, 0.3)
		}
		drawCell(dc, snap.Snake[i], cell)
	}

	dc.SetRGB(0.2, 0.2, 0.2)
	dc.DrawString(fmt.Sprintf("score %d", snap.Score), 6, 16)
	if snap.Phase == structs.PhaseEnded {
		dc.DrawStringAnchored(fmt.Sprintf("game over (%s) - score %d", snap.EndReason, snap.Score),
			float64(width)/2, float64(height)/2, 0.5, 0.5)
	} else if snap.Phase == structs.PhasePaused {
		dc.DrawStringAnchored("paused", float64(width)/2, float64(height)/2, 0.5, 0.5)
	}
	return dc.Image()
}

func drawCell(dc *gg.Context, p structs.Position, cell int) {
	// 留出一像素缝隙，相邻格子看得出分界
	dc.DrawRectangle(float64(p.Left+1), float64(p.Top+1), float64(cell-2), float64(cell-2))
	dc.Fill()
}

// background 白底加网格线，绘制一次后缓存
func background(width, height, cell int) image.Image {
	cacheKey := fmt.Sprintf("%d_%d_%d", width, height, cell)
	if cached, ok := drawingCache.Load(cacheKey); ok {
		return cached.(image.Image)
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	renderGrid(dc, width, height, cell)
	img := dc.Image()
	drawingCache.Store(cacheKey, img)
	return img
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}

// Scale enlarges img by an integer factor without smoothing, keeping cell
// edges crisp. Factors below 2 return img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

// Thumbnail shrinks img to fit within maxWidth, used for score listings.
func Thumbnail(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Box)
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Version fingerprints everything Frame draws, so identical snapshots can
// share a cached image.
func Version(snap structs.Snapshot, scale int) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%d|%s|%d|%d|%d|", scale, snap.Phase, snap.Score, snap.EndReason, snap.Width, snap.Height, snap.CellSize)
	for _, p := range snap.Snake {
		fmt.Fprintf(h, "s%d,%d;", p.Top, p.Left)
	}
	for _, p := range snap.Food {
		fmt.Fprintf(h, "f%d,%d;", p.Top, p.Left)
	}
	return fmt.Sprintf("%d-%x", snap.Tick, h.Sum64())
}
