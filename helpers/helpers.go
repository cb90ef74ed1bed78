// 随机数与几何辅助函数
package helpers

import "math/rand"

// Rect 轴对齐矩形，边界包含在内
type Rect struct {
	Top, Left, Bottom, Right int
}

// RandomSteppedValue returns min + k*step for a uniformly chosen k,
// never exceeding max.
func RandomSteppedValue(rng *rand.Rand, min, max, step int) int {
	if step <= 0 || max <= min {
		return min
	}
	steps := (max - min) / step
	return min + rng.Intn(steps+1)*step
}

// RandomInt returns a uniformly distributed integer in [min, max].
func RandomInt(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return rng.Intn(max-min+1) + min
}

// RectanglesIntersect 判断两个矩形是否相交，贴边也算相交
func RectanglesIntersect(a, b Rect) bool {
	return !(a.Right < b.Left ||
		a.Left > b.Right ||
		a.Bottom < b.Top ||
		a.Top > b.Bottom)
}
