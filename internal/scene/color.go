package scene

import (
	"image/color"
	"math"

	"github.com/crazy3lf/colorconv"
	"github.com/rotisserie/eris"

	"github.com/cybre/aurora-visualizer/internal/utils"
)

func hsvColor(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b, err := colorconv.HSVToRGB(h, utils.Clamp(s, 0.0, 1.0), utils.Clamp(v, 0.0, 1.0))
	if err != nil {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func errUnknownAsset(name string) error {
	return eris.Errorf("unknown point cloud asset %q", name)
}
