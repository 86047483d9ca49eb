package plot

import (
	"bytes"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/integrand/internal/format"
)

func bundle() format.Bundle {
	x := format.Floats{-1, -0.5, 0, 0.5, 1}
	return format.Bundle{
		Title:  format.TitleDefinite,
		XLabel: "x",
		YLabel: "f(x)",
		X:      x,
		Series: []format.Series{{Label: "f(x) = x", Color: "blue", Y: format.Floats{-1, -0.5, math.NaN(), 0.5, 1}}},
		VLines: []format.VLine{
			{X: -1, Label: "x = -1", Color: "red", Dashed: true},
			{X: 1, Label: "x = 1", Color: "red", Dashed: true},
		},
		Shade: &format.Shade{Series: 0, Lower: -1, Upper: 1, Color: "skyblue", Alpha: 0.5},
	}
}

func TestWritePNGDecodes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, bundle(), 320, 240))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestRenderDrawsSeries(t *testing.T) {
	img := Render(bundle(), 0, 0)
	require.Equal(t, DefaultWidth, img.Bounds().Dx())
	require.Equal(t, DefaultHeight, img.Bounds().Dy())

	counts := map[color.RGBA]int{}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			counts[img.RGBAAt(x, y)]++
		}
	}
	assert.Greater(t, counts[palette["blue"]], 50)
	assert.Greater(t, counts[palette["red"]], 50)
	assert.Greater(t, counts[palette["black"]], 0)
}

func TestRenderEmptyBundle(t *testing.T) {
	img := Render(format.Bundle{Title: "empty"}, 200, 150)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestPad(t *testing.T) {
	lo, hi := pad(math.Inf(1), math.Inf(-1))
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)

	lo, hi = pad(3, 3)
	assert.Equal(t, 2.0, lo)
	assert.Equal(t, 4.0, hi)
}
