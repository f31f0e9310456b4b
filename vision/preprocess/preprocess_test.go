package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTensorShapeAndNormalisation(t *testing.T) {
	img := imaging.New(300, 400, color.NRGBA{R: 255, G: 128, B: 0, A: 255})

	out := Default.Tensor(img)
	require.Len(t, out, 3*224*224)

	plane := 224 * 224
	assert.InDelta(t, (1.0-0.485)/0.229, out[0], 0.02)
	assert.InDelta(t, (128.0/255-0.456)/0.224, out[plane+100], 0.02)
	assert.InDelta(t, (0-0.406)/0.225, out[2*plane+plane-1], 0.02)
}

func TestTensorLandscapeAndSmallInput(t *testing.T) {
	for _, size := range []image.Point{{X: 640, Y: 120}, {X: 60, Y: 60}} {
		img := imaging.New(size.X, size.Y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		assert.Len(t, Default.Tensor(img), 3*224*224, "size %v", size)
	}
}

func TestResizeKeepsAspect(t *testing.T) {
	r := Default.resize(imaging.New(512, 1024, color.Black))
	assert.Equal(t, 256, r.Bounds().Dx())
	assert.Equal(t, 512, r.Bounds().Dy())

	r = Default.resize(imaging.New(1000, 500, color.Black))
	assert.Equal(t, 512, r.Bounds().Dx())
	assert.Equal(t, 256, r.Bounds().Dy())
}

func TestShape(t *testing.T) {
	assert.Equal(t, []int64{1, 3, 224, 224}, Default.Shape())
}
