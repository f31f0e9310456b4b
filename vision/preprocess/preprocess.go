// Package preprocess turns a cropped face into the normalised tensor the
// classifier was trained on: shorter side resized, centre crop, ImageNet
// mean/std normalisation, NCHW layout.
package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

var (
	mean = [3]float32{0.485, 0.456, 0.406}
	std  = [3]float32{0.229, 0.224, 0.225}
)

// Transform holds the geometry of the preprocessing pipeline.
type Transform struct {
	// ResizeTo is the target length of the shorter image side.
	ResizeTo int
	// CropSize is the side of the square centre crop fed to the model.
	CropSize int
}

// Default matches the training-time evaluation transform.
var Default = Transform{ResizeTo: 256, CropSize: 224}

// Shape returns the NCHW input shape produced by Tensor.
func (t Transform) Shape() []int64 {
	return []int64{1, 3, int64(t.CropSize), int64(t.CropSize)}
}

// Tensor converts img into a flattened float32 NCHW tensor of batch size one.
func (t Transform) Tensor(img image.Image) []float32 {
	cropped := imaging.CropCenter(t.resize(img), t.CropSize, t.CropSize)

	size := t.CropSize
	plane := size * size
	out := make([]float32, 3*plane)

	b := cropped.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := cropped.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			i := y*size + x
			out[i] = (float32(c.R)/255 - mean[0]) / std[0]
			out[plane+i] = (float32(c.G)/255 - mean[1]) / std[1]
			out[2*plane+i] = (float32(c.B)/255 - mean[2]) / std[2]
		}
	}
	return out
}

func (t Transform) resize(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= b.Dy() {
		return imaging.Resize(img, t.ResizeTo, 0, imaging.Linear)
	}
	return imaging.Resize(img, 0, t.ResizeTo, imaging.Linear)
}
