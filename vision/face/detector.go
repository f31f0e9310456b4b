package face

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"skin-analysis-service/logging"
	"skin-analysis-service/vision"
)

// cascadeScaleImage is OpenCV's CASCADE_SCALE_IMAGE flag.
const cascadeScaleImage = 2

// Config controls the Haar cascade search.
type Config struct {
	CascadePath  string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// Detector finds the first frontal face in an image and crops it.
type Detector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	cfg        Config
}

// NewDetector loads the cascade file named in cfg.
func NewDetector(cfg Config) (*Detector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade classifier from %s", cfg.CascadePath)
	}

	logging.Info().
		Str("cascade", cfg.CascadePath).
		Int("min_size", cfg.MinSize).
		Msg("face detector initialized")

	return &Detector{classifier: classifier, cfg: cfg}, nil
}

// Close releases the cascade classifier.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

// Crop decodes data, runs the cascade on the equalised grayscale image and
// returns the first face region as an RGB image.
func (d *Detector) Crop(data []byte) (image.Image, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		if err == nil {
			img.Close()
		}
		return nil, vision.ErrInvalidImage
	}
	defer img.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)

	minSize := image.Pt(d.cfg.MinSize, d.cfg.MinSize)

	d.mu.Lock()
	faces := d.classifier.DetectMultiScaleWithParams(
		gray, d.cfg.ScaleFactor, d.cfg.MinNeighbors, cascadeScaleImage, minSize, image.Point{},
	)
	d.mu.Unlock()

	if len(faces) == 0 {
		logging.Warn().Msg("no face detected")
		return nil, vision.ErrNoFace
	}

	region := img.Region(faces[0])
	defer region.Close()

	face, err := region.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert face region: %w", err)
	}

	logging.Debug().
		Int("faces", len(faces)).
		Str("rect", faces[0].String()).
		Msg("face region extracted")
	return face, nil
}
