package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"skin-analysis-service/catalog"
	"skin-analysis-service/data"
	"skin-analysis-service/event"
	"skin-analysis-service/logging"
	"skin-analysis-service/metrics"
	"skin-analysis-service/model"
	"skin-analysis-service/vision"
	"skin-analysis-service/vision/preprocess"
)

// ErrInference wraps failures of the classifier itself.
var ErrInference = errors.New("model error")

// FaceCropper extracts the face region from encoded image bytes.
type FaceCropper interface {
	Crop(data []byte) (image.Image, error)
}

// Classifier runs the skin model on a preprocessed NCHW tensor.
type Classifier interface {
	Predict(input []float32) ([]float32, error)
}

type AnalysisOptions struct {
	Transform preprocess.Transform
	// ApplySigmoid converts raw logits to probabilities. Disable for graphs
	// that already end in a sigmoid.
	ApplySigmoid bool
	// Events receives one event per analysis; nil disables history.
	Events chan<- event.Event
}

// LabelScore is the probability the model assigned to one label.
type LabelScore struct {
	Label       string  `json:"label"`
	Probability float32 `json:"probability"`
}

type Analysis struct {
	ID        uuid.UUID    `json:"analysis_id"`
	Timestamp time.Time    `json:"analysis_timestamp"`
	Scores    []LabelScore `json:"scores"`
	Detected  []string     `json:"detected_skin_issues"`
}

// Probability returns the score of label, or 0 when it is unknown.
func (a *Analysis) Probability(label string) float32 {
	for _, s := range a.Scores {
		if s.Label == label {
			return s.Probability
		}
	}
	return 0
}

// Finding describes one detected label for display.
type Finding struct {
	Label          string  `json:"label"`
	Confidence     float32 `json:"confidence"`
	Description    string  `json:"description"`
	Recommendation string  `json:"recommendation"`
}

// Findings expands the detected labels with catalog content. Labels without
// content keep empty text fields.
func (a *Analysis) Findings() []Finding {
	findings := make([]Finding, 0, len(a.Detected))
	for _, label := range a.Detected {
		f := Finding{Label: label, Confidence: a.Probability(label)}
		if info, ok := catalog.LookupInfo(label); ok {
			f.Description = info.Description
			f.Recommendation = strings.Join(info.DailyCare, ". ")
		}
		findings = append(findings, f)
	}
	return findings
}

type AnalysisService struct {
	faces        FaceCropper
	model        Classifier
	transform    preprocess.Transform
	applySigmoid bool
	events       chan<- event.Event
	now          func() time.Time
}

func NewAnalysisService(faces FaceCropper, m Classifier, opts AnalysisOptions) *AnalysisService {
	if opts.Transform.CropSize == 0 {
		opts.Transform = preprocess.Default
	}
	return &AnalysisService{
		faces:        faces,
		model:        m,
		transform:    opts.Transform,
		applySigmoid: opts.ApplySigmoid,
		events:       opts.Events,
		now:          time.Now,
	}
}

// Analyze crops the face in data, classifies it and thresholds the label
// probabilities. When nothing clears its threshold the result is the single
// label catalog.NoIssueDetected.
func (s *AnalysisService) Analyze(ctx context.Context, data []byte) (*Analysis, error) {
	start := s.now()
	a := &Analysis{ID: uuid.New(), Timestamp: start.UTC()}

	err := s.analyze(ctx, data, a)
	status := "success"
	switch {
	case errors.Is(err, vision.ErrInvalidImage):
		status = "invalid_image"
	case errors.Is(err, vision.ErrNoFace):
		status = "no_face"
	case err != nil:
		status = "error"
	}
	metrics.RecordAnalysis(status, s.now().Sub(start))
	s.publish(a, err)

	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AnalysisService) analyze(ctx context.Context, data []byte, a *Analysis) error {
	face, err := s.faces.Crop(data)
	if err != nil {
		logging.Warn().Err(err).Str("analysis_id", a.ID.String()).Msg("face extraction failed")
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := s.model.Predict(s.transform.Tensor(face))
	if err != nil {
		logging.Error().Err(err).Str("analysis_id", a.ID.String()).Msg("inference failed")
		return fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(out) != len(catalog.Labels) {
		return fmt.Errorf("%w: model returned %d outputs for %d labels", ErrInference, len(out), len(catalog.Labels))
	}

	probs := out
	if s.applySigmoid {
		probs = model.Sigmoid(out)
	}

	log := logging.Debug().Str("analysis_id", a.ID.String())
	a.Scores = make([]LabelScore, len(catalog.Labels))
	for i, label := range catalog.Labels {
		p := probs[i]
		a.Scores[i] = LabelScore{Label: label, Probability: p}
		log = log.Float32(label, p)
		if p > catalog.Threshold(label) {
			a.Detected = append(a.Detected, label)
			metrics.DetectedLabels.WithLabelValues(label).Inc()
		}
	}
	top, _ := model.TopK(probs, 1)
	log.Str("top_label", catalog.Labels[top[0]]).Msg("label probabilities")

	if len(a.Detected) == 0 {
		a.Detected = []string{catalog.NoIssueDetected}
	}
	return nil
}

func (s *AnalysisService) publish(a *Analysis, err error) {
	if s.events == nil {
		return
	}

	e := event.Event{AnalysisID: a.ID, CreatedAt: a.Timestamp, Status: data.StatusSuccess}
	var body []byte
	if err != nil {
		e.Status = data.StatusFail
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		body, _ = json.Marshal(a)
	}
	e.Body = body
	event.Publish(s.events, e)
}
