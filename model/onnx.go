package model

import (
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Options describes the exported classifier graph.
type Options struct {
	// Path to the .onnx model file
	Path string
	// SharedLibraryPath points at libonnxruntime; empty uses the runtime default
	SharedLibraryPath string
	InputName         string
	OutputName        string
	// InputShape is NCHW, e.g. [1, 3, 224, 224]
	InputShape []int64
	// NumClasses is the width of the output, one logit per label
	NumClasses int64
}

// ONNXModel represents a wrapper for ONNX Runtime model operations.
// The session works on preallocated tensors, so Predict calls are serialised.
type ONNXModel struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputShape   []int64
	outputShape  []int64
}

// NewONNXModel creates a new instance of ONNX model
// This is configured for the multi-label skin classifier exported from training:
// - Input: NCHW float32, ImageNet-normalised
// - Output: one raw logit per label
//
// Parameters:
//   - opts: graph description and model location
//
// Returns:
//   - *ONNXModel: pointer to the created ONNX model
//   - error: error if any occurs during initialization
func NewONNXModel(opts Options) (*ONNXModel, error) {
	if len(opts.InputShape) != 4 {
		return nil, fmt.Errorf("input shape must be NCHW, got %v", opts.InputShape)
	}
	if opts.NumClasses < 1 {
		return nil, fmt.Errorf("number of classes must be positive, got %d", opts.NumClasses)
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}

	// Initialize ONNX Runtime environment
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	inputShape := append([]int64(nil), opts.InputShape...)
	outputShape := []int64{opts.InputShape[0], opts.NumClasses}

	options, err := ort.NewSessionOptions()
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	inputTensor, err := ort.NewTensor(ort.NewShape(inputShape...), make([]float32, elements(inputShape)))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		opts.Path,
		[]string{opts.InputName},
		[]string{opts.OutputName},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf(
			"failed to create session (check input/output node names): %w",
			err,
		)
	}

	return &ONNXModel{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputShape:   inputShape,
		outputShape:  outputShape,
	}, nil
}

// Predict performs inference with the given input image data
// Input should be a flattened NCHW array whose size matches the input shape.
//
// Parameters:
//   - input: preprocessed image data as float32 slice
//
// Returns:
//   - []float32: raw model outputs, one per class
//   - error: error if any occurs during inference
func (m *ONNXModel) Predict(input []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inputData := m.inputTensor.GetData()
	if len(input) != len(inputData) {
		return nil, fmt.Errorf("input size mismatch: expected %d %v, got %d", len(inputData), m.inputShape, len(input))
	}

	copy(inputData, input)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	outputData := m.outputTensor.GetData()
	result := make([]float32, len(outputData))
	copy(result, outputData)

	return result, nil
}

// Close cleans up the resources used by the model
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Destroy()
	}
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}

	return ort.DestroyEnvironment()
}

// GetInputShape returns the shape of the input tensor
func (m *ONNXModel) GetInputShape() []int64 {
	return m.inputShape
}

// GetNumClasses returns the number of output classes
func (m *ONNXModel) GetNumClasses() int {
	return int(m.outputShape[1])
}

func elements(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}

// Sigmoid maps raw logits to independent per-class probabilities, as used by a
// multi-label head.
func Sigmoid(logits []float32) []float32 {
	out := make([]float32, len(logits))
	for i, x := range logits {
		out[i] = float32(1 / (1 + math.Exp(-float64(x))))
	}
	return out
}

// TopK returns the indices of the k highest scores, highest first, together
// with their scores. k is clamped to [1, len(scores)].
func TopK(scores []float32, k int) ([]int, []float32) {
	if len(scores) == 0 {
		return nil, nil
	}
	if k > len(scores) {
		k = len(scores)
	}
	if k < 1 {
		k = 1
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}

	// Simple selection sort for top K
	for i := 0; i < k; i++ {
		maxIdx := i
		for j := i + 1; j < len(idx); j++ {
			if scores[idx[j]] > scores[idx[maxIdx]] {
				maxIdx = j
			}
		}
		idx[i], idx[maxIdx] = idx[maxIdx], idx[i]
	}

	top := idx[:k]
	probs := make([]float32, k)
	for i, id := range top {
		probs[i] = scores[id]
	}
	return top, probs
}
