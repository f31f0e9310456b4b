package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	p := Sigmoid([]float32{0, 10, -10})
	assert.InDelta(t, 0.5, p[0], 1e-6)
	assert.InDelta(t, 1.0, p[1], 1e-4)
	assert.InDelta(t, 0.0, p[2], 1e-4)
}

func TestTopK(t *testing.T) {
	idx, probs := TopK([]float32{0.1, 0.9, 0.4, 0.7}, 2)
	assert.Equal(t, []int{1, 3}, idx)
	assert.Equal(t, []float32{0.9, 0.7}, probs)

	idx, _ = TopK([]float32{0.1, 0.9}, 10)
	assert.Len(t, idx, 2)

	idx, _ = TopK([]float32{0.1, 0.9}, 0)
	assert.Equal(t, []int{1}, idx)

	idx, probs = TopK(nil, 3)
	assert.Nil(t, idx)
	assert.Nil(t, probs)
}

func TestNewONNXModelRejectsBadShape(t *testing.T) {
	_, err := NewONNXModel(Options{InputShape: []int64{1, 224, 224}, NumClasses: 6})
	assert.Error(t, err)

	_, err = NewONNXModel(Options{InputShape: []int64{1, 3, 224, 224}})
	assert.Error(t, err)
}
