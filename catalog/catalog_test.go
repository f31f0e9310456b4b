package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreshold(t *testing.T) {
	assert.Equal(t, float32(0.92), Threshold("stain"))
	assert.Equal(t, float32(0.96), Threshold("wrinkle"))
	assert.Equal(t, float32(DefaultThreshold), Threshold("healthy"))
}

func TestIsLabel(t *testing.T) {
	for _, l := range Labels {
		assert.True(t, IsLabel(l), l)
	}
	assert.False(t, IsLabel(NoIssueDetected))
	assert.False(t, IsLabel("Acne"))
}

func TestEveryLabelHasSearchVocabulary(t *testing.T) {
	for _, l := range Labels {
		kw, ok := Keywords(l)
		assert.True(t, ok, l)
		assert.NotEmpty(t, kw, l)
		assert.NotEmpty(t, ProductTypes(l), l)
	}
	_, ok := Keywords(NoIssueDetected)
	assert.False(t, ok)
}

func TestLookupInfo(t *testing.T) {
	info, ok := LookupInfo("acne")
	assert.True(t, ok)
	assert.Equal(t, "Akne", info.Title)
	assert.Len(t, info.Causes, 6)

	_, ok = LookupInfo("healthy")
	assert.False(t, ok)
}
